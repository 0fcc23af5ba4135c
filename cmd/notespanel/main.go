package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
	prometheusadapter "github.com/facebookincubator/go-belt/tool/experimental/metrics/implementation/prometheus"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/zap"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/notespanel/pkg/notespanel"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/config"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/consts"
	"github.com/xaionaro-go/notespanel/pkg/xpath"
	"github.com/xaionaro-go/observability"
)

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config-path", "~/.notespanel.yaml", "the path to the config file")
	backendType := config.BackendTypeUndefined
	pflag.Var(&backendType, "backend", "override the backend from the config: auto, x11 or sockets")
	display := pflag.String("display", "", "override the X display (by default $DISPLAY is used)")
	metricsAddr := pflag.String("metrics-listen-addr", "", "address to listen to for Prometheus metrics requests")
	version := pflag.Bool("version", false, "print the build info and exit")
	pflag.Parse()

	if *version {
		printBuildInfo(os.Stdout)
		return
	}

	l := zap.Default().WithLevel(loggerLevel)
	ctx := context.Background()
	ctx = logger.CtxWithLogger(ctx, l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	ctx = metrics.CtxWithMetrics(ctx, prometheusadapter.Default())
	ctx = belt.WithField(ctx, "program", strings.ToLower(consts.AppName))
	ctx = belt.WithField(ctx, "pid", os.Getpid())

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	signalHandler(ctx, cancelFn)

	if *metricsAddr != "" {
		observability.Go(ctx, func(ctx context.Context) {
			logger.Infof(ctx, "starting to listen for metrics requests at '%s'", *metricsAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Error(ctx, http.ListenAndServe(*metricsAddr, mux))
		})
	}

	configPathExpanded, err := xpath.Expand(*configPath)
	assertNoError(ctx, err)

	cfg, err := config.ReadOrCreateConfigFile(ctx, configPathExpanded)
	assertNoError(ctx, err)
	if backendType != config.BackendTypeUndefined {
		cfg.Backend = backendType
	}
	if *display != "" {
		cfg.Display = *display
	}

	backend, displayOrdinal, closer, err := notespanel.NewBackend(ctx, *cfg)
	if err != nil {
		logger.Fatalf(ctx, "unable to initialize the backend: %v", err)
	}
	defer closer.Close()

	panel := notespanel.New(*cfg, backend, displayOrdinal)
	panel.LoadWindows(ctx)
	if err := panel.Serve(ctx); err != nil {
		logger.Fatalf(ctx, "the panel exited with error: %v", err)
	}
}
