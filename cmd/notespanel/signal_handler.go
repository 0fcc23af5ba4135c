package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

// signalHandler cancels the context on SIGINT/SIGTERM, so that the receiver
// is released and the ownership is given back before exiting.
func signalHandler(
	ctx context.Context,
	cancelFn context.CancelFunc,
) chan<- os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	observability.Go(ctx, func(ctx context.Context) {
		for range c {
			logger.Infof(ctx, "received an interruption signal")
			cancelFn()
		}
	})
	return c
}
