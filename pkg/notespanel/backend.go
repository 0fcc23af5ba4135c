package notespanel

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/config"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/consts"
	"github.com/xaionaro-go/notespanel/pkg/xpath"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewBackend opens the backend selected in the config and returns it
// together with the ordinal of the display to claim. The returned closer
// must be called once the backend is not needed anymore.
func NewBackend(
	ctx context.Context,
	cfg config.Config,
) (instance.Backend, int, io.Closer, error) {
	display := cfg.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}

	backendType := cfg.Backend
	if backendType == config.BackendTypeAuto || backendType == config.BackendTypeUndefined {
		if display != "" {
			backendType = config.BackendTypeX11
		} else {
			backendType = config.BackendTypeSockets
		}
	}
	logger.Debugf(ctx, "backend: %s, display: '%s'", backendType, display)

	switch backendType {
	case config.BackendTypeX11:
		if display == "" {
			return nil, 0, nil, fmt.Errorf("the X11 backend requires DISPLAY to be set")
		}
		return newX11Backend(ctx, display)
	case config.BackendTypeSockets:
		ordinal := 0
		if display != "" {
			var err error
			ordinal, err = instance.DisplayOrdinal(display)
			if err != nil {
				return nil, 0, nil, err
			}
		}
		dir := cfg.RuntimeDir
		if dir == "" {
			dir = defaultRuntimeDir()
		}
		dir, err := xpath.Expand(dir)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("unable to expand path '%s': %w", cfg.RuntimeDir, err)
		}
		backend, err := newSocketsBackend(dir)
		if err != nil {
			return nil, 0, nil, err
		}
		return backend, ordinal, nopCloser{}, nil
	default:
		return nil, 0, nil, fmt.Errorf("unknown backend '%s'", backendType)
	}
}

func defaultRuntimeDir() string {
	return socketsDefaultDir(consts.AppName)
}
