//go:build linux && !android
// +build linux,!android

package notespanel

import (
	"context"
	"io"

	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/instance/xselection"
)

func newX11Backend(
	ctx context.Context,
	display string,
) (instance.Backend, int, io.Closer, error) {
	backend, err := xselection.New(display)
	if err != nil {
		return nil, 0, nil, err
	}
	return backend, backend.DisplayOrdinal(), backend, nil
}
