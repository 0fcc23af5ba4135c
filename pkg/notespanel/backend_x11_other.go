//go:build !linux || android
// +build !linux android

package notespanel

import (
	"context"
	"fmt"
	"io"

	"github.com/xaionaro-go/notespanel/pkg/instance"
)

func newX11Backend(
	ctx context.Context,
	display string,
) (instance.Backend, int, io.Closer, error) {
	return nil, 0, nil, fmt.Errorf("the support of X11 for this platform is not implemented, yet")
}
