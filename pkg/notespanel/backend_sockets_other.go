//go:build !linux && !darwin && !freebsd
// +build !linux,!darwin,!freebsd

package notespanel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xaionaro-go/notespanel/pkg/instance"
)

func newSocketsBackend(dir string) (instance.Backend, error) {
	return nil, fmt.Errorf("the support of the sockets backend for this platform is not implemented, yet")
}

func socketsDefaultDir(appName string) string {
	return filepath.Join(os.TempDir(), appName)
}
