//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package notespanel

import (
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/instance/sockets"
)

func newSocketsBackend(dir string) (instance.Backend, error) {
	return sockets.New(dir)
}

func socketsDefaultDir(appName string) string {
	return sockets.DefaultDir(appName)
}
