//go:build linux && !android
// +build linux,!android

package xselection

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/xaionaro-go/notespanel/pkg/instance"
)

const queueSize = 64

type Receiver struct {
	backend *Backend
	window  xproto.Window
	ch      chan instance.Message
	closed  bool
}

var _ instance.Receiver = (*Receiver)(nil)

func (r *Receiver) ID() string {
	return fmt.Sprintf("0x%x", r.window)
}

func (r *Receiver) Messages() <-chan instance.Message {
	return r.ch
}

// Close destroys the receiver window, which releases the selection.
func (r *Receiver) Close() error {
	ctx := context.TODO()
	var err error
	r.backend.locker.Do(ctx, func() {
		if r.closed {
			return
		}
		r.closed = true
		delete(r.backend.receivers, r.window)
		close(r.ch)
		err = xproto.DestroyWindowChecked(r.backend.XUtil.Conn(), r.window).Check()
	})
	if err != nil {
		return fmt.Errorf("unable to destroy window 0x%x: %w", r.window, err)
	}
	return nil
}
