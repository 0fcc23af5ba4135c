//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package sockets

import (
	"context"
	"encoding/gob"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/observability"
	"golang.org/x/sys/unix"
)

const queueSize = 64

type Receiver struct {
	lockFile   *os.File
	listener   net.Listener
	socketPath string

	ch        chan instance.Message
	closeCh   chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

var _ instance.Receiver = (*Receiver)(nil)

func newReceiver(
	lockFile *os.File,
	listener net.Listener,
	socketPath string,
) *Receiver {
	return &Receiver{
		lockFile:   lockFile,
		listener:   listener,
		socketPath: socketPath,
		ch:         make(chan instance.Message, queueSize),
		closeCh:    make(chan struct{}),
	}
}

func (r *Receiver) ID() string {
	return r.socketPath
}

func (r *Receiver) Messages() <-chan instance.Message {
	return r.ch
}

func (r *Receiver) start(ctx context.Context) {
	r.wg.Add(1)
	observability.Go(ctx, func(ctx context.Context) {
		defer r.wg.Done()
		r.acceptLoop(ctx)
	})
	observability.Go(ctx, func(ctx context.Context) {
		r.wg.Wait()
		close(r.ch)
	})
}

func (r *Receiver) acceptLoop(ctx context.Context) {
	logger.Tracef(ctx, "serving listener at %s", r.socketPath)
	defer logger.Tracef(ctx, "/serving listener at %s", r.socketPath)
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			select {
			case <-r.closeCh:
			default:
				logger.Errorf(ctx, "unable to accept a connection at '%s': %v", r.socketPath, err)
			}
			return
		}
		r.wg.Add(1)
		observability.Go(ctx, func(ctx context.Context) {
			defer r.wg.Done()
			r.handleConnection(ctx, conn)
		})
	}
}

func (r *Receiver) handleConnection(
	ctx context.Context,
	conn net.Conn,
) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(messageTimeout))

	var msg instance.Message
	if err := gob.NewDecoder(conn).Decode(&msg); err != nil {
		logger.Debugf(ctx, "unable to decode a message: %v", err)
		return
	}
	logger.Tracef(ctx, "received a message: %#+v", msg)

	select {
	case r.ch <- msg:
	case <-r.closeCh:
	}
}

// Close releases the ownership. Messages that were already received remain
// readable from Messages until the channel is closed.
func (r *Receiver) Close() error {
	r.closeOnce.Do(func() {
		close(r.closeCh)
		var mErr *multierror.Error
		if err := r.listener.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the listener: %w", err))
		}
		if err := os.Remove(r.socketPath); err != nil && !os.IsNotExist(err) {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to remove '%s': %w", r.socketPath, err))
		}
		if err := r.lockFile.Truncate(0); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to truncate the lock file: %w", err))
		}
		if err := unix.Flock(int(r.lockFile.Fd()), unix.LOCK_UN); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to unlock: %w", err))
		}
		if err := r.lockFile.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the lock file: %w", err))
		}
		r.closeErr = mErr.ErrorOrNil()
	})
	return r.closeErr
}
