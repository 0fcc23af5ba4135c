//go:build linux && !android
// +build linux,!android

// Package xselection implements an instance.Backend on top of X11 selection
// ownership: the owner of the selection is a hidden InputOnly window, and
// activation messages are ClientMessage events sent to that window.
package xselection

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/shirou/gopsutil/process"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
)

// clientMessageDataSize is the size of the data field of a ClientMessage event.
const clientMessageDataSize = 20

const receiverWindowName = "notespanel selection owner"

type Backend struct {
	*xgbutil.XUtil

	locker      xsync.Mutex
	receivers   map[xproto.Window]*Receiver
	loopStarted bool
}

var _ instance.Backend = (*Backend)(nil)

func New(display string) (*Backend, error) {
	x, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to X-server using DISPLAY '%s': %w", display, err)
	}
	return &Backend{
		XUtil:     x,
		receivers: map[xproto.Window]*Receiver{},
	}, nil
}

// DisplayOrdinal returns the number of the default screen of the connection.
func (b *Backend) DisplayOrdinal() int {
	return b.XUtil.Conn().DefaultScreen
}

func (b *Backend) selectionOwner(
	name instance.ChannelName,
) (xproto.Atom, xproto.Window, error) {
	atom, err := xprop.Atm(b.XUtil, string(name))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to intern atom '%s': %w", name, err)
	}
	reply, err := xproto.GetSelectionOwner(b.XUtil.Conn(), atom).Reply()
	if err != nil {
		return atom, 0, fmt.Errorf("unable to get the owner of selection '%s': %w", name, err)
	}
	return atom, reply.Owner, nil
}

func (b *Backend) Claim(
	ctx context.Context,
	name instance.ChannelName,
) (_ret instance.Receiver, _err error) {
	logger.Debugf(ctx, "Claim(ctx, '%s')", name)
	defer func() { logger.Debugf(ctx, "/Claim(ctx, '%s'): %v", name, _err) }()

	atom, owner, err := b.selectionOwner(name)
	if err != nil {
		return nil, err
	}
	if owner != xproto.WindowNone {
		logger.Debugf(ctx, "selection '%s' is owned by window 0x%x", name, owner)
		return nil, instance.ErrAlreadyOwned
	}

	win, err := b.createReceiverWindow(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", instance.ErrReceiverCreationFailed, err)
	}

	conn := b.XUtil.Conn()
	err = xproto.SetSelectionOwnerChecked(conn, win, atom, xproto.TimeCurrentTime).Check()
	if err != nil {
		xproto.DestroyWindow(conn, win)
		return nil, fmt.Errorf("unable to set the owner of selection '%s': %w", name, err)
	}

	// SetSelectionOwner is atomic on the server side, but another client may
	// have taken the selection between our query and our request.
	_, owner, err = b.selectionOwner(name)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		return nil, err
	}
	if owner != win {
		logger.Debugf(ctx, "lost the race for '%s' to window 0x%x", name, owner)
		xproto.DestroyWindow(conn, win)
		return nil, instance.ErrAlreadyOwned
	}

	r := &Receiver{
		backend: b,
		window:  win,
		ch:      make(chan instance.Message, queueSize),
	}
	b.locker.Do(ctx, func() {
		b.receivers[win] = r
		if !b.loopStarted {
			b.loopStarted = true
			observability.Go(context.WithoutCancel(ctx), b.eventLoop)
		}
	})
	return r, nil
}

func (b *Backend) createReceiverWindow(
	ctx context.Context,
) (xproto.Window, error) {
	conn := b.XUtil.Conn()
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("unable to allocate a window ID: %w", err)
	}

	err = xproto.CreateWindowChecked(
		conn,
		0, // InputOnly windows have no depth
		win,
		b.XUtil.RootWin(),
		-1, -1, 1, 1,
		0,
		xproto.WindowClassInputOnly,
		0, // CopyFromParent
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{1, xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("unable to create an InputOnly window: %w", err)
	}

	if err := ewmh.WmNameSet(b.XUtil, win, receiverWindowName); err != nil {
		logger.Debugf(ctx, "unable to set the name of window 0x%x: %v", win, err)
	}
	if err := ewmh.WmPidSet(b.XUtil, win, uint(os.Getpid())); err != nil {
		logger.Debugf(ctx, "unable to set the PID of window 0x%x: %v", win, err)
	}
	return win, nil
}

func (b *Backend) eventLoop(ctx context.Context) {
	logger.Debugf(ctx, "eventLoop")
	defer logger.Debugf(ctx, "/eventLoop")
	conn := b.XUtil.Conn()
	for {
		ev, xErr := conn.WaitForEvent()
		switch {
		case ev == nil && xErr == nil:
			logger.Debugf(ctx, "the connection to the X-server is closed")
			return
		case xErr != nil:
			logger.Errorf(ctx, "got an X error: %v", xErr)
			continue
		}

		switch ev := ev.(type) {
		case xproto.ClientMessageEvent:
			b.dispatch(ctx, ev.Window, instance.Message{
				Format: int(ev.Format),
				Data:   append([]byte(nil), ev.Data.Data8...),
			})
		case xproto.SelectionClearEvent:
			logger.Warnf(ctx, "window 0x%x lost the ownership of selection %d", ev.Owner, ev.Selection)
		default:
			logger.Tracef(ctx, "ignoring event %T", ev)
		}
	}
}

func (b *Backend) dispatch(
	ctx context.Context,
	win xproto.Window,
	msg instance.Message,
) {
	b.locker.Do(ctx, func() {
		r, ok := b.receivers[win]
		if !ok {
			logger.Debugf(ctx, "a client message for an unknown window 0x%x", win)
			return
		}
		select {
		case r.ch <- msg:
		default:
			logger.Warnf(ctx, "the message queue of window 0x%x is full, dropping %#+v", win, msg)
		}
	})
}

func (b *Backend) Owner(
	ctx context.Context,
	name instance.ChannelName,
) (*instance.Owner, error) {
	_, owner, err := b.selectionOwner(name)
	if err != nil {
		return nil, err
	}
	if owner == xproto.WindowNone {
		return nil, nil
	}

	result := &instance.Owner{
		ID: fmt.Sprintf("0x%x", owner),
	}
	pid, err := ewmh.WmPidGet(b.XUtil, owner)
	if err != nil {
		logger.Debugf(ctx, "unable to get the PID of window 0x%x: %v", owner, err)
		return result, nil
	}
	result.PID = int(pid)
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		logger.Debugf(ctx, "unable to get process info of window 0x%x using PID %d: %v", owner, pid, err)
		return result, nil
	}
	result.ProcessName, err = proc.Name()
	if err != nil {
		logger.Debugf(ctx, "unable to get the process name of window 0x%x using PID %d: %v", owner, pid, err)
	}
	return result, nil
}

func (b *Backend) Send(
	ctx context.Context,
	name instance.ChannelName,
	msg instance.Message,
) error {
	if msg.Format != instance.FormatBytes {
		return fmt.Errorf("only format %d is supported, got %d", instance.FormatBytes, msg.Format)
	}
	if len(msg.Data) >= clientMessageDataSize {
		return fmt.Errorf("%w: %d bytes, while the limit is %d", instance.ErrPayloadTooLarge, len(msg.Data), clientMessageDataSize-1)
	}

	_, owner, err := b.selectionOwner(name)
	if err != nil {
		return err
	}
	if owner == xproto.WindowNone {
		return instance.ErrNotOwned
	}

	data := make([]byte, clientMessageDataSize)
	copy(data, msg.Data)
	ev := xproto.ClientMessageEvent{
		Format: instance.FormatBytes,
		Window: owner,
		Type:   xproto.AtomString,
		Data:   xproto.ClientMessageDataUnionData8New(data),
	}
	logger.Debugf(ctx, "sending a client message to window 0x%x", owner)
	err = xproto.SendEventChecked(
		b.XUtil.Conn(),
		false,
		owner,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
	if err != nil {
		return fmt.Errorf("unable to send the client message to window 0x%x: %w", owner, err)
	}
	return nil
}

func (b *Backend) Close() error {
	ctx := context.TODO()
	logger.Debugf(ctx, "Close")
	defer logger.Debugf(ctx, "/Close")
	b.XUtil.Conn().Close()
	return nil
}
