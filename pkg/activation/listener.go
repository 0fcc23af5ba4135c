// Package activation reacts to activation messages received by the owner of
// a coordination channel (see package instance).
package activation

import (
	"bytes"
	"context"

	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/notespanel/pkg/instance"
)

type Action func(ctx context.Context)

// Listener must be attached only to a receiver obtained from a successful claim.
type Listener struct {
	Command string
	Action  Action
}

func New(
	command string,
	action Action,
) *Listener {
	return &Listener{
		Command: command,
		Action:  action,
	}
}

// OnMessage is executed inline by the dispatching loop and must not block.
// Malformed and unrecognized messages are not errors: they are just not handled.
func (l *Listener) OnMessage(
	ctx context.Context,
	payload []byte,
	format int,
) bool {
	logger.Tracef(ctx, "OnMessage(ctx, %q, %d)", payload, format)
	if format != instance.FormatBytes {
		metrics.FromCtx(ctx).Count("activation_messages_ignored").Add(1)
		return false
	}

	cmd := cString(payload)
	if len(cmd) == 0 {
		metrics.FromCtx(ctx).Count("activation_messages_ignored").Add(1)
		return false
	}

	if !asciiEqualFold(cmd, []byte(l.Command)) {
		logger.Debugf(ctx, "unknown command %q", cmd)
		metrics.FromCtx(ctx).Count("activation_messages_ignored").Add(1)
		return false
	}

	logger.Debugf(ctx, "received command %q", cmd)
	metrics.FromCtx(ctx).Count("activation_messages_handled").Add(1)
	if l.Action != nil {
		l.Action(ctx)
	}
	return true
}

// Serve dispatches the messages of the receiver one by one, in the order
// they were delivered.
func (l *Listener) Serve(
	ctx context.Context,
	receiver instance.Receiver,
) error {
	logger.Debugf(ctx, "Serve(ctx, '%s')", receiver.ID())
	defer logger.Debugf(ctx, "/Serve(ctx, '%s')", receiver.ID())

	return dispatchMessages(ctx, receiver, func(ctx context.Context, msg instance.Message) {
		l.OnMessage(ctx, msg.Data, msg.Format)
	})
}

func dispatchMessages(
	ctx context.Context,
	receiver instance.Receiver,
	handle func(context.Context, instance.Message),
) error {
	msgCh := receiver.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgCh:
			if !ok {
				return nil
			}
			handle(ctx, msg)
		}
	}
}

// cString cuts the payload at the first NUL byte: X11 client messages carry
// a fixed-size buffer padded with zeros.
func cString(b []byte) []byte {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return b[:idx]
	}
	return b
}

func asciiEqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if asciiLower(a[i]) != asciiLower(b[i]) {
			return false
		}
	}
	return true
}

func asciiLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
