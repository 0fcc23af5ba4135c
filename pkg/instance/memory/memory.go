// Package memory implements an instance.Backend on top of an in-process
// simulation of a windowing system: a set of named exclusive tokens and
// per-owner message queues shared by any number of simulated processes.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/xsync"
)

const defaultQueueSize = 64

type Display struct {
	locker    xsync.Mutex
	owners    map[instance.ChannelName]*Receiver
	nextID    atomic.Uint64
	QueueSize int
}

var _ instance.Backend = (*Display)(nil)

func NewDisplay() *Display {
	return &Display{
		owners:    map[instance.ChannelName]*Receiver{},
		QueueSize: defaultQueueSize,
	}
}

func (d *Display) Claim(
	ctx context.Context,
	name instance.ChannelName,
) (instance.Receiver, error) {
	return xsync.DoR2(ctx, &d.locker, func() (instance.Receiver, error) {
		if owner, ok := d.owners[name]; ok {
			logger.Debugf(ctx, "'%s' is already owned by '%s'", name, owner.ID())
			return nil, instance.ErrAlreadyOwned
		}
		r := &Receiver{
			display: d,
			name:    name,
			id:      d.nextID.Add(1),
			ch:      make(chan instance.Message, d.QueueSize),
		}
		d.owners[name] = r
		return r, nil
	})
}

func (d *Display) Owner(
	ctx context.Context,
	name instance.ChannelName,
) (*instance.Owner, error) {
	return xsync.DoR2(ctx, &d.locker, func() (*instance.Owner, error) {
		owner, ok := d.owners[name]
		if !ok {
			return nil, nil
		}
		return &instance.Owner{ID: owner.ID()}, nil
	})
}

func (d *Display) Send(
	ctx context.Context,
	name instance.ChannelName,
	msg instance.Message,
) error {
	return xsync.DoR1(ctx, &d.locker, func() error {
		owner, ok := d.owners[name]
		if !ok {
			return instance.ErrNotOwned
		}
		msg.Data = append([]byte(nil), msg.Data...)
		select {
		case owner.ch <- msg:
			return nil
		default:
			return fmt.Errorf("the message queue of '%s' is full", owner.ID())
		}
	})
}

func (d *Display) release(ctx context.Context, r *Receiver) {
	d.locker.Do(ctx, func() {
		if d.owners[r.name] != r {
			return
		}
		delete(d.owners, r.name)
		close(r.ch)
	})
}

type Receiver struct {
	display *Display
	name    instance.ChannelName
	id      uint64
	ch      chan instance.Message
	closed  atomic.Bool
}

var _ instance.Receiver = (*Receiver)(nil)

func (r *Receiver) ID() string {
	return fmt.Sprintf("memory:%d", r.id)
}

func (r *Receiver) Messages() <-chan instance.Message {
	return r.ch
}

func (r *Receiver) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.display.release(context.TODO(), r)
	return nil
}
