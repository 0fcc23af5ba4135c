package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/xsync"
)

type Registrar struct {
	Backend Backend
	Prefix  string

	locker   xsync.Mutex
	state    State
	name     ChannelName
	receiver Receiver
}

func NewRegistrar(
	backend Backend,
	prefix string,
) *Registrar {
	return &Registrar{
		Backend: backend,
		Prefix:  prefix,
		state:   StateUnclaimed,
	}
}

// TryClaim is expected to be called once, at startup.
func (r *Registrar) TryClaim(
	ctx context.Context,
	ordinal int,
) (_ret Receiver, _err error) {
	name := NewChannelName(r.Prefix, ordinal)
	logger.Debugf(ctx, "TryClaim(ctx, %d): '%s'", ordinal, name)
	defer func() { logger.Debugf(ctx, "/TryClaim(ctx, %d): '%s': %v", ordinal, name, _err) }()

	return xsync.DoR2(ctx, &r.locker, func() (Receiver, error) {
		if r.state != StateUnclaimed {
			return nil, fmt.Errorf("%w: the registrar is already in state '%s'", ErrInvalidState, r.state)
		}

		receiver, err := r.Backend.Claim(ctx, name)
		switch {
		case err == nil:
		case errors.Is(err, ErrAlreadyOwned):
			r.state = StateDeclined
			r.name = name
			return nil, err
		default:
			return nil, fmt.Errorf("unable to claim '%s': %w", name, err)
		}

		r.state = StateOwned
		r.name = name
		r.receiver = receiver
		logger.Infof(ctx, "claimed '%s' with receiver '%s'", name, receiver.ID())
		return receiver, nil
	})
}

func (r *Registrar) State() State {
	ctx := context.TODO()
	return xsync.DoR1(ctx, &r.locker, func() State {
		return r.state
	})
}

func (r *Registrar) ChannelName() ChannelName {
	ctx := context.TODO()
	return xsync.DoR1(ctx, &r.locker, func() ChannelName {
		return r.name
	})
}

// Release gives the ownership back, as if the process exited. The registrar
// stays in its terminal state.
func (r *Registrar) Release(ctx context.Context) error {
	return xsync.DoR1(ctx, &r.locker, func() error {
		if r.receiver == nil {
			return nil
		}
		logger.Debugf(ctx, "releasing '%s'", r.name)
		err := r.receiver.Close()
		r.receiver = nil
		if err != nil {
			return fmt.Errorf("unable to release '%s': %w", r.name, err)
		}
		return nil
	})
}
