package instance

import (
	"context"
	"strconv"
)

// FormatBytes is the message format of byte-oriented payloads (8 bits per unit).
const FormatBytes = 8

type ChannelName string

func NewChannelName(prefix string, ordinal int) ChannelName {
	return ChannelName(prefix + strconv.Itoa(ordinal))
}

func (n ChannelName) String() string {
	return string(n)
}

type Message struct {
	Format int
	Data   []byte
}

// Receiver is the ownership token of a claimed channel. Ownership lasts
// until Close is called (or the owning process exits).
type Receiver interface {
	ID() string
	Messages() <-chan Message
	Close() error
}

type Owner struct {
	ID          string
	PID         int
	ProcessName string
}

type Backend interface {
	// Claim atomically checks for an existing owner of the channel and,
	// if there is none, becomes the owner. Returns ErrAlreadyOwned if the
	// channel is taken.
	Claim(ctx context.Context, name ChannelName) (Receiver, error)

	// Owner returns nil (and no error) if nobody owns the channel.
	Owner(ctx context.Context, name ChannelName) (*Owner, error)

	// Send delivers the message to the current owner without waiting for any
	// reaction. Returns ErrNotOwned if nobody owns the channel.
	Send(ctx context.Context, name ChannelName, msg Message) error
}
