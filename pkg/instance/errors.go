package instance

import (
	"errors"
)

var (
	ErrAlreadyOwned           = errors.New("the channel is already owned by another instance")
	ErrReceiverCreationFailed = errors.New("unable to create the receiver")
	ErrNotOwned               = errors.New("the channel has no owner")
	ErrInvalidState           = errors.New("invalid state")
	ErrPayloadTooLarge        = errors.New("the payload is too large")
)
