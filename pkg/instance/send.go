package instance

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

func Send(
	ctx context.Context,
	backend Backend,
	prefix string,
	ordinal int,
	command string,
) error {
	name := NewChannelName(prefix, ordinal)
	logger.Debugf(ctx, "sending '%s' to '%s'", command, name)
	err := backend.Send(ctx, name, Message{
		Format: FormatBytes,
		Data:   []byte(command),
	})
	if err != nil {
		return fmt.Errorf("unable to send '%s' to '%s': %w", command, name, err)
	}
	return nil
}
