package instance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/instance/memory"
)

const testPrefix = "XFCE_NOTES_SELECTION"

func testContext() context.Context {
	l := logrus.Default().WithLevel(logger.LevelTrace)
	return logger.CtxWithLogger(context.Background(), l)
}

func TestChannelNameDistinct(t *testing.T) {
	seen := map[instance.ChannelName]int{}
	for ordinal := 0; ordinal < 1000; ordinal++ {
		name := instance.NewChannelName(testPrefix, ordinal)
		prev, ok := seen[name]
		require.False(t, ok, "ordinals %d and %d collide as '%s'", prev, ordinal, name)
		seen[name] = ordinal
	}
	require.Equal(t, instance.ChannelName("XFCE_NOTES_SELECTION0"), instance.NewChannelName(testPrefix, 0))
	require.Equal(t, instance.ChannelName("XFCE_NOTES_SELECTION12"), instance.NewChannelName(testPrefix, 12))
}

func TestTryClaimSecondProcessDeclined(t *testing.T) {
	ctx := testContext()
	display := memory.NewDisplay()

	first := instance.NewRegistrar(display, testPrefix)
	second := instance.NewRegistrar(display, testPrefix)
	require.Equal(t, instance.StateUnclaimed, first.State())

	receiver, err := first.TryClaim(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, receiver)
	require.Equal(t, instance.StateOwned, first.State())

	receiver2, err := second.TryClaim(ctx, 0)
	require.ErrorIs(t, err, instance.ErrAlreadyOwned)
	require.Nil(t, receiver2)
	require.Equal(t, instance.StateDeclined, second.State())

	owner, err := display.Owner(ctx, instance.NewChannelName(testPrefix, 0))
	require.NoError(t, err)
	require.NotNil(t, owner)
	require.Equal(t, receiver.ID(), owner.ID)
}

func TestTryClaimOtherDisplay(t *testing.T) {
	ctx := testContext()
	display := memory.NewDisplay()

	_, err := instance.NewRegistrar(display, testPrefix).TryClaim(ctx, 0)
	require.NoError(t, err)
	_, err = instance.NewRegistrar(display, testPrefix).TryClaim(ctx, 1)
	require.NoError(t, err)
}

func TestTryClaimTwice(t *testing.T) {
	ctx := testContext()
	display := memory.NewDisplay()

	r := instance.NewRegistrar(display, testPrefix)
	_, err := r.TryClaim(ctx, 0)
	require.NoError(t, err)
	_, err = r.TryClaim(ctx, 0)
	require.ErrorIs(t, err, instance.ErrInvalidState)
	require.Equal(t, instance.StateOwned, r.State())
}

func TestClaimAfterRelease(t *testing.T) {
	ctx := testContext()
	display := memory.NewDisplay()

	first := instance.NewRegistrar(display, testPrefix)
	_, err := first.TryClaim(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, first.Release(ctx))
	require.Equal(t, instance.StateOwned, first.State())

	second := instance.NewRegistrar(display, testPrefix)
	receiver, err := second.TryClaim(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, receiver)
	require.Equal(t, instance.StateOwned, second.State())
}

type failingBackend struct {
	instance.Backend
}

func (failingBackend) Claim(context.Context, instance.ChannelName) (instance.Receiver, error) {
	return nil, errors.Join(instance.ErrReceiverCreationFailed, errors.New("no display"))
}

func TestTryClaimReceiverCreationFailed(t *testing.T) {
	ctx := testContext()

	r := instance.NewRegistrar(failingBackend{}, testPrefix)
	_, err := r.TryClaim(ctx, 0)
	require.ErrorIs(t, err, instance.ErrReceiverCreationFailed)
	require.NotErrorIs(t, err, instance.ErrAlreadyOwned)
	require.Equal(t, instance.StateUnclaimed, r.State())
}

func TestSend(t *testing.T) {
	ctx := testContext()
	display := memory.NewDisplay()

	err := instance.Send(ctx, display, testPrefix, 0, "XFCE_NOTES_MESSAGE")
	require.ErrorIs(t, err, instance.ErrNotOwned)

	receiver, err := instance.NewRegistrar(display, testPrefix).TryClaim(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, instance.Send(ctx, display, testPrefix, 0, "XFCE_NOTES_MESSAGE"))
	msg := <-receiver.Messages()
	require.Equal(t, instance.FormatBytes, msg.Format)
	require.Equal(t, []byte("XFCE_NOTES_MESSAGE"), msg.Data)
}

func TestDisplayOrdinal(t *testing.T) {
	for _, tc := range []struct {
		display string
		ordinal int
		isErr   bool
	}{
		{display: ":0", ordinal: 0},
		{display: ":1", ordinal: 0},
		{display: ":1.2", ordinal: 2},
		{display: "localhost:10.1", ordinal: 1},
		{display: "[::1]:0.3", ordinal: 3},
		{display: "", isErr: true},
		{display: ":x", isErr: true},
		{display: ":0.y", isErr: true},
	} {
		t.Run(tc.display, func(t *testing.T) {
			ordinal, err := instance.DisplayOrdinal(tc.display)
			if tc.isErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.ordinal, ordinal)
		})
	}
}
