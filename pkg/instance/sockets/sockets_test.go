//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package sockets

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/notespanel/pkg/instance"
)

func testContext() context.Context {
	l := logrus.Default().WithLevel(logger.LevelTrace)
	return logger.CtxWithLogger(context.Background(), l)
}

func newTestBackend(t *testing.T) *Backend {
	// unix socket paths are limited in length, t.TempDir() may be too deep
	dir, err := os.MkdirTemp("", "notes")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	b, err := New(dir)
	require.NoError(t, err)
	return b
}

func TestClaimDeclineRelease(t *testing.T) {
	ctx := testContext()
	b := newTestBackend(t)
	name := instance.NewChannelName("XFCE_NOTES_SELECTION", 0)

	owner, err := b.Owner(ctx, name)
	require.NoError(t, err)
	require.Nil(t, owner)

	r, err := b.Claim(ctx, name)
	require.NoError(t, err)

	// a separate Backend value models a separate process: flock(2) locks are
	// per open file description
	other, err := New(b.Dir)
	require.NoError(t, err)
	_, err = other.Claim(ctx, name)
	require.ErrorIs(t, err, instance.ErrAlreadyOwned)

	owner, err = other.Owner(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, owner)
	require.Equal(t, os.Getpid(), owner.PID)
	require.Equal(t, r.ID(), owner.ID)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	owner, err = other.Owner(ctx, name)
	require.NoError(t, err)
	require.Nil(t, owner)

	r2, err := other.Claim(ctx, name)
	require.NoError(t, err)
	require.NoError(t, r2.Close())
}

func TestSendReceive(t *testing.T) {
	ctx := testContext()
	b := newTestBackend(t)
	name := instance.NewChannelName("XFCE_NOTES_SELECTION", 1)

	err := b.Send(ctx, name, instance.Message{Format: instance.FormatBytes, Data: []byte("x")})
	require.ErrorIs(t, err, instance.ErrNotOwned)

	r, err := b.Claim(ctx, name)
	require.NoError(t, err)
	defer r.Close()

	err = b.Send(ctx, name, instance.Message{Format: instance.FormatBytes, Data: []byte("XFCE_NOTES_MESSAGE")})
	require.NoError(t, err)

	select {
	case msg := <-r.Messages():
		require.Equal(t, instance.FormatBytes, msg.Format)
		require.Equal(t, []byte("XFCE_NOTES_MESSAGE"), msg.Data)
	case <-time.After(10 * time.Second):
		t.Fatal("the message was not delivered")
	}
}

func TestMessagesClosedAfterRelease(t *testing.T) {
	ctx := testContext()
	b := newTestBackend(t)

	r, err := b.Claim(ctx, "TEST0")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	select {
	case _, ok := <-r.Messages():
		require.False(t, ok)
	case <-time.After(10 * time.Second):
		t.Fatal("the messages channel was not closed")
	}

	err = b.Send(ctx, "TEST0", instance.Message{Format: instance.FormatBytes, Data: []byte("x")})
	require.ErrorIs(t, err, instance.ErrNotOwned)
}

func TestOwnerDoesNotDisturbClaim(t *testing.T) {
	ctx := testContext()
	b := newTestBackend(t)
	name := instance.NewChannelName("XFCE_NOTES_SELECTION", 2)

	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		querier := &Backend{Dir: b.Dir}
		for {
			select {
			case <-stopCh:
				return
			default:
			}
			_, err := querier.Owner(ctx, name)
			assert.NoError(t, err)
		}
	}()
	defer wg.Wait()
	defer close(stopCh)

	for i := 0; i < 500; i++ {
		r, err := b.Claim(ctx, name)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, r.Close())
	}
}
