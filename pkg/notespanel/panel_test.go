package notespanel

import (
	"context"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/instance/memory"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/config"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/consts"
)

func testContext(t *testing.T) context.Context {
	l := logrus.Default().WithLevel(logger.LevelTrace)
	ctx, cancelFn := context.WithCancel(logger.CtxWithLogger(context.Background(), l))
	t.Cleanup(cancelFn)
	return ctx
}

func visibility(ctx context.Context, p *Panel) []bool {
	var result []bool
	for _, w := range p.Windows(ctx) {
		result = append(result, w.IsVisible())
	}
	return result
}

func TestLoadWindows(t *testing.T) {
	ctx := testContext(t)

	cfg := config.DefaultConfig()
	cfg.Windows = nil
	p := New(cfg, memory.NewDisplay(), 0)
	p.LoadWindows(ctx)
	windows := p.Windows(ctx)
	require.Len(t, windows, 1)
	require.Equal(t, consts.DefaultWindowName, windows[0].Name())

	cfg.Windows = []config.WindowConfig{{Name: "A"}, {Name: ""}, {Name: "B"}}
	p = New(cfg, memory.NewDisplay(), 0)
	p.LoadWindows(ctx)
	windows = p.Windows(ctx)
	require.Len(t, windows, 2)
	require.Equal(t, "A", windows[0].Name())
	require.Equal(t, "B", windows[1].Name())
}

func TestShowHideWindows(t *testing.T) {
	ctx := testContext(t)

	cfg := config.DefaultConfig()
	cfg.Windows = []config.WindowConfig{{Name: "A"}, {Name: "B"}}
	p := New(cfg, memory.NewDisplay(), 0)
	p.LoadWindows(ctx)
	require.Equal(t, []bool{false, false}, visibility(ctx, p))

	p.ShowHideWindows(ctx)
	require.Equal(t, []bool{true, true}, visibility(ctx, p))

	p.ShowHideWindows(ctx)
	require.Equal(t, []bool{false, false}, visibility(ctx, p))

	p.Windows(ctx)[1].Show(ctx)
	p.ShowHideWindows(ctx)
	require.Equal(t, []bool{true, true}, visibility(ctx, p))
}

func TestServeActivation(t *testing.T) {
	ctx := testContext(t)
	display := memory.NewDisplay()
	cfg := config.DefaultConfig()

	owner := New(cfg, display, 0)
	owner.LoadWindows(ctx)
	ownerCtx, ownerCancel := context.WithCancel(ctx)
	ownerErrCh := make(chan error, 1)
	go func() { ownerErrCh <- owner.Serve(ownerCtx) }()
	require.Eventually(t, func() bool {
		return owner.Registrar.State() == instance.StateOwned
	}, 10*time.Second, time.Millisecond)

	declined := New(cfg, display, 0)
	declined.LoadWindows(ctx)
	declinedCtx, declinedCancel := context.WithCancel(ctx)
	declinedErrCh := make(chan error, 1)
	go func() { declinedErrCh <- declined.Serve(declinedCtx) }()
	require.Eventually(t, func() bool {
		return declined.Registrar.State() == instance.StateDeclined
	}, 10*time.Second, time.Millisecond)

	require.NoError(t, instance.Send(ctx, display, cfg.SelectionPrefix, 0, "xfce_notes_message"))
	require.Eventually(t, func() bool {
		return owner.Windows(ctx)[0].IsVisible()
	}, 10*time.Second, time.Millisecond)
	require.False(t, declined.Windows(ctx)[0].IsVisible())

	require.NoError(t, instance.Send(ctx, display, cfg.SelectionPrefix, 0, "hello"))
	require.NoError(t, instance.Send(ctx, display, cfg.SelectionPrefix, 0, "XFCE_NOTES_MESSAGE"))
	require.Eventually(t, func() bool {
		return !owner.Windows(ctx)[0].IsVisible()
	}, 10*time.Second, time.Millisecond)

	ownerCancel()
	require.NoError(t, <-ownerErrCh)
	declinedCancel()
	require.NoError(t, <-declinedErrCh)

	owner2, err := display.Owner(ctx, instance.NewChannelName(cfg.SelectionPrefix, 0))
	require.NoError(t, err)
	require.Nil(t, owner2)

	successor := New(cfg, display, 0)
	_, err = successor.Registrar.TryClaim(ctx, 0)
	require.NoError(t, err)
}
