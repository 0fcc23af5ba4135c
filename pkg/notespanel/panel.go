package notespanel

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/notespanel/pkg/activation"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/config"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/consts"
	"github.com/xaionaro-go/xsync"
)

type Panel struct {
	Config         config.Config
	DisplayOrdinal int
	Registrar      *instance.Registrar
	Listener       *activation.Listener
	NewWindowFunc  func(name string) Window

	windowsLocker xsync.Mutex
	windows       []Window
}

func New(
	cfg config.Config,
	backend instance.Backend,
	displayOrdinal int,
) *Panel {
	cfg.ApplyDefaults()
	p := &Panel{
		Config:         cfg,
		DisplayOrdinal: displayOrdinal,
		Registrar:      instance.NewRegistrar(backend, cfg.SelectionPrefix),
		NewWindowFunc:  NewHeadlessWindow,
	}
	p.Listener = activation.New(cfg.Command, p.ShowHideWindows)
	return p
}

// LoadWindows creates the windows listed in the config; there is always at
// least one window.
func (p *Panel) LoadWindows(ctx context.Context) {
	names := make([]string, 0, len(p.Config.Windows))
	for _, w := range p.Config.Windows {
		if w.Name == "" {
			continue
		}
		names = append(names, w.Name)
	}
	if len(names) == 0 {
		names = append(names, consts.DefaultWindowName)
	}
	for _, name := range names {
		p.NewWindow(ctx, name)
	}
}

func (p *Panel) NewWindow(
	ctx context.Context,
	name string,
) Window {
	logger.Debugf(ctx, "NewWindow(ctx, '%s')", name)
	w := p.NewWindowFunc(name)
	p.windowsLocker.Do(ctx, func() {
		p.windows = append(p.windows, w)
	})
	return w
}

func (p *Panel) Windows(ctx context.Context) []Window {
	return xsync.DoR1(ctx, &p.windowsLocker, func() []Window {
		return append([]Window(nil), p.windows...)
	})
}

// ShowHideWindows hides all the windows if all of them are visible, and
// shows all of them otherwise.
func (p *Panel) ShowHideWindows(ctx context.Context) {
	windows := p.Windows(ctx)

	allVisible := len(windows) > 0
	for _, w := range windows {
		if !w.IsVisible() {
			allVisible = false
			break
		}
	}

	logger.Debugf(ctx, "ShowHideWindows: all visible: %v", allVisible)
	for _, w := range windows {
		if allVisible {
			w.Hide(ctx)
		} else {
			w.Show(ctx)
		}
	}
}

// Serve tries to become the activation target of the display and serves
// activation messages until ctx is done. If another instance owns the
// display, Serve just waits: the panel keeps working without being the
// activation target.
func (p *Panel) Serve(ctx context.Context) error {
	receiver, err := p.Registrar.TryClaim(ctx, p.DisplayOrdinal)
	switch {
	case err == nil:
	case errors.Is(err, instance.ErrAlreadyOwned):
		logger.Infof(ctx, "another instance is already the activation target of display %d", p.DisplayOrdinal)
		<-ctx.Done()
		return nil
	case errors.Is(err, instance.ErrReceiverCreationFailed):
		logger.Errorf(ctx, "continuing without being an activation target: %v", err)
		<-ctx.Done()
		return nil
	default:
		return fmt.Errorf("unable to claim display %d: %w", p.DisplayOrdinal, err)
	}
	defer func() {
		if err := p.Registrar.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Errorf(ctx, "%v", err)
		}
	}()

	ctx = belt.WithField(ctx, "receiver", receiver.ID())
	err = p.Listener.Serve(ctx, receiver)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
