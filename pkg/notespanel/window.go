package notespanel

import (
	"context"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Window is a note window managed by the panel. Rendering and note content
// belong to the implementation.
type Window interface {
	Name() string
	IsVisible() bool
	Show(ctx context.Context)
	Hide(ctx context.Context)
}

type headlessWindow struct {
	name    string
	visible atomic.Bool
}

var _ Window = (*headlessWindow)(nil)

// NewHeadlessWindow returns a Window that only tracks its visibility.
func NewHeadlessWindow(name string) Window {
	return &headlessWindow{name: name}
}

func (w *headlessWindow) Name() string {
	return w.name
}

func (w *headlessWindow) IsVisible() bool {
	return w.visible.Load()
}

func (w *headlessWindow) Show(ctx context.Context) {
	if !w.visible.Swap(true) {
		logger.Infof(ctx, "window '%s' is shown", w.name)
	}
}

func (w *headlessWindow) Hide(ctx context.Context) {
	if w.visible.Swap(false) {
		logger.Infof(ctx, "window '%s' is hidden", w.name)
	}
}
