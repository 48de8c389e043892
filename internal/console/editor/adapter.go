// Package editor wraps the code editor widget behind a lazy, one-shot lifecycle.
package editor

import (
	"context"
	"sync"

	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

// Change describes one content change. Flush is set when the whole content
// was replaced through SetValue rather than typed by the user.
type Change struct {
	Flush bool
}

// Widget is the editor surface. Implementations are opaque to the console.
type Widget interface {
	Value() string
	SetValue(content string)
	OnChange(fn func(Change))
	Layout()
	SetTheme(theme string)
}

// Options configure widget construction.
type Options struct {
	Value    string
	Language string
	Theme    string
}

// Loader constructs the widget. It may block; the adapter runs it off the caller's goroutine.
type Loader func(ctx context.Context, opts Options) (Widget, error)

// State is the adapter lifecycle. It only moves forward.
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Adapter owns the widget lifecycle.
type Adapter struct {
	loader Loader

	mu        sync.Mutex
	state     State
	widget    Widget
	theme     string
	onReady   func(ctx context.Context)
	onChange  func()
	onFailure func(ctx context.Context, err error)
	done      chan struct{}
}

// NewAdapter creates an uninitialized adapter.
func NewAdapter(loader Loader) *Adapter {
	return &Adapter{loader: loader, done: make(chan struct{})}
}

// OnReady registers the hook called once the widget is ready.
func (a *Adapter) OnReady(fn func(ctx context.Context)) {
	a.mu.Lock()
	a.onReady = fn
	a.mu.Unlock()
}

// OnChange registers the hook called on user edits.
func (a *Adapter) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// OnFailure registers the hook called when the widget cannot be loaded.
func (a *Adapter) OnFailure(fn func(ctx context.Context, err error)) {
	a.mu.Lock()
	a.onFailure = fn
	a.mu.Unlock()
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Ready reports whether the widget can be used.
func (a *Adapter) Ready() bool {
	return a.State() == Ready
}

// Init starts widget construction. Only the first call does anything; it
// returns true when this call started the construction.
func (a *Adapter) Init(ctx context.Context, opts Options) bool {
	a.mu.Lock()
	if a.state != Uninitialized {
		a.mu.Unlock()
		return false
	}
	a.state = Initializing
	if opts.Theme == "" {
		opts.Theme = a.theme
	}
	a.mu.Unlock()

	go a.construct(context.WithoutCancel(ctx), opts)
	return true
}

func (a *Adapter) construct(ctx context.Context, opts Options) {
	defer close(a.done)

	w, err := a.loader(ctx, opts)
	if err == nil && w == nil {
		err = pkgerrors.New(pkgerrors.WidgetLoadFailed)
	}
	if err != nil {
		a.mu.Lock()
		a.state = Failed
		onFailure := a.onFailure
		a.mu.Unlock()
		logger.Error(ctx, "editor widget load failed", zap.Error(err))
		if onFailure != nil {
			onFailure(ctx, pkgerrors.Wrap(err, pkgerrors.WidgetLoadFailed))
		}
		return
	}

	w.OnChange(a.changed)

	a.mu.Lock()
	if a.theme != "" && a.theme != opts.Theme {
		w.SetTheme(a.theme)
	}
	a.widget = w
	a.state = Ready
	onReady := a.onReady
	a.mu.Unlock()

	logger.Info(ctx, "editor widget ready")
	if onReady != nil {
		onReady(ctx)
	}
}

func (a *Adapter) changed(ch Change) {
	if ch.Flush {
		return
	}
	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Wait blocks until construction finished or ctx is done.
func (a *Adapter) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Widget returns the widget, or nil before Ready.
func (a *Adapter) Widget() Widget {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.widget
}

// Value returns the editor content.
func (a *Adapter) Value() (string, error) {
	w := a.Widget()
	if w == nil {
		return "", pkgerrors.New(pkgerrors.EditorNotReady)
	}
	return w.Value(), nil
}

// SetValue replaces the editor content without reporting an edit.
func (a *Adapter) SetValue(content string) error {
	w := a.Widget()
	if w == nil {
		return pkgerrors.New(pkgerrors.EditorNotReady)
	}
	w.SetValue(content)
	return nil
}

// Layout asks the widget to recompute its size. No-op before Ready.
func (a *Adapter) Layout() {
	if w := a.Widget(); w != nil {
		w.Layout()
	}
}

// SetTheme records the theme and applies it once the widget exists.
func (a *Adapter) SetTheme(theme string) {
	a.mu.Lock()
	a.theme = theme
	w := a.widget
	a.mu.Unlock()
	if w != nil {
		w.SetTheme(theme)
	}
}
