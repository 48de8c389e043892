package editor

import (
	"context"
	"sync"
	"time"
)

// Buffer is the in-process widget used by the web console and the CLI.
// The browser or terminal pushes user edits through Edit.
type Buffer struct {
	mu        sync.Mutex
	content   string
	language  string
	theme     string
	layouts   int
	listeners []func(Change)
}

// NewBuffer creates a buffer from construction options.
func NewBuffer(opts Options) *Buffer {
	return &Buffer{content: opts.Value, language: opts.Language, theme: opts.Theme}
}

// BufferLoader returns a Loader building a Buffer after delay, which stands in
// for fetching the widget bundle. The delay is cut short when ctx ends.
func BufferLoader(delay time.Duration) Loader {
	return func(ctx context.Context, opts Options) (Widget, error) {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return NewBuffer(opts), nil
	}
}

func (b *Buffer) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// SetValue replaces the content and notifies listeners with a flush change,
// like a real editor model.
func (b *Buffer) SetValue(content string) {
	b.mu.Lock()
	b.content = content
	listeners := append([]func(Change){}, b.listeners...)
	b.mu.Unlock()
	notify(listeners, Change{Flush: true})
}

// Edit applies a user edit. Unchanged content is not reported.
func (b *Buffer) Edit(content string) {
	b.mu.Lock()
	if b.content == content {
		b.mu.Unlock()
		return
	}
	b.content = content
	listeners := append([]func(Change){}, b.listeners...)
	b.mu.Unlock()
	notify(listeners, Change{})
}

func notify(listeners []func(Change), ch Change) {
	for _, fn := range listeners {
		fn(ch)
	}
}

func (b *Buffer) OnChange(fn func(Change)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

func (b *Buffer) Layout() {
	b.mu.Lock()
	b.layouts++
	b.mu.Unlock()
}

// Layouts returns how many times Layout was called.
func (b *Buffer) Layouts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layouts
}

func (b *Buffer) SetTheme(theme string) {
	b.mu.Lock()
	b.theme = theme
	b.mu.Unlock()
}

func (b *Buffer) Theme() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.theme
}

func (b *Buffer) Language() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.language
}
