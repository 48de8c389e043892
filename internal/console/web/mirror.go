package web

import (
	"context"
	"time"

	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/view"
)

// mirroredBuffer publishes programmatic content changes to the board so the
// browser textarea follows code loads. Browser edits go through Edit and are
// not echoed back.
type mirroredBuffer struct {
	*editor.Buffer
	surface view.Surface
}

func (m *mirroredBuffer) SetValue(content string) {
	m.Buffer.SetValue(content)
	m.surface.SetText(view.EditorValue, content)
}

// MirroredLoader builds buffers whose loaded content is mirrored to surface.
func MirroredLoader(surface view.Surface, delay time.Duration) editor.Loader {
	load := editor.BufferLoader(delay)
	return func(ctx context.Context, opts editor.Options) (editor.Widget, error) {
		w, err := load(ctx, opts)
		if err != nil {
			return nil, err
		}
		buf, ok := w.(*editor.Buffer)
		if !ok {
			return w, nil
		}
		surface.SetText(view.EditorValue, opts.Value)
		return &mirroredBuffer{Buffer: buf, surface: surface}, nil
	}
}
