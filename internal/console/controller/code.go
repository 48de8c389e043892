package controller

import (
	"context"

	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	msgCodeFailed = "// Failed to load code"
	msgSaveFailed = "儲存失敗: "
)

// LoadCode fetches the source of name into the editor. The content is
// dropped if another problem was opened meanwhile.
func (c *Controller) LoadCode(ctx context.Context, name string) error {
	if !c.editor.Ready() {
		return pkgerrors.New(pkgerrors.EditorNotReady)
	}
	content, err := c.backend.Code(ctx, name)
	if err != nil {
		logger.Error(ctx, "load code failed", zap.Error(err))
		if c.openProblem() == name {
			_ = c.editor.SetValue(msgCodeFailed)
		}
		return err
	}
	if c.openProblem() != name {
		logger.Debug(ctx, "discarding code for closed problem")
		return nil
	}
	if content == "" {
		return nil
	}
	if err := c.editor.SetValue(content); err != nil {
		return err
	}
	c.setSaveEnabled(false)
	return nil
}

// EditorChanged marks the buffer dirty.
func (c *Controller) EditorChanged() {
	if c.openProblem() == "" {
		return
	}
	c.setSaveEnabled(true)
}

// SaveCode writes the editor content of the open problem to the backend.
// Failures are alerted and returned.
func (c *Controller) SaveCode(ctx context.Context) error {
	name := c.openProblem()
	if name == "" {
		return noProblemOpen()
	}
	ctx = logger.WithProblem(ctx, name)

	content, err := c.editor.Value()
	if err != nil {
		return err
	}
	res, err := c.backend.SaveCode(ctx, name, content)
	if err != nil {
		logger.Error(ctx, "save code failed", zap.Error(err))
		c.surface.Alert(msgSaveFailed + err.Error())
		return err
	}
	if !res.Success {
		logger.Warn(ctx, "save code rejected", zap.String("reason", res.Error))
		c.surface.Alert(msgSaveFailed + res.Error)
		return pkgerrors.New(pkgerrors.SaveRejected).WithMessage(res.Error)
	}
	if c.openProblem() == name {
		c.setSaveEnabled(false)
	}
	logger.Info(ctx, "code saved", zap.Int("bytes", len(content)))
	return nil
}

// SaveEnabled reports whether the editor holds unsaved edits.
func (c *Controller) SaveEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveEnabled
}
