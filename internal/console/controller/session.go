package controller

import (
	"context"
	"fmt"

	"gradedesk/internal/console/model"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/render"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	PushLabel     = "推送到 GitHub"
	msgPushing    = "推送中..."
	msgHelpFailed = "Failed to load help."
)

// OpenPushConfirm shows the push confirmation dialog.
func (c *Controller) OpenPushConfirm() {
	c.surface.SetVisible(view.PushConfirm, true)
}

// ClosePushConfirm hides the push confirmation dialog.
func (c *Controller) ClosePushConfirm() {
	c.surface.SetVisible(view.PushConfirm, false)
}

// ConfirmPush pushes the working tree through the backend. The push button is
// disabled for the duration of the call and every outcome is alerted.
func (c *Controller) ConfirmPush(ctx context.Context, message string) error {
	c.ClosePushConfirm()
	if message == "" {
		message = model.DefaultCommitMessage
	}
	ctx = logger.WithAction(ctx, "push")

	c.surface.SetEnabled(view.PushButton, false)
	c.surface.SetText(view.PushButton, msgPushing)
	defer func() {
		c.surface.SetText(view.PushButton, PushLabel)
		c.surface.SetEnabled(view.PushButton, true)
	}()

	res, err := c.backend.Push(ctx, message)
	if err != nil {
		logger.Error(ctx, "push request failed", zap.Error(err))
		c.surface.Alert(fmt.Sprintf("❌ 錯誤\n\n無法連接到伺服器: %s", err.Error()))
		return err
	}
	if !res.Success {
		logger.Warn(ctx, "push rejected", zap.String("reason", res.Error))
		c.surface.Alert(fmt.Sprintf("❌ 失敗\n\n%s\n\n%s\n\n請檢查:\n1. 是否已設定 git remote\n2. 是否有網路連線\n3. 是否有權限 push 到遠端",
			res.Error, res.Details))
		return pkgerrors.New(pkgerrors.PushRejected).WithMessage(res.Error)
	}
	logger.Info(ctx, "push succeeded", zap.String("commit_message", message))
	c.surface.Alert(fmt.Sprintf("✅ 成功！\n\n%s\n\n詳細資訊:\n%s", res.Message, res.Details))
	return nil
}

// OpenHelp shows the help overlay and loads its body.
func (c *Controller) OpenHelp(ctx context.Context) error {
	c.surface.SetVisible(view.HelpOverlay, true)
	c.surface.SetHTML(view.HelpBody, render.Loading(msgLoading))

	md, err := c.backend.HelpMarkdown(ctx)
	if err != nil {
		logger.Error(ctx, "load help failed", zap.Error(err))
		c.surface.SetHTML(view.HelpBody, render.ErrorNotice(msgHelpFailed))
		return err
	}
	c.surface.SetHTML(view.HelpBody, render.Help(md))
	return nil
}

// CloseHelp hides the help overlay.
func (c *Controller) CloseHelp() {
	c.surface.SetVisible(view.HelpOverlay, false)
}

// ToggleTheme flips between light and dark and persists the choice. The new
// theme is applied even when persisting fails.
func (c *Controller) ToggleTheme(ctx context.Context) (prefs.Theme, error) {
	c.mu.Lock()
	c.theme = c.theme.Toggle()
	theme := c.theme
	c.mu.Unlock()

	c.applyTheme(theme)
	if err := c.prefs.SetTheme(ctx, theme); err != nil {
		logger.Warn(ctx, "persist theme failed", zap.String("theme", string(theme)), zap.Error(err))
		return theme, err
	}
	return theme, nil
}

// Theme returns the active theme.
func (c *Controller) Theme() prefs.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}
