package controller

import (
	"context"
	"html/template"
	"time"

	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/model"
	"gradedesk/internal/console/render"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	msgLoading        = "載入中..."
	msgNotRun         = "尚未執行測試"
	msgNoResults      = "沒有測試結果"
	msgInfoFailed     = "無法載入題目資訊。"
	editorPlaceholder = "// Loading..."
)

// OpenProblem shows the problem view for name in lang ("" is the default
// language). The view is reset before the info fetch starts; when the fetch
// completes its result is applied only if no other open or close happened
// in between.
func (c *Controller) OpenProblem(ctx context.Context, name, lang string) error {
	summary, ok := c.reg.Get(name)
	if !ok {
		return pkgerrors.ProblemMissing(name)
	}
	ctx = logger.WithProblem(ctx, name)

	c.mu.Lock()
	c.current = name
	c.lang = lang
	c.viewOpen = true
	c.openSeq++
	seq := c.openSeq
	c.info = nil
	c.saveEnabled = false
	theme := c.theme
	c.mu.Unlock()

	c.surface.SetText(view.ViewTitle, summary.Title())
	c.surface.SetVisible(view.ProblemView, true)
	c.updateNavButtons(name)
	c.surface.SetEnabled(view.SaveButton, false)
	c.surface.SetHTML(view.Results, render.Notice(msgNotRun))
	c.surface.SetHTML(view.Description, render.Loading(msgLoading))

	c.prepareEditor(ctx, theme.EditorTheme())

	info, err := c.backend.ProblemInfo(ctx, name, lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.openSeq {
		logger.Debug(ctx, "discarding stale problem info", zap.String("lang", lang))
		return nil
	}
	if err != nil {
		logger.Error(ctx, "load problem info failed", zap.String("lang", lang), zap.Error(err))
		c.surface.SetHTML(view.Description, render.Notice(msgInfoFailed))
		return err
	}
	c.info = info

	selector, visible := render.LanguageSelector(info.AvailableLangs, lang)
	c.surface.SetHTML(view.LangSelector, selector)
	c.surface.SetVisible(view.LangSelector, visible)

	summary, _ = c.reg.Get(name)
	c.surface.SetHTML(view.HeaderInfo, render.HeaderInfo(*info, summary))
	c.surface.SetHTML(view.Description, render.Description(*info))
	if summary.HasRun {
		c.surface.SetHTML(view.Results, resultsHTML(summary.Details))
	} else {
		c.surface.SetHTML(view.Results, render.PendingCases(info.TestCases))
	}
	return nil
}

// prepareEditor starts the widget on first use. When it is already ready,
// layout and code loading wait LayoutDelay so the view is visible first.
func (c *Controller) prepareEditor(ctx context.Context, theme string) {
	switch c.editor.State() {
	case editor.Uninitialized:
		c.editor.Init(ctx, editor.Options{
			Value:    editorPlaceholder,
			Language: c.cfg.EditorLanguage,
			Theme:    theme,
		})
	case editor.Ready:
		bg := context.WithoutCancel(ctx)
		c.deferred.Add(1)
		time.AfterFunc(c.cfg.LayoutDelay, func() {
			defer c.deferred.Done()
			c.editor.Layout()
			if name := c.openProblem(); name != "" {
				_ = c.LoadCode(logger.WithProblem(bg, name), name)
			}
		})
	}
}

// editorReady loads the open problem's code once the widget exists.
func (c *Controller) editorReady(ctx context.Context) {
	if name := c.openProblem(); name != "" {
		_ = c.LoadCode(logger.WithProblem(ctx, name), name)
	}
}

// CloseProblem hides the problem view and refreshes the table.
func (c *Controller) CloseProblem() {
	c.mu.Lock()
	c.viewOpen = false
	c.listOpen = false
	c.openSeq++
	c.mu.Unlock()

	c.surface.SetVisible(view.ProblemView, false)
	c.surface.SetVisible(view.ProblemList, false)
	c.renderTable()
}

// SwitchLanguage reopens the current problem in lang. Run results in the
// registry are untouched.
func (c *Controller) SwitchLanguage(ctx context.Context, lang string) error {
	name := c.openProblem()
	if name == "" {
		return noProblemOpen()
	}
	return c.OpenProblem(ctx, name, lang)
}

// PrevProblem opens the previous problem in list order. No-op at the start.
func (c *Controller) PrevProblem(ctx context.Context) error {
	return c.step(ctx, -1)
}

// NextProblem opens the next problem in list order. No-op at the end.
func (c *Controller) NextProblem(ctx context.Context) error {
	return c.step(ctx, 1)
}

func (c *Controller) step(ctx context.Context, delta int) error {
	name := c.openProblem()
	if name == "" {
		return nil
	}
	next, ok := c.reg.Neighbor(name, delta)
	if !ok {
		return nil
	}
	return c.OpenProblem(ctx, next, "")
}

// ToggleProblemList shows or hides the navigation dropdown.
func (c *Controller) ToggleProblemList() bool {
	c.mu.Lock()
	c.listOpen = !c.listOpen
	open := c.listOpen
	current := c.current
	if open {
		c.surface.SetHTML(view.ProblemList, render.ProblemList(c.reg.List(), current))
	}
	c.surface.SetVisible(view.ProblemList, open)
	c.mu.Unlock()
	return open
}

// SelectProblem opens name from the dropdown and closes the dropdown.
func (c *Controller) SelectProblem(ctx context.Context, name string) error {
	if !c.reg.Has(name) {
		return pkgerrors.ProblemMissing(name)
	}
	c.mu.Lock()
	c.listOpen = false
	c.mu.Unlock()
	c.surface.SetVisible(view.ProblemList, false)
	return c.OpenProblem(ctx, name, "")
}

// Relayout forwards a resize to the editor.
func (c *Controller) Relayout() {
	c.editor.Layout()
}

func resultsHTML(details model.Details) template.HTML {
	if len(details) == 0 {
		return render.Notice(msgNoResults)
	}
	return render.TestResults(details)
}
