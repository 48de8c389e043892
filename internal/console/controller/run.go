package controller

import (
	"context"
	stderrors "errors"
	"fmt"

	"gradedesk/internal/console/render"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	msgRunning   = "執行測試中..."
	msgRunFailed = "執行失敗: "
)

// RunOne runs the tests of name and applies the result to the table and, if
// name is open, to the problem view.
func (c *Controller) RunOne(ctx context.Context, name string) error {
	if !c.reg.Has(name) {
		return pkgerrors.ProblemMissing(name)
	}
	ctx = logger.WithProblem(ctx, name)

	c.surface.SetHTML(view.RowStatus(name), render.RunningIcon())
	c.whileOpen(name, func() {
		c.surface.SetHTML(view.Results, render.Loading(msgRunning))
	})

	res, err := c.backend.Run(ctx, name)
	if err != nil {
		logger.Error(ctx, "run tests failed", zap.Error(err))
		c.surface.SetHTML(view.RowStatus(name), render.RunFailedIcon())
		c.whileOpen(name, func() {
			c.surface.SetHTML(view.Results, render.ErrorNotice(msgRunFailed+err.Error()))
		})
		return err
	}

	c.reg.ApplyRun(name, res, false)
	c.renderTable()
	c.refreshOpen(name)
	logger.Info(ctx, "tests finished",
		zap.Int("passed", res.PassedCount),
		zap.Int("total", res.TotalCount),
		zap.Float64("score", res.Score))
	return nil
}

// RunAll runs every problem in list order. A failing run does not stop the
// remaining ones; all failures are returned joined.
func (c *Controller) RunAll(ctx context.Context) error {
	var errs []error
	for _, name := range c.reg.Names() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.RunOne(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// RerunCurrent runs the open problem.
func (c *Controller) RerunCurrent(ctx context.Context) error {
	name := c.openProblem()
	if name == "" {
		return noProblemOpen()
	}
	return c.RunOne(ctx, name)
}

// RunFromEditor saves unsaved edits, then runs the open problem bounded by
// RunTimeout. A failed save is alerted but does not prevent the run.
func (c *Controller) RunFromEditor(ctx context.Context) error {
	name := c.openProblem()
	if name == "" {
		return noProblemOpen()
	}
	ctx = logger.WithProblem(ctx, name)

	c.mu.Lock()
	dirty := c.saveEnabled
	c.mu.Unlock()
	if dirty {
		if err := c.SaveCode(ctx); err != nil {
			logger.Warn(ctx, "save before run failed", zap.Error(err))
		}
	}

	c.whileOpen(name, func() {
		c.surface.SetHTML(view.Results, render.Loading(msgRunning))
	})

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.RunTimeout)
	defer cancel()

	res, err := c.backend.Run(runCtx, name)
	if err != nil {
		msg := msgRunFailed + err.Error()
		if ctx.Err() == nil && (stderrors.Is(runCtx.Err(), context.DeadlineExceeded) || pkgerrors.Is(err, pkgerrors.Timeout)) {
			msg = c.timeoutMessage()
			err = pkgerrors.Wrap(err, pkgerrors.RunTimeout)
		}
		logger.Error(ctx, "run from editor failed", zap.Error(err))
		c.whileOpen(name, func() {
			c.surface.SetHTML(view.Results, render.ErrorNotice(msg))
		})
		return err
	}

	c.reg.ApplyRun(name, res, true)
	c.renderTable()
	c.refreshOpen(name)
	return nil
}

func (c *Controller) timeoutMessage() string {
	return fmt.Sprintf("執行逾時（超過%d秒）", int(c.cfg.RunTimeout.Seconds()))
}

// refreshOpen re-renders the results and header badge of name if it is open.
func (c *Controller) refreshOpen(name string) {
	summary, ok := c.reg.Get(name)
	if !ok {
		return
	}
	c.whileOpen(name, func() {
		c.surface.SetHTML(view.Results, resultsHTML(summary.Details))
		if c.info != nil {
			c.surface.SetHTML(view.HeaderInfo, render.HeaderInfo(*c.info, summary))
		}
	})
}
