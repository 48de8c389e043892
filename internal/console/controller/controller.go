// Package controller owns the console session: which problem is open, in which
// language, and how backend responses are applied to the view.
package controller

import (
	"context"
	"sync"
	"time"

	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/model"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/registry"
	"gradedesk/internal/console/render"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	DefaultRunTimeout     = 30 * time.Second
	DefaultLayoutDelay    = 50 * time.Millisecond
	DefaultEditorLanguage = "cpp"
)

// Backend is the grading backend as seen by the controller.
type Backend interface {
	ListProblems(ctx context.Context) (*model.ProblemList, error)
	ProblemInfo(ctx context.Context, name, lang string) (*model.ProblemInfo, error)
	Run(ctx context.Context, name string) (*model.RunResult, error)
	Code(ctx context.Context, name string) (string, error)
	SaveCode(ctx context.Context, name, content string) (*model.SaveResult, error)
	Push(ctx context.Context, message string) (*model.PushResult, error)
	HelpMarkdown(ctx context.Context) (string, error)
}

// Config tunes controller timing.
type Config struct {
	RunTimeout     time.Duration
	LayoutDelay    time.Duration
	EditorLanguage string
}

func (c *Config) applyDefaults() {
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.LayoutDelay < 0 {
		c.LayoutDelay = 0
	}
	if c.LayoutDelay == 0 {
		c.LayoutDelay = DefaultLayoutDelay
	}
	if c.EditorLanguage == "" {
		c.EditorLanguage = DefaultEditorLanguage
	}
}

// Controller is safe for concurrent use. Its mutex is never held across a
// backend call.
type Controller struct {
	backend Backend
	reg     *registry.Registry
	surface view.Surface
	editor  *editor.Adapter
	prefs   prefs.Store
	cfg     Config

	mu             sync.Mutex
	appTitle       string
	appDescription string
	current        string
	lang           string
	viewOpen       bool
	listOpen       bool
	// openSeq increments on every open and close. An info fetch only applies
	// while its sequence number is still the latest.
	openSeq     uint64
	info        *model.ProblemInfo
	saveEnabled bool
	theme       prefs.Theme

	deferred sync.WaitGroup
}

// New wires a controller and registers itself on the editor adapter hooks.
func New(backend Backend, surface view.Surface, adapter *editor.Adapter, store prefs.Store, cfg Config) *Controller {
	cfg.applyDefaults()
	c := &Controller{
		backend: backend,
		reg:     registry.New(),
		surface: surface,
		editor:  adapter,
		prefs:   store,
		cfg:     cfg,
		theme:   prefs.Light,
	}
	adapter.OnReady(c.editorReady)
	adapter.OnChange(c.EditorChanged)
	adapter.OnFailure(func(ctx context.Context, err error) {
		c.surface.SetHTML(view.Editor, render.ErrorNotice(err.Error()))
	})
	return c
}

// Registry exposes the problem registry for read access.
func (c *Controller) Registry() *registry.Registry {
	return c.reg
}

// Editor exposes the editor adapter.
func (c *Controller) Editor() *editor.Adapter {
	return c.editor
}

// Wait blocks until deferred editor work scheduled by OpenProblem has run.
func (c *Controller) Wait() {
	c.deferred.Wait()
}

// Init applies the stored theme and loads the problem list.
func (c *Controller) Init(ctx context.Context) error {
	theme, err := c.prefs.Theme(ctx)
	if err != nil {
		logger.Warn(ctx, "read theme preference failed, using light", zap.Error(err))
		theme = prefs.Light
	}
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
	c.applyTheme(theme)
	return c.LoadAll(ctx)
}

// LoadAll replaces the registry with the backend's problem list.
func (c *Controller) LoadAll(ctx context.Context) error {
	list, err := c.backend.ListProblems(ctx)
	if err != nil {
		logger.Error(ctx, "load problem list failed", zap.Error(err))
		return err
	}
	c.reg.Replace(list.Problems)

	c.mu.Lock()
	c.appTitle = list.AppTitle
	c.appDescription = list.AppDescription
	closed := false
	if c.current != "" && !c.reg.Has(c.current) {
		c.current = ""
		c.viewOpen = false
		c.info = nil
		c.openSeq++
		closed = true
	}
	c.mu.Unlock()

	if list.AppTitle != "" {
		c.surface.SetText(view.PageTitle, list.AppTitle)
	}
	if list.AppDescription != "" {
		c.surface.SetText(view.AppDescription, list.AppDescription)
	}
	if closed {
		c.surface.SetVisible(view.ProblemView, false)
	}
	c.renderTable()
	logger.Info(ctx, "problem list loaded", zap.Int("count", c.reg.Len()))
	return nil
}

// renderTable refreshes the table, the progress panel and an open dropdown.
func (c *Controller) renderTable() {
	problems := c.reg.List()
	c.surface.SetHTML(view.TableBody, render.Table(problems))
	c.surface.SetHTML(view.Progress, render.Progress(c.reg.Stats()))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listOpen {
		c.surface.SetHTML(view.ProblemList, render.ProblemList(problems, c.current))
	}
}

// whileOpen runs fn under the session lock if name is the open problem.
func (c *Controller) whileOpen(name string, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.viewOpen || c.current != name {
		return false
	}
	fn()
	return true
}

// openProblem returns the open problem name, or "" when the view is closed.
func (c *Controller) openProblem() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.viewOpen {
		return ""
	}
	return c.current
}

func (c *Controller) updateNavButtons(name string) {
	idx := c.reg.Index(name)
	c.surface.SetEnabled(view.PrevButton, idx > 0)
	c.surface.SetEnabled(view.NextButton, idx != -1 && idx < c.reg.Len()-1)
}

func (c *Controller) setSaveEnabled(enabled bool) {
	c.mu.Lock()
	c.saveEnabled = enabled
	c.mu.Unlock()
	c.surface.SetEnabled(view.SaveButton, enabled)
}

func (c *Controller) applyTheme(theme prefs.Theme) {
	c.surface.SetText(view.Theme, string(theme))
	c.editor.SetTheme(theme.EditorTheme())
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	AppTitle       string
	AppDescription string
	Problems       []model.ProblemSummary
	Stats          registry.Stats
	Current        string
	Lang           string
	ViewOpen       bool
	ListOpen       bool
	Info           *model.ProblemInfo
	SaveEnabled    bool
	Theme          prefs.Theme
	EditorState    editor.State
}

// Snapshot returns the session state for read-only consumers.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		AppTitle:       c.appTitle,
		AppDescription: c.appDescription,
		Current:        c.current,
		Lang:           c.lang,
		ViewOpen:       c.viewOpen,
		ListOpen:       c.listOpen,
		SaveEnabled:    c.saveEnabled,
		Theme:          c.theme,
	}
	if c.info != nil {
		info := *c.info
		snap.Info = &info
	}
	c.mu.Unlock()

	snap.Problems = c.reg.List()
	snap.Stats = c.reg.Stats()
	snap.EditorState = c.editor.State()
	return snap
}

func noProblemOpen() error {
	return pkgerrors.New(pkgerrors.NoProblemOpen)
}
