// Package web serves the browser console: a page rendered from the panel
// board, a websocket stream of panel updates and an action API.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/view"
	"gradedesk/pkg/utils/contextkey"
	"gradedesk/pkg/utils/logger"
	"gradedesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
)

const (
	defaultSocketBuffer = 256
	socketPath          = "/ws"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Config holds the console HTTP settings.
type Config struct {
	Addr         string        `yaml:"addr" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	Gzip         bool          `yaml:"gzip"`
	SocketBuffer int           `yaml:"socketBuffer" validate:"gte=0"`
	CORS         CORSConfig    `yaml:"cors"`
}

// Server wires HTTP routes to one controller and its board.
type Server struct {
	cfg   Config
	ctrl  *controller.Controller
	board *view.Board
	base  context.Context
	ready atomic.Bool

	actions sync.WaitGroup
}

// NewServer creates a server. Actions run with base, so cancelling it aborts
// in-flight backend calls.
func NewServer(base context.Context, cfg Config, ctrl *controller.Controller, board *view.Board) *Server {
	if cfg.SocketBuffer <= 0 {
		cfg.SocketBuffer = defaultSocketBuffer
	}
	return &Server{cfg: cfg, ctrl: ctrl, board: board, base: base}
}

// SetReady flips the /readyz answer.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Wait blocks until every dispatched action returned.
func (s *Server) Wait() {
	s.actions.Wait()
}

// HTTPServer builds the net/http server for Config.Addr.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}

// Handler returns the routed handler, gzip-compressed when enabled. The
// websocket route is never wrapped.
func (s *Server) Handler() http.Handler {
	router := s.router()
	if !s.cfg.Gzip {
		return router
	}
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(512))
	if err != nil {
		logger.Error(context.Background(), "init gzip wrapper failed", zap.Error(err))
		return router
	}
	compressed := wrap(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == socketPath {
			router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(pageTemplate)
	router.Use(gin.Recovery())
	router.Use(TraceMiddleware())
	router.Use(CORSMiddleware(s.cfg.CORS))
	router.Use(RequestLogger())

	router.GET("/", s.index)
	router.GET(socketPath, s.socket)
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", func(c *gin.Context) {
		if !s.ready.Load() {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	api := router.Group("/api")
	api.GET("/panels", s.panels)
	api.GET("/state", s.state)
	s.registerActions(api)
	return router
}

func (s *Server) index(c *gin.Context) {
	panels, seq := s.board.Snapshot()
	c.HTML(http.StatusOK, "index.html", pageData{panels: panels, Seq: seq})
}

func (s *Server) panels(c *gin.Context) {
	panels, seq := s.board.Snapshot()
	response.Success(c, gin.H{"seq": seq, "panels": panels})
}

type stateView struct {
	Current     string  `json:"current"`
	Lang        string  `json:"lang"`
	ViewOpen    bool    `json:"view_open"`
	SaveEnabled bool    `json:"save_enabled"`
	Theme       string  `json:"theme"`
	EditorState string  `json:"editor_state"`
	Solved      int     `json:"solved"`
	Total       int     `json:"total"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
}

func (s *Server) state(c *gin.Context) {
	snap := s.ctrl.Snapshot()
	response.Success(c, stateView{
		Current:     snap.Current,
		Lang:        snap.Lang,
		ViewOpen:    snap.ViewOpen,
		SaveEnabled: snap.SaveEnabled,
		Theme:       string(snap.Theme),
		EditorState: snap.EditorState.String(),
		Solved:      snap.Stats.Solved,
		Total:       snap.Stats.Total,
		Score:       snap.Stats.Score,
		MaxScore:    snap.Stats.MaxScore,
	})
}

// actionContext detaches an action from its request while keeping the ids
// that tie its log lines to the request.
func (s *Server) actionContext(c *gin.Context, action string) context.Context {
	ctx := s.base
	if v, ok := c.Get(traceIDContextKey); ok {
		ctx = context.WithValue(ctx, contextkey.TraceID, v)
	}
	if v, ok := c.Get(requestIDContextKey); ok {
		ctx = context.WithValue(ctx, contextkey.RequestID, v)
	}
	return logger.WithAction(ctx, action)
}

// dispatch runs fn on its own goroutine and answers 202. Results reach the
// browser through the panel stream, alerts included, so the alert queue is
// drained once the action is done.
func (s *Server) dispatch(c *gin.Context, action string, fn func(ctx context.Context) error) {
	ctx := s.actionContext(c, action)
	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		defer s.board.Alerts()
		if err := fn(ctx); err != nil {
			logger.Warn(ctx, "console action failed", zap.Error(err))
		}
	}()
	response.Accepted(c, gin.H{"action": action})
}

type pageData struct {
	panels map[view.Target]view.Panel
	Seq    uint64
}

func (p pageData) HTML(target string) template.HTML {
	return p.panels[view.Target(target)].HTML
}

func (p pageData) Text(target string) string {
	return p.panels[view.Target(target)].Text
}

func (p pageData) Hidden(target string) bool {
	return p.panels[view.Target(target)].Hidden
}

func (p pageData) Disabled(target string) bool {
	return p.panels[view.Target(target)].Disabled
}
