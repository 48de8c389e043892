package web

import (
	"context"

	"gradedesk/internal/console/model"
	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

type problemURI struct {
	Name string `uri:"name" binding:"required,max=128"`
}

type langURI struct {
	Lang string `uri:"lang" binding:"required,max=16"`
}

type openQuery struct {
	Lang string `form:"lang" binding:"max=16"`
}

type editRequest struct {
	Content *string `json:"content" binding:"required"`
}

type pushRequest struct {
	CommitMessage string `json:"commit_message" binding:"max=200"`
}

// editable is implemented by widgets that accept edits from the browser.
type editable interface {
	Edit(content string)
}

func (s *Server) registerActions(api *gin.RouterGroup) {
	api.POST("/reload", func(c *gin.Context) {
		s.dispatch(c, "reload", s.ctrl.LoadAll)
	})
	api.POST("/run-all", func(c *gin.Context) {
		s.dispatch(c, "run_all", s.ctrl.RunAll)
	})

	problems := api.Group("/problems/:name")
	problems.POST("/run", s.withProblem(func(c *gin.Context, name string) {
		s.dispatch(c, "run", func(ctx context.Context) error { return s.ctrl.RunOne(ctx, name) })
	}))
	problems.POST("/open", s.withProblem(func(c *gin.Context, name string) {
		var q openQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		s.dispatch(c, "open", func(ctx context.Context) error { return s.ctrl.OpenProblem(ctx, name, q.Lang) })
	}))

	viewGroup := api.Group("/view")
	viewGroup.POST("/close", func(c *gin.Context) {
		s.ctrl.CloseProblem()
		response.Success(c, nil)
	})
	viewGroup.POST("/prev", func(c *gin.Context) {
		s.dispatch(c, "prev", s.ctrl.PrevProblem)
	})
	viewGroup.POST("/next", func(c *gin.Context) {
		s.dispatch(c, "next", s.ctrl.NextProblem)
	})
	viewGroup.POST("/rerun", s.requireOpen(func(c *gin.Context) {
		s.dispatch(c, "rerun", s.ctrl.RerunCurrent)
	}))
	viewGroup.POST("/lang/:lang", s.requireOpen(func(c *gin.Context) {
		var uri langURI
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		s.dispatch(c, "switch_lang", func(ctx context.Context) error { return s.ctrl.SwitchLanguage(ctx, uri.Lang) })
	}))

	list := api.Group("/problem-list")
	list.POST("/toggle", func(c *gin.Context) {
		response.Success(c, gin.H{"open": s.ctrl.ToggleProblemList()})
	})
	list.POST("/select/:name", s.withProblem(func(c *gin.Context, name string) {
		s.dispatch(c, "select", func(ctx context.Context) error { return s.ctrl.SelectProblem(ctx, name) })
	}))

	edit := api.Group("/editor")
	edit.PUT("/content", s.requireOpen(s.editContent))
	edit.POST("/save", s.requireOpen(func(c *gin.Context) {
		s.dispatch(c, "save", s.ctrl.SaveCode)
	}))
	edit.POST("/run", s.requireOpen(func(c *gin.Context) {
		s.dispatch(c, "run_from_editor", s.ctrl.RunFromEditor)
	}))
	edit.POST("/layout", func(c *gin.Context) {
		s.ctrl.Relayout()
		response.Success(c, nil)
	})

	push := api.Group("/push")
	push.POST("/confirm", func(c *gin.Context) {
		s.ctrl.OpenPushConfirm()
		response.Success(c, nil)
	})
	push.POST("/cancel", func(c *gin.Context) {
		s.ctrl.ClosePushConfirm()
		response.Success(c, nil)
	})
	push.POST("", func(c *gin.Context) {
		var req pushRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BadRequest(c, err.Error())
				return
			}
		}
		if req.CommitMessage == "" {
			req.CommitMessage = model.DefaultCommitMessage
		}
		s.dispatch(c, "push", func(ctx context.Context) error { return s.ctrl.ConfirmPush(ctx, req.CommitMessage) })
	})

	help := api.Group("/help")
	help.POST("/open", func(c *gin.Context) {
		s.dispatch(c, "help", s.ctrl.OpenHelp)
	})
	help.POST("/close", func(c *gin.Context) {
		s.ctrl.CloseHelp()
		response.Success(c, nil)
	})

	api.POST("/theme/toggle", func(c *gin.Context) {
		s.dispatch(c, "toggle_theme", func(ctx context.Context) error {
			_, err := s.ctrl.ToggleTheme(ctx)
			return err
		})
	})
}

// withProblem binds :name and rejects names the registry does not know.
func (s *Server) withProblem(fn func(c *gin.Context, name string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uri problemURI
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !s.ctrl.Registry().Has(uri.Name) {
			response.Error(c, pkgerrors.ProblemMissing(uri.Name))
			return
		}
		fn(c, uri.Name)
	}
}

func (s *Server) requireOpen(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ctrl.Snapshot().ViewOpen {
			response.Error(c, pkgerrors.New(pkgerrors.NoProblemOpen))
			return
		}
		fn(c)
	}
}

// editContent applies a browser edit to the editor buffer. It runs inline so
// edits are applied in request order.
func (s *Server) editContent(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w, ok := s.ctrl.Editor().Widget().(editable)
	if !ok {
		response.Error(c, pkgerrors.New(pkgerrors.EditorNotReady))
		return
	}
	w.Edit(*req.Content)
	response.Success(c, gin.H{"save_enabled": s.ctrl.SaveEnabled()})
}
