package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/view"
)

const defaultSettleTimeout = 5 * time.Second

// ArgType describes how a positional argument is read.
type ArgType int

const (
	ArgString ArgType = iota
	// ArgRest consumes every remaining token, joined by spaces.
	ArgRest
	// ArgFile names a file whose content is read.
	ArgFile
)

// Arg defines one positional argument.
type Arg struct {
	Name     string
	Prompt   string
	Type     ArgType
	Required bool
}

// Command defines a REPL verb.
type Command struct {
	Name    string
	Aliases []string
	Summary string
	Args    []Arg
	Run     func(ctx context.Context, env *Env, params Params) error
}

// Usage renders "name <required> [optional]".
func (c Command) Usage() string {
	parts := []string{c.Name}
	for _, arg := range c.Args {
		label := arg.Name
		if arg.Type == ArgRest {
			label += "..."
		}
		if arg.Required {
			parts = append(parts, "<"+label+">")
		} else {
			parts = append(parts, "["+label+"]")
		}
	}
	return strings.Join(parts, " ")
}

// Params holds bound arguments by name.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

// Bind assigns positional tokens to the command's arguments. Missing required
// arguments are returned so the caller can prompt for them.
func Bind(cmd Command, tokens []string) (Params, []Arg, error) {
	params := Params{}
	i := 0
	for _, arg := range cmd.Args {
		if i >= len(tokens) {
			break
		}
		if arg.Type == ArgRest {
			params.Set(arg.Name, strings.Join(tokens[i:], " "))
			i = len(tokens)
			break
		}
		params.Set(arg.Name, tokens[i])
		i++
	}
	if i < len(tokens) {
		return nil, nil, fmt.Errorf("too many arguments, usage: %s", cmd.Usage())
	}

	var missing []Arg
	for _, arg := range cmd.Args {
		if arg.Required && params.Get(arg.Name) == "" {
			missing = append(missing, arg)
		}
	}
	return params, missing, nil
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}

// Env is what commands operate on.
type Env struct {
	Ctrl          *controller.Controller
	Board         *view.Board
	Out           io.Writer
	SettleTimeout time.Duration
}

func (e *Env) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(e.Out, format+"\n", args...)
}

// Settle waits for editor construction and deferred code loading triggered
// by the last command.
func (e *Env) Settle(ctx context.Context) error {
	timeout := e.SettleTimeout
	if timeout <= 0 {
		timeout = defaultSettleTimeout
	}
	if e.Ctrl.Editor().State() != editor.Uninitialized {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := e.Ctrl.Editor().Wait(waitCtx); err != nil {
			return fmt.Errorf("editor not ready: %w", err)
		}
	}
	e.Ctrl.Wait()
	return nil
}
