package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gradedesk/internal/cli/command"
	"gradedesk/pkg/utils/logger"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"go.uber.org/zap"
)

const defaultPrompt = "gradedesk> "

// PromptFunc asks the user for one value.
type PromptFunc func(prompt string) (string, error)

// Session holds REPL state.
type Session struct {
	commands map[string]command.Command
	env      *command.Env
	out      io.Writer
	prompt   PromptFunc
}

func New(commands map[string]command.Command, env *command.Env) *Session {
	return &Session{
		commands: commands,
		env:      env,
		out:      env.Out,
	}
}

// SetPrompter installs the function used to ask for missing arguments.
func (s *Session) SetPrompter(fn PromptFunc) {
	s.prompt = fn
}

// Run reads lines until exit, EOF or ctx is done.
func (s *Session) Run(ctx context.Context, historyPath string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultPrompt,
		HistoryFile:     historyPath,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer rl.Close()

	s.out = rl.Stdout()
	s.env.Out = s.out
	if s.prompt == nil {
		s.prompt = func(prompt string) (string, error) {
			rl.SetPrompt(prompt + ": ")
			defer rl.SetPrompt(defaultPrompt)
			line, err := rl.Readline()
			if err != nil {
				return "", fmt.Errorf("read input failed: %w", err)
			}
			return strings.TrimSpace(line), nil
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		exit, err := s.Execute(ctx, line)
		if err != nil {
			s.printLine("error: %v", err)
		}
		if exit {
			return nil
		}
	}
}

// Execute runs a single input line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return false, nil
	}
	if exit, handled := s.handleSystemCommand(tokens); handled {
		return exit, nil
	}

	cmd, ok := s.commands[strings.ToLower(tokens[0])]
	if !ok {
		return false, fmt.Errorf("unknown command: %s (try help)", tokens[0])
	}
	params, missing, err := command.Bind(cmd, tokens[1:])
	if err != nil {
		return false, err
	}
	if err := s.promptMissing(params, missing); err != nil {
		return false, err
	}

	logger.Debug(ctx, "run command", zap.String("command", cmd.Name))
	runErr := cmd.Run(ctx, s.env, params)
	s.printAlerts()
	return false, runErr
}

func (s *Session) handleSystemCommand(tokens []string) (exit bool, handled bool) {
	switch strings.ToLower(tokens[0]) {
	case "exit", "quit":
		s.printLine("bye")
		return true, true
	case "help":
		if len(tokens) > 1 {
			if cmd, ok := s.commands[strings.ToLower(tokens[1])]; ok {
				s.printLine("usage: %s", cmd.Usage())
				s.printLine("  %s", cmd.Summary)
				return false, true
			}
		}
		s.printHelp()
		return false, true
	}
	return false, false
}

func (s *Session) promptMissing(params command.Params, missing []command.Arg) error {
	for _, arg := range missing {
		if s.prompt == nil {
			return fmt.Errorf("missing argument: %s", arg.Name)
		}
		label := arg.Prompt
		if label == "" {
			label = arg.Name
		}
		value, err := s.prompt(label)
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("missing argument: %s", arg.Name)
		}
		params.Set(arg.Name, value)
	}
	return nil
}

func (s *Session) printAlerts() {
	for _, msg := range s.env.Board.Alerts() {
		s.printLine("%s", msg)
	}
}

func (s *Session) completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(s.commands)+3)
	for _, name := range command.Names(s.commands) {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"), readline.PcItem("quit"))
	return readline.NewPrefixCompleter(items...)
}

func (s *Session) printHelp() {
	s.printLine("usage: <command> [args...]")
	s.printLine("system: help [command] | exit")
	for _, name := range command.Names(s.commands) {
		cmd := s.commands[name]
		s.printLine("  %-28s %s", cmd.Usage(), cmd.Summary)
	}
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
