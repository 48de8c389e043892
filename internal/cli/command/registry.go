package command

import (
	"context"
	"sort"

	"gradedesk/internal/console/render"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
)

// Registry returns all REPL commands keyed by name and alias.
func Registry() map[string]Command {
	commands := []Command{
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Summary: "show the problem table",
			Run:     runList,
		},
		{
			Name:    "reload",
			Summary: "reload the problem list from the backend",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := env.Ctrl.LoadAll(ctx); err != nil {
					return err
				}
				return runList(ctx, env, nil)
			},
		},
		{
			Name:    "open",
			Summary: "open a problem, optionally in a language",
			Args: []Arg{
				{Name: "name", Prompt: "problem name", Type: ArgString, Required: true},
				{Name: "lang", Prompt: "language", Type: ArgString},
			},
			Run: func(ctx context.Context, env *Env, p Params) error {
				if err := env.Ctrl.OpenProblem(ctx, p.Get("name"), p.Get("lang")); err != nil {
					return err
				}
				return showOpened(ctx, env)
			},
		},
		{
			Name:    "close",
			Summary: "close the problem view",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				env.Ctrl.CloseProblem()
				return nil
			},
		},
		{
			Name:    "next",
			Summary: "open the next problem",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := requireOpen(env); err != nil {
					return err
				}
				if err := env.Ctrl.NextProblem(ctx); err != nil {
					return err
				}
				return showOpened(ctx, env)
			},
		},
		{
			Name:    "prev",
			Summary: "open the previous problem",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := requireOpen(env); err != nil {
					return err
				}
				if err := env.Ctrl.PrevProblem(ctx); err != nil {
					return err
				}
				return showOpened(ctx, env)
			},
		},
		{
			Name:    "problems",
			Summary: "show the navigation list",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				snap := env.Ctrl.Snapshot()
				env.Printf("%s", render.TextProblemList(snap.Problems, snap.Current))
				return nil
			},
		},
		{
			Name:    "lang",
			Summary: "switch the open problem's language",
			Args:    []Arg{{Name: "code", Prompt: "language code", Type: ArgString, Required: true}},
			Run: func(ctx context.Context, env *Env, p Params) error {
				if err := env.Ctrl.SwitchLanguage(ctx, p.Get("code")); err != nil {
					return err
				}
				return showOpened(ctx, env)
			},
		},
		{
			Name:    "run",
			Summary: "run the tests of a problem (default: the open one)",
			Args:    []Arg{{Name: "name", Type: ArgString}},
			Run: func(ctx context.Context, env *Env, p Params) error {
				name := p.Get("name")
				if name == "" {
					name = env.Ctrl.Snapshot().Current
					if name == "" || !env.Ctrl.Snapshot().ViewOpen {
						return pkgerrors.New(pkgerrors.NoProblemOpen)
					}
				}
				if err := env.Ctrl.RunOne(ctx, name); err != nil {
					return err
				}
				return printResults(env, name)
			},
		},
		{
			Name:    "runall",
			Summary: "run every problem in order",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				err := env.Ctrl.RunAll(ctx)
				_ = runList(ctx, env, nil)
				return err
			},
		},
		{
			Name:    "rerun",
			Summary: "run the open problem again",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := env.Ctrl.RerunCurrent(ctx); err != nil {
					return err
				}
				return printResults(env, env.Ctrl.Snapshot().Current)
			},
		},
		{
			Name:    "info",
			Summary: "show the open problem's statement",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				return printInfo(env)
			},
		},
		{
			Name:    "results",
			Summary: "show results or pending cases of the open problem",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := requireOpen(env); err != nil {
					return err
				}
				return printResults(env, env.Ctrl.Snapshot().Current)
			},
		},
		{
			Name:    "code",
			Summary: "print the editor content",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := requireOpen(env); err != nil {
					return err
				}
				if err := env.Settle(ctx); err != nil {
					return err
				}
				content, err := env.Ctrl.Editor().Value()
				if err != nil {
					return err
				}
				env.Printf("%s", content)
				return nil
			},
		},
		{
			Name:    "edit",
			Summary: "replace the editor content with a local file",
			Args:    []Arg{{Name: "file", Prompt: "source file", Type: ArgFile, Required: true}},
			Run: func(ctx context.Context, env *Env, p Params) error {
				if err := requireOpen(env); err != nil {
					return err
				}
				content, err := ReadFile(p.Get("file"))
				if err != nil {
					return err
				}
				if err := env.Settle(ctx); err != nil {
					return err
				}
				w, ok := env.Ctrl.Editor().Widget().(interface{ Edit(string) })
				if !ok {
					return pkgerrors.New(pkgerrors.EditorNotReady)
				}
				w.Edit(content)
				env.Printf("editor updated (%d bytes, unsaved)", len(content))
				return nil
			},
		},
		{
			Name:    "save",
			Summary: "save the editor content",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := env.Ctrl.SaveCode(ctx); err != nil {
					return err
				}
				env.Printf("saved")
				return nil
			},
		},
		{
			Name:    "exec",
			Summary: "save if needed, then run the open problem",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				if err := env.Settle(ctx); err != nil {
					return err
				}
				if err := env.Ctrl.RunFromEditor(ctx); err != nil {
					env.Printf("%s", render.PlainText(string(env.Board.Panel(view.Results).HTML)))
					return err
				}
				return printResults(env, env.Ctrl.Snapshot().Current)
			},
		},
		{
			Name:    "push",
			Summary: "commit and push through the backend",
			Args:    []Arg{{Name: "message", Type: ArgRest}},
			Run: func(ctx context.Context, env *Env, p Params) error {
				return env.Ctrl.ConfirmPush(ctx, p.Get("message"))
			},
		},
		{
			Name:    "guide",
			Summary: "show the backend's help document",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				err := env.Ctrl.OpenHelp(ctx)
				env.Printf("%s", render.PlainText(string(env.Board.Panel(view.HelpBody).HTML)))
				env.Ctrl.CloseHelp()
				return err
			},
		},
		{
			Name:    "theme",
			Summary: "toggle light and dark",
			Run: func(ctx context.Context, env *Env, _ Params) error {
				theme, err := env.Ctrl.ToggleTheme(ctx)
				env.Printf("theme: %s", theme)
				return err
			},
		},
	}

	result := make(map[string]Command, len(commands)*2)
	for _, cmd := range commands {
		result[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			result[alias] = cmd
		}
	}
	return result
}

// Names returns command names without aliases, sorted.
func Names(commands map[string]Command) []string {
	names := make([]string, 0, len(commands))
	for key, cmd := range commands {
		if key == cmd.Name {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

func runList(ctx context.Context, env *Env, _ Params) error {
	snap := env.Ctrl.Snapshot()
	if snap.AppTitle != "" {
		env.Printf("%s", snap.AppTitle)
	}
	env.Printf("%s", render.TextTable(snap.Problems))
	env.Printf("%s", render.TextProgress(snap.Stats))
	return nil
}

func requireOpen(env *Env) error {
	if !env.Ctrl.Snapshot().ViewOpen {
		return pkgerrors.New(pkgerrors.NoProblemOpen)
	}
	return nil
}

// showOpened settles the editor and prints the problem that is now open.
func showOpened(ctx context.Context, env *Env) error {
	if err := env.Settle(ctx); err != nil {
		return err
	}
	if err := printInfo(env); err != nil {
		return err
	}
	env.Printf("")
	return printResults(env, env.Ctrl.Snapshot().Current)
}

func printInfo(env *Env) error {
	snap := env.Ctrl.Snapshot()
	if !snap.ViewOpen {
		return pkgerrors.New(pkgerrors.NoProblemOpen)
	}
	if snap.Info == nil {
		env.Printf("%s", render.PlainText(string(env.Board.Panel(view.Description).HTML)))
		return nil
	}
	summary, _ := env.Ctrl.Registry().Get(snap.Current)
	env.Printf("%s", render.TextInfo(*snap.Info, summary, snap.Lang))
	return nil
}

func printResults(env *Env, name string) error {
	summary, ok := env.Ctrl.Registry().Get(name)
	if !ok {
		return pkgerrors.ProblemMissing(name)
	}
	if summary.HasRun {
		env.Printf("%s  %d/%d passed  score %g/%g", summary.Title(), summary.Passed, summary.TotalTests,
			summary.Score, summary.TotalPoints)
		env.Printf("%s", render.TextResults(summary.Details))
		return nil
	}
	snap := env.Ctrl.Snapshot()
	if snap.Info != nil && snap.Current == name {
		env.Printf("%s", render.TextPendingCases(snap.Info.TestCases))
		return nil
	}
	env.Printf("尚未執行測試")
	return nil
}
