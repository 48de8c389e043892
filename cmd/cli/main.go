package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gradedesk/internal/cli/command"
	"gradedesk/internal/cli/config"
	"gradedesk/internal/cli/repl"
	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/gateway"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/view"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	backendURL := flag.String("backend", "", "Override backend URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	runTimeout := flag.Duration("run-timeout", 0, "Override editor run timeout")
	prefsPath := flag.String("prefs", "", "Override preference file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *runTimeout > 0 {
		cfg.RunTimeout = *runTimeout
	}
	if *prefsPath != "" {
		cfg.PrefsPath = *prefsPath
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	board := view.NewBoard()
	adapter := editor.NewAdapter(editor.BufferLoader(0))
	ctrl := controller.New(
		gateway.New(cfg.BackendURL, cfg.Timeout),
		board,
		adapter,
		prefs.NewFileStore(cfg.PrefsPath),
		controller.Config{RunTimeout: cfg.RunTimeout},
	)

	env := &command.Env{Ctrl: ctrl, Board: board, Out: os.Stdout}
	if err := ctrl.Init(ctx); err != nil {
		logger.Warn(ctx, "initial problem load failed", zap.Error(err), zap.String("backend", cfg.BackendURL))
		env.Printf("無法載入題目列表: %v (use reload to retry)", err)
	} else {
		_ = command.Registry()["list"].Run(ctx, env, nil)
	}

	session := repl.New(command.Registry(), env)
	if err := session.Run(ctx, cfg.HistoryPath); err != nil {
		logger.Error(ctx, "repl stopped", zap.Error(err))
	}
	ctrl.Wait()
}
