package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/gateway"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/view"
	"gradedesk/internal/console/web"
	"gradedesk/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/console.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(gin.ReleaseMode)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildPrefsStore(shutdownCtx, appCfg.Prefs)
	if err != nil {
		logger.Error(context.Background(), "init preference store failed", zap.Error(err))
		return
	}
	defer closeStore()

	board := view.NewBoard()
	adapter := editor.NewAdapter(web.MirroredLoader(board, 0))
	ctrl := controller.New(
		gateway.New(appCfg.Backend.URL, appCfg.Backend.Timeout),
		board,
		adapter,
		store,
		appCfg.Controller.toController(),
	)

	server := web.NewServer(shutdownCtx, appCfg.Server, ctrl, board)
	httpServer := server.HTTPServer()

	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "console http server started",
			zap.String("addr", appCfg.Server.Addr), zap.String("backend", appCfg.Backend.URL))
		errCh <- httpServer.Serve(listener)
	}()

	if err := ctrl.Init(shutdownCtx); err != nil {
		logger.Warn(context.Background(), "initial problem load failed", zap.Error(err))
	}
	server.SetReady(true)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	server.SetReady(false)
	ctx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
	server.Wait()
	ctrl.Wait()
}

func buildPrefsStore(ctx context.Context, cfg PrefsConfig) (prefs.Store, func(), error) {
	switch cfg.Backend {
	case prefsBackendRedis:
		store, err := prefs.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return prefs.NewFileStore(cfg.Path), func() {}, nil
	}
}
