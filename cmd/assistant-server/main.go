// cmd/assistant-server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"morvo-assistant/internal/app"
	"morvo-assistant/internal/common/config"
	"morvo-assistant/internal/common/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assistant server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storeDriver", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			zapLog.Error("Error closing resources", zap.Error(err))
		}
	}()

	if err := a.Run(ctx); err != nil {
		zapLog.Error("server stopped with error", zap.Error(err))
		return
	}

	zapLog.Info("Assistant server stopped gracefully")
}
