package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"agrichain/internal/worker"
	"agrichain/pkg/config"
	"agrichain/pkg/logger"
)

var configPath = flag.String("config", "./config/worker.yaml", "配置文件路径")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zapLogger.Infof(ctx, "[Main] %s recommendation worker, env=%s, workers=%d",
		cfg.App.Name, cfg.App.Env, len(cfg.Workers))

	mgr, err := worker.NewManagerInstance(cfg, zapLogger)
	if err != nil {
		zapLogger.Errorf(ctx, "[Main] create manager: %v", err)
		return
	}

	errCh := make(chan error, 1)
	go func() { errCh <- mgr.Start() }()

	select {
	case <-ctx.Done():
		zapLogger.Infof(context.Background(), "[Main] signal received, draining workers")
		mgr.Shutdown()
		<-errCh
	case err := <-errCh:
		if err != nil {
			zapLogger.Errorf(context.Background(), "[Main] manager exited: %v", err)
		}
		mgr.Shutdown()
	}

	zapLogger.Infof(context.Background(), "[Main] worker exited")
}
