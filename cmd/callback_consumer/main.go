package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrichain/internal/app/consumer"
	"agrichain/internal/app/domains/modules/mdadvisory"
	"agrichain/internal/app/domains/repo/rpadvisory"
	"agrichain/internal/app/domains/services/svcallback"
	"agrichain/pkg/config"
	"agrichain/pkg/infra/mysql"
	"agrichain/pkg/infra/redis"
	"agrichain/pkg/lmstfy"
	"agrichain/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化日志
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Infof(ctx, "Starting callback consumer...")

	// 3. 初始化基础设施组件
	db, err := mysql.Open(cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}
	defer redisClient.Close()

	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to init lmstfy: %v", err)
	}

	// 4. 初始化 Module / Service 层
	advisoryModule := mdadvisory.NewAdvisoryModule(rpadvisory.NewAdvisoryRepository(db))
	callbackService := svcallback.NewCallbackService(advisoryModule, redisClient, cfg.Cache.ResultTTL, appLogger)

	// 5. 初始化 Consumer
	callbackConsumer := consumer.NewCallbackConsumer(
		lmstfyClient,
		callbackService,
		&consumer.Config{
			QueueName:    cfg.Lmstfy.CallbackQueue,
			Timeout:      3 * time.Second,  // 拉取消息超时
			TTR:          30 * time.Second, // 消息处理超时
			PollInterval: 100 * time.Millisecond,
		},
		appLogger,
	)

	// 6. 启动消费循环（优雅退出）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- callbackConsumer.Start(ctx)
	}()

	select {
	case <-sigChan:
		appLogger.Infof(ctx, "Received shutdown signal, stopping consumer...")
		cancel()
		<-errChan
		log.Println("Consumer stopped gracefully")
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Errorf(ctx, "Consumer stopped with error: %v", err)
			os.Exit(1)
		}
	}
}
