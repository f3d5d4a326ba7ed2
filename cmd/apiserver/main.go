package main

// @title           AgriChain API
// @version         1.0
// @description     农产品卖出/等待建议服务，提供实时建议、附近市场报价与作物衰减参数

// @host      localhost:8080
// @BasePath  /api/v1

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"agrichain/pkg/config"
	"agrichain/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
	migrate    = flag.Bool("migrate", false, "启动前执行数据库迁移")
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

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 初始化 Logger
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	// 3. 初始化应用（包含 HTTP Server 和 Consumer）
	app, cleanup, err := InitializeApp(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer cleanup()

	if *migrate {
		if err := runMigrations(app.DB, cfg.Server.MigrationsDir); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Printf("Migrations applied from %s", cfg.Server.MigrationsDir)
	}

	// 4. 创建 HTTP Server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: app.Engine,
	}

	// 5. 启动 Consumer（后台 goroutine）
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumerErrChan := make(chan error, 1)

	go func() {
		log.Printf("Starting callback consumer...")
		consumerErrChan <- app.CallbackConsumer.Start(consumerCtx)
	}()

	// 6. 启动 HTTP Server（后台 goroutine）
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 7. 优雅停机处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("Received shutdown signal, gracefully shutting down...")
		gracefulShutdown(server, cancelConsumer, consumerErrChan)
	case err := <-serverErrChan:
		cancelConsumer()
		log.Printf("HTTP server error: %v", err)
	case err := <-consumerErrChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Consumer error: %v", err)
		}
		cancelConsumer()
	}

	log.Println("Application stopped")
}

// runMigrations 执行 goose SQL 迁移
func runMigrations(db *gorm.DB, dir string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	return goose.Up(sqlDB, dir)
}

// gracefulShutdown 优雅停机
func gracefulShutdown(server *http.Server, cancelConsumer context.CancelFunc, consumerDone <-chan error) {
	// 1. 停止 Consumer，等待当前消息处理完
	log.Println("Stopping consumer...")
	cancelConsumer()
	select {
	case <-consumerDone:
	case <-time.After(5 * time.Second):
		log.Println("Consumer did not stop in time")
	}

	// 2. 停止 HTTP Server
	log.Println("Stopping HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}
}
