package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrichain/internal/app/consumer"
	"agrichain/internal/app/domains/modules/mdadvisory"
	"agrichain/internal/app/domains/modules/mdmarket"
	"agrichain/internal/app/domains/modules/mdrecommend"
	"agrichain/internal/app/domains/repo/rpadvisory"
	"agrichain/internal/app/domains/services/svadvisory"
	"agrichain/internal/app/domains/services/svcallback"
	"agrichain/internal/app/infra/cache"
	"agrichain/internal/app/infra/upstream"
	"agrichain/internal/app/infra/upstream/mandi"
	"agrichain/internal/app/infra/upstream/weather"
	"agrichain/internal/app/server/handlers/advisory"
	"agrichain/internal/app/server/handlers/market"
	"agrichain/internal/app/server/routers"
	"agrichain/pkg/config"
	"agrichain/pkg/infra/mysql"
	"agrichain/pkg/infra/redis"
	"agrichain/pkg/lmstfy"
	"agrichain/pkg/logger"
)

// 回调消费参数
const (
	callbackPollTimeout  = 3 * time.Second
	callbackTTR          = 30 * time.Second
	callbackPollInterval = 100 * time.Millisecond
)

// App 应用容器
type App struct {
	Engine           *gin.Engine
	CallbackConsumer *consumer.CallbackConsumer
	DB               *gorm.DB
}

// InitializeApp 手动组装依赖
// 返回的 cleanup 关闭 Redis 与 MySQL 连接
func InitializeApp(cfg *config.Config, log logger.Logger) (*App, func(), error) {
	// 1. 基础设施
	db, err := mysql.Open(cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql.DB failed: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = redisClient.Close()
		_ = sqlDB.Close()
	}

	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// 2. 外部数据源（共享限流、重试与 Redis 缓存）
	policy := cache.Policy{LongTTL: cfg.Cache.LongTTL, ShortTTL: cfg.Cache.ShortTTL}
	loader := cache.NewLoader(redisClient, log)
	fetcher := upstream.NewFetcher(upstream.Options{
		Timeout:       cfg.Upstream.Timeout,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		MaxRetries:    cfg.Upstream.MaxRetries,
	})

	weatherProvider := weather.NewFallback(
		weather.NewOpenMeteo(cfg.Upstream.OpenMeteoURL, fetcher, loader, policy.ShortTTL),
		log,
	)
	marketChain := mandi.NewChain(log,
		mandi.NewEnam(cfg.Upstream.EnamURL, cfg.Upstream.EnamToken, fetcher, loader, policy),
		mandi.NewDataset(mysql.NewMandiPriceDAO(db)),
		mandi.NewDataGov(cfg.Upstream.DataGovURL, cfg.Upstream.DataGovAPIKey, fetcher, loader, policy.ShortTTL),
		mandi.NewHeuristic(),
	)

	// 3. Repository / Module
	advisoryModule := mdadvisory.NewAdvisoryModule(rpadvisory.NewAdvisoryRepository(db))
	marketModule := mdmarket.NewMarketModule(weatherProvider, marketChain)
	recommendModule := mdrecommend.NewRecommendModule(
		lmstfyClient,
		mdrecommend.NewRedisListener(redisClient),
		redisClient,
		cfg.Lmstfy.Queue,
	)

	// 4. Service
	advisoryService := svadvisory.NewAdvisoryService(
		advisoryModule,
		marketModule,
		recommendModule,
		time.Duration(cfg.Server.MaxWaitSeconds)*time.Second,
		log,
	)
	callbackService := svcallback.NewCallbackService(advisoryModule, redisClient, cfg.Cache.ResultTTL, log)

	// 5. HTTP
	engine := routers.SetupRoutes(
		advisory.NewAdvisoryHandler(advisoryService),
		market.NewMarketHandler(advisoryService),
		log,
	)

	// 6. Callback Consumer
	callbackConsumer := consumer.NewCallbackConsumer(
		lmstfyClient,
		callbackService,
		&consumer.Config{
			QueueName:    cfg.Lmstfy.CallbackQueue,
			Timeout:      callbackPollTimeout,
			TTR:          callbackTTR,
			PollInterval: callbackPollInterval,
		},
		log,
	)

	return &App{
		Engine:           engine,
		CallbackConsumer: callbackConsumer,
		DB:               db,
	}, cleanup, nil
}
