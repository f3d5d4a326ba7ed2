package routers

import (
	"github.com/gin-gonic/gin"

	"agrichain/internal/app/server/handlers/advisory"
	"agrichain/internal/app/server/handlers/market"
	"agrichain/internal/app/server/middlewares"
	"agrichain/pkg/logger"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(
	advisoryHandler *advisory.AdvisoryHandler,
	marketHandler *market.MarketHandler,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "agrichain",
			"message": "Service is running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		recommendations := v1.Group("/recommendations")
		{
			recommendations.POST("", advisoryHandler.Create)
			recommendations.GET("", advisoryHandler.List)
			recommendations.GET("/:id", advisoryHandler.Get)
		}

		v1.GET("/markets", marketHandler.List)
		v1.GET("/crops", marketHandler.Crops)
	}

	return r
}
