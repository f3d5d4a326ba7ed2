package market

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"agrichain/common/model"
	"agrichain/internal/app/domains/apimodel/response"
	"agrichain/internal/app/infra/upstream/mandi"
	"agrichain/internal/app/pkg/ginx"
	"agrichain/internal/business"
)

// Service 市场查询接口（svadvisory.AdvisoryService 实现）
type Service interface {
	ListMarkets(ctx context.Context, crop, language string, loc *model.Location) (string, *mandi.Result, error)
	Crops() []business.CropProfile
}

// MarketHandler 市场与作物 HTTP 处理器
type MarketHandler struct {
	service Service
}

// NewMarketHandler 创建市场处理器实例
func NewMarketHandler(service Service) *MarketHandler {
	return &MarketHandler{service: service}
}

// List 附近市场报价
// GET /api/v1/markets?crop=Onion&lat=18.52&lng=73.85
func (h *MarketHandler) List(c *gin.Context) {
	loc, ok := parseLocation(c)
	if !ok {
		ginx.BadRequest(c, "lat and lng must be provided together as valid coordinates")
		return
	}

	crop, res, err := h.service.ListMarkets(c.Request.Context(), c.Query("crop"), c.Query("language"), loc)
	if err != nil {
		_ = c.Error(err)
		ginx.FromError(c, err)
		return
	}

	ginx.Success(c, response.FromMarketResult(crop, res))
}

// Crops 内置作物衰减参数
// GET /api/v1/crops
func (h *MarketHandler) Crops(c *gin.Context) {
	ginx.Success(c, response.FromCropProfiles(h.service.Crops()))
}

// parseLocation 都未提供时返回 nil（使用默认位置）
func parseLocation(c *gin.Context) (*model.Location, bool) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" && lngStr == "" {
		return nil, true
	}

	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, false
	}
	return &model.Location{Lat: lat, Lng: lng}, true
}
