package advisory

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"agrichain/internal/app/domains/apimodel/request"
	"agrichain/internal/app/domains/apimodel/response"
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/pkg/ginx"
	"agrichain/pkg/logger"
)

// Create godoc
// @Summary      创建卖出建议
// @Description  同步模式直接返回计算结果；async=true 时投递到计算队列，
// @Description  wait>0 时 Smart Wait，超时返回 code=3001 与轮询地址
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Param        async query bool false "异步计算"
// @Param        wait  query int  false "Smart Wait 秒数"
// @Param        body  body request.CreateRecommendationRequest true "请求体"
// @Success      200 {object} model.Response{data=response.AdvisoryResponse}
// @Failure      400 {object} model.Response "参数错误"
// @Failure      422 {object} model.Response "没有可评估的市场"
// @Failure      503 {object} model.Response "队列或数据源不可用"
// @Router       /recommendations [post]
func (h *AdvisoryHandler) Create(c *gin.Context) {
	async, _ := strconv.ParseBool(c.Query("async"))

	waitSeconds := 0
	if waitStr := c.Query("wait"); waitStr != "" {
		if w, err := strconv.Atoi(waitStr); err == nil && w > 0 {
			waitSeconds = w
		}
	}

	var req request.CreateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	input := req.ToCreateInput(logger.TraceID(ctx), async, waitSeconds)

	advisory, err := h.advisoryService.CreateAdvisory(ctx, input)
	if err != nil {
		_ = c.Error(err)
		ginx.FromError(c, err)
		return
	}

	if advisory.Status == etadvisory.StatusProcessing {
		ginx.Processing(c, advisory.ID, fmt.Sprintf("/api/v1/recommendations/%s", advisory.ID))
		return
	}

	ginx.Success(c, response.FromAdvisoryEntity(advisory))
}
