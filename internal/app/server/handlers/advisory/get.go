package advisory

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"agrichain/internal/app/domains/apimodel/response"
	"agrichain/internal/app/pkg/ginx"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Get godoc
// @Summary      获取建议详情
// @Description  创建建议返回 code=3001 时，通过此接口轮询结果
// @Tags         recommendations
// @Produce      json
// @Param        id path string true "建议ID"
// @Success      200 {object} model.Response{data=response.AdvisoryResponse}
// @Failure      404 {object} model.Response "建议不存在"
// @Router       /recommendations/{id} [get]
func (h *AdvisoryHandler) Get(c *gin.Context) {
	advisoryID := c.Param("id")
	if advisoryID == "" {
		ginx.BadRequest(c, "advisory id required")
		return
	}

	advisory, err := h.advisoryService.GetAdvisory(c.Request.Context(), advisoryID)
	if err != nil {
		_ = c.Error(err)
		ginx.FromError(c, err)
		return
	}

	ginx.Success(c, response.FromAdvisoryEntity(advisory))
}

// List 最近的建议
// GET /api/v1/recommendations?crop=Onion&limit=20
func (h *AdvisoryHandler) List(c *gin.Context) {
	limit := defaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			ginx.BadRequest(c, "limit must be a positive integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	advisories, err := h.advisoryService.ListAdvisories(c.Request.Context(), c.Query("crop"), limit)
	if err != nil {
		_ = c.Error(err)
		ginx.FromError(c, err)
		return
	}

	ginx.Success(c, response.FromAdvisoryEntities(advisories))
}
