package domains

import (
	"agrichain/common/model"
	"agrichain/internal/domains/common"
	"agrichain/internal/domains/handlers/advisory/recommend"
)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]common.HandlerServProc{
	model.ActionTypeRecommendationCompute: recommend.NewRecommendHandler,
}
