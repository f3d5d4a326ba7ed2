package common

import (
	"context"
	"encoding/json"

	"agrichain/internal/business"
	"agrichain/internal/domains/common/job"
	"agrichain/internal/domains/common/response"
	"agrichain/pkg/logger"
)

// Dependencies Handler 运行所需的共享依赖（由 Manager 构造一次）
type Dependencies struct {
	Recommendation *business.RecommendationService
	Logger         logger.Logger
}

// HandlerServProc Handler 构造函数类型
type HandlerServProc func(ctx context.Context, meta *job.Meta, payload json.RawMessage, deps *Dependencies) (HandlerServ, error)

// HandlerServ Handler 接口
type HandlerServ interface {
	GetProcess() *response.Response
}
