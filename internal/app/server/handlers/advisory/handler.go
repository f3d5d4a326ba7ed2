package advisory

import (
	"context"

	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/domains/services/svadvisory"
)

// Service 建议服务接口（svadvisory.AdvisoryService 实现）
type Service interface {
	CreateAdvisory(ctx context.Context, in svadvisory.CreateInput) (*etadvisory.Advisory, error)
	GetAdvisory(ctx context.Context, id string) (*etadvisory.Advisory, error)
	ListAdvisories(ctx context.Context, crop string, limit int) ([]*etadvisory.Advisory, error)
}

// AdvisoryHandler 建议 HTTP 处理器
type AdvisoryHandler struct {
	advisoryService Service
}

// NewAdvisoryHandler 创建建议处理器实例
func NewAdvisoryHandler(advisoryService Service) *AdvisoryHandler {
	return &AdvisoryHandler{
		advisoryService: advisoryService,
	}
}
