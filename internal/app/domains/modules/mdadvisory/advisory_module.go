package mdadvisory

import (
	"context"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/domains/repo/rpadvisory"
)

// AdvisoryModule 建议模块（数据操作）
type AdvisoryModule struct {
	advisoryRepo rpadvisory.AdvisoryRepository
}

// NewAdvisoryModule 创建建议模块
func NewAdvisoryModule(advisoryRepo rpadvisory.AdvisoryRepository) *AdvisoryModule {
	return &AdvisoryModule{advisoryRepo: advisoryRepo}
}

// CreateAdvisory 创建建议
func (m *AdvisoryModule) CreateAdvisory(ctx context.Context, advisory *etadvisory.Advisory) error {
	return m.advisoryRepo.Create(ctx, advisory)
}

// GetAdvisory 查询建议
func (m *AdvisoryModule) GetAdvisory(ctx context.Context, id string) (*etadvisory.Advisory, error) {
	return m.advisoryRepo.GetByID(ctx, id)
}

// SaveResult 持久化已结算的建议
func (m *AdvisoryModule) SaveResult(ctx context.Context, advisory *etadvisory.Advisory) error {
	return m.advisoryRepo.UpdateResult(ctx, advisory.ID, advisory.Recommendation, advisory.Status, advisory.ErrorMessage)
}

// ApplyCallback 根据 worker 回调更新建议
func (m *AdvisoryModule) ApplyCallback(ctx context.Context, callback *model.RecommendationCallback) error {
	if callback.Status == model.CallbackStatusSuccess {
		return m.advisoryRepo.UpdateResult(ctx, callback.AdvisoryID, callback.Recommendation, etadvisory.StatusCompleted, "")
	}
	return m.advisoryRepo.UpdateResult(ctx, callback.AdvisoryID, nil, etadvisory.StatusFailed, callback.Error)
}

// ListRecent 查询最近的建议
func (m *AdvisoryModule) ListRecent(ctx context.Context, crop string, limit int) ([]*etadvisory.Advisory, error) {
	return m.advisoryRepo.ListRecent(ctx, crop, limit)
}
