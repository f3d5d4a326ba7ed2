package rpadvisory

import (
	"context"
	"errors"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
)

// ErrNotFound 建议不存在
var ErrNotFound = errors.New("advisory not found")

// AdvisoryRepository 建议仓储接口（只定义，不实现）
type AdvisoryRepository interface {
	// Create 创建建议
	Create(ctx context.Context, advisory *etadvisory.Advisory) error

	// GetByID 根据ID查询建议，不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*etadvisory.Advisory, error)

	// UpdateResult 写入计算结果
	// rec: 推荐结果（成功时传入，失败时传 nil）
	// status: COMPLETED 或 FAILED
	// errorMsg: 错误信息（失败时传入）
	UpdateResult(ctx context.Context, id string, rec *model.Recommendation, status etadvisory.Status, errorMsg string) error

	// ListRecent 按创建时间倒序查询某作物的建议
	ListRecent(ctx context.Context, crop string, limit int) ([]*etadvisory.Advisory, error)
}
