package rpadvisory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"agrichain/common/entity"
	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
)

// AdvisoryRepositoryImpl 建议仓储实现（MySQL）
type AdvisoryRepositoryImpl struct {
	db *gorm.DB
}

// NewAdvisoryRepository 创建建议仓储实例
func NewAdvisoryRepository(db *gorm.DB) AdvisoryRepository {
	return &AdvisoryRepositoryImpl{db: db}
}

// Create 创建建议，将领域对象转换为 GORM 模型后存储
func (r *AdvisoryRepositoryImpl) Create(ctx context.Context, advisory *etadvisory.Advisory) error {
	po, err := toGormModel(advisory)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(po).Error
}

// GetByID 根据ID查询建议
func (r *AdvisoryRepositoryImpl) GetByID(ctx context.Context, id string) (*etadvisory.Advisory, error) {
	var po entity.Advisory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainModel(&po)
}

// UpdateResult 写入计算结果，只更新仍处于 PROCESSING 的记录
// 回调重复投递时第二次更新不生效
func (r *AdvisoryRepositoryImpl) UpdateResult(ctx context.Context, id string, rec *model.Recommendation, status etadvisory.Status, errorMsg string) error {
	updates := map[string]interface{}{
		"status":        string(status),
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	}

	if rec != nil {
		recJSON, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		updates["recommendation"] = recJSON
	}

	return r.db.WithContext(ctx).
		Model(&entity.Advisory{}).
		Where("id = ? AND status = ?", id, string(etadvisory.StatusProcessing)).
		Updates(updates).Error
}

// ListRecent 按创建时间倒序查询
func (r *AdvisoryRepositoryImpl) ListRecent(ctx context.Context, crop string, limit int) ([]*etadvisory.Advisory, error) {
	var pos []entity.Advisory

	query := r.db.WithContext(ctx).Model(&entity.Advisory{})
	if crop != "" {
		query = query.Where("crop = ?", crop)
	}
	if err := query.Order("created_at DESC").Limit(limit).Find(&pos).Error; err != nil {
		return nil, err
	}

	advisories := make([]*etadvisory.Advisory, 0, len(pos))
	for i := range pos {
		a, err := toDomainModel(&pos[i])
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, a)
	}
	return advisories, nil
}

// toGormModel 领域对象转换为 GORM 模型
func toGormModel(a *etadvisory.Advisory) (*entity.Advisory, error) {
	snapshotJSON, err := json.Marshal(a.Snapshot)
	if err != nil {
		return nil, err
	}

	po := &entity.Advisory{
		ID:               a.ID,
		RequestID:        a.RequestID,
		Crop:             a.Crop,
		YieldQuintals:    a.YieldQuintals,
		BaseSpoilageRate: a.BaseSpoilageRate,
		Snapshot:         snapshotJSON,
		Status:           string(a.Status),
		ErrorMessage:     a.ErrorMessage,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}

	if a.Recommendation != nil {
		recJSON, err := json.Marshal(a.Recommendation)
		if err != nil {
			return nil, err
		}
		po.Recommendation = recJSON
	}

	return po, nil
}

// toDomainModel GORM 模型转换为领域对象
func toDomainModel(po *entity.Advisory) (*etadvisory.Advisory, error) {
	var snapshot etadvisory.Snapshot
	if err := json.Unmarshal(po.Snapshot, &snapshot); err != nil {
		return nil, err
	}

	a := &etadvisory.Advisory{
		ID:               po.ID,
		RequestID:        po.RequestID,
		Crop:             po.Crop,
		YieldQuintals:    po.YieldQuintals,
		BaseSpoilageRate: po.BaseSpoilageRate,
		Snapshot:         &snapshot,
		Status:           etadvisory.Status(po.Status),
		ErrorMessage:     po.ErrorMessage,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
	}

	if len(po.Recommendation) > 0 {
		var rec model.Recommendation
		if err := json.Unmarshal(po.Recommendation, &rec); err != nil {
			return nil, err
		}
		a.Recommendation = &rec
	}

	return a, nil
}
