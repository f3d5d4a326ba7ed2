package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Advisory 卖出建议实体（包含计算快照与结果）
type Advisory struct {
	// 基础字段
	ID               string  `gorm:"column:id;primaryKey;type:varchar(32)"`
	RequestID        string  `gorm:"column:request_id;type:varchar(64);not null;index:idx_request_id"`
	Crop             string  `gorm:"column:crop;type:varchar(32);not null;index:idx_crop_created"`
	YieldQuintals    float64 `gorm:"column:yield_quintals;not null"`
	BaseSpoilageRate float64 `gorm:"column:base_spoilage_rate;not null;default:0"` // 0 表示使用作物默认值

	// 输入快照（环境 + 候选市场）
	Snapshot datatypes.JSON `gorm:"column:snapshot;type:json;not null"`

	// 计算状态与结果
	Status         string         `gorm:"column:status;type:varchar(16);not null;default:'PROCESSING'"`
	Recommendation datatypes.JSON `gorm:"column:recommendation;type:json"`
	ErrorMessage   string         `gorm:"column:error_message;type:varchar(512)"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_crop_created"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Advisory) TableName() string {
	return "advisories"
}

// 建议状态常量
const (
	AdvisoryStatusProcessing = "PROCESSING"
	AdvisoryStatusCompleted  = "COMPLETED"
	AdvisoryStatusFailed     = "FAILED"
)
