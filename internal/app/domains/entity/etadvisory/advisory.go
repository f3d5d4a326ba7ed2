package etadvisory

import (
	"errors"
	"time"

	"agrichain/common/model"
)

// 错误定义
var (
	ErrInvalidAdvisoryID    = errors.New("advisory ID cannot be empty")
	ErrInvalidCrop          = errors.New("crop cannot be empty")
	ErrInvalidYield         = errors.New("yield must be positive")
	ErrInvalidSnapshot      = errors.New("environment and markets are required")
	ErrNilRecommendation    = errors.New("recommendation cannot be nil")
	ErrAdvisoryNotInProcess = errors.New("advisory is already settled")
)

// Status 建议状态
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Snapshot 计算输入快照（值对象）
// 异步模式下原样发送给 worker，worker 不再访问外部数据源
type Snapshot struct {
	Environment  model.EnvironmentSnapshot `json:"environment"`
	Markets      []model.MarketQuote       `json:"markets"`
	Location     model.Location            `json:"location"`
	MarketSource string                    `json:"market_source"` // enam / dataset / data.gov.in / heuristic / manual
}

// Advisory 卖出建议聚合根（领域对象）
type Advisory struct {
	ID               string
	RequestID        string
	Crop             string
	YieldQuintals    float64
	BaseSpoilageRate float64
	Snapshot         *Snapshot
	Status           Status
	Recommendation   *model.Recommendation
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAdvisory 创建建议（工厂方法），初始状态为 PROCESSING
func NewAdvisory(id, requestID, crop string, yieldQuintals, baseSpoilageRate float64, snapshot *Snapshot) (*Advisory, error) {
	if id == "" {
		return nil, ErrInvalidAdvisoryID
	}
	if crop == "" {
		return nil, ErrInvalidCrop
	}
	if yieldQuintals <= 0 {
		return nil, ErrInvalidYield
	}
	if snapshot == nil || snapshot.Markets == nil {
		return nil, ErrInvalidSnapshot
	}

	now := time.Now()
	return &Advisory{
		ID:               id,
		RequestID:        requestID,
		Crop:             crop,
		YieldQuintals:    yieldQuintals,
		BaseSpoilageRate: baseSpoilageRate,
		Snapshot:         snapshot,
		Status:           StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Complete 写入推荐结果（领域行为）
func (a *Advisory) Complete(rec *model.Recommendation) error {
	if rec == nil {
		return ErrNilRecommendation
	}
	if a.Status != StatusProcessing {
		return ErrAdvisoryNotInProcess
	}
	a.Recommendation = rec
	a.Status = StatusCompleted
	a.UpdatedAt = time.Now()
	return nil
}

// Fail 标记为失败（领域行为）
func (a *Advisory) Fail(message string) error {
	if a.Status != StatusProcessing {
		return ErrAdvisoryNotInProcess
	}
	a.Status = StatusFailed
	a.ErrorMessage = message
	a.UpdatedAt = time.Now()
	return nil
}

// IsSettled 是否已有最终结果
func (a *Advisory) IsSettled() bool {
	return a.Status == StatusCompleted || a.Status == StatusFailed
}
