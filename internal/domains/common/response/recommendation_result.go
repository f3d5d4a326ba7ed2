package response

import (
	"agrichain/common/model"
	"agrichain/internal/domains/common/job"
	"agrichain/pkg/errorutil"
)

const (
	RecommendationStatusSuccess = "SUCCESS"
	RecommendationStatusFailed  = "FAILED"
)

// RecommendationResult 推荐任务结果
type RecommendationResult struct {
	AdvisoryID     string                `json:"advisory_id"`
	Status         string                `json:"status"`
	Recommendation *model.Recommendation `json:"recommendation,omitempty"`
	Error          *errorutil.Error      `json:"error,omitempty"`
}

// NewRecommendationResult 创建推荐结果
func NewRecommendationResult() *RecommendationResult {
	return &RecommendationResult{}
}

// Set 失败时清空推荐内容，只保留错误
func (r *RecommendationResult) Set(meta *job.Meta, err error) {
	r.AdvisoryID = meta.ID
	if err != nil {
		r.Status = RecommendationStatusFailed
		r.Error = errorutil.Wrap(err)
		r.Recommendation = nil
	} else {
		r.Status = RecommendationStatusSuccess
	}
}

func (r *RecommendationResult) GetStatus() string {
	return r.Status
}
