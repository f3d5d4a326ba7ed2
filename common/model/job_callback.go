package model

// RecommendationCallback 推荐计算回调消息（标准化）
// 用于 worker → apiserver callback consumer 的消息传递
type RecommendationCallback struct {
	RequestID      string          `json:"request_id"`               // 对应请求的 request_id（链路追踪）
	AdvisoryID     string          `json:"advisory_id"`              // advisory ID
	Status         string          `json:"status"`                   // 回调状态: SUCCESS / FAILED
	Recommendation *Recommendation `json:"recommendation,omitempty"` // 成功时返回
	Error          string          `json:"error,omitempty"`          // 失败时返回
	ProcessedAt    int64           `json:"processed_at"`             // Unix timestamp
}

// 回调状态常量
const (
	CallbackStatusSuccess = "SUCCESS"
	CallbackStatusFailed  = "FAILED"
)
