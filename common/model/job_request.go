package model

// ActionTypeRecommendationCompute 推荐计算任务的路由键
const ActionTypeRecommendationCompute = "recommendation_compute"

// RecommendationJob 推荐计算任务消息（标准化）
// 用于 apiserver → worker 的消息传递
type RecommendationJob struct {
	Payload RecommendationPayload `json:"payload"`
}

// RecommendationPayload Job 负载
type RecommendationPayload struct {
	Data RecommendationJobData `json:"data"`
}

// RecommendationJobData Job 数据层
type RecommendationJobData struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（全链路追踪）
	OrgID      string `json:"org_id"`      // 组织 ID（固定为 "0"）
	ActionType string `json:"action_type"` // 固定值 "recommendation_compute"
	ID         string `json:"id"`          // advisory ID

	// 业务数据
	Data RecommendationBusinessData `json:"data"`
}

// RecommendationBusinessData 推荐计算所需的完整快照
// worker 不访问任何外部数据源，只使用这里的数据
type RecommendationBusinessData struct {
	AdvisoryID       string               `json:"advisory_id" validate:"required"`
	Crop             string               `json:"crop" validate:"required"`
	YieldQuintals    float64              `json:"yield_quintals" validate:"gt=0"`
	BaseSpoilageRate float64              `json:"base_spoilage_rate,omitempty" validate:"gte=0"`
	Environment      *EnvironmentSnapshot `json:"environment"`
	Markets          []MarketQuote        `json:"markets"`
}
