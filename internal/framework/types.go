package framework

// Message 从队列拉到的一条推荐计算 Job
type Message struct {
	ID    string
	Queue string
	Data  []byte // model.RecommendationJob 的 JSON
}
