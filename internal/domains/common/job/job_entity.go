package job

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingPayload Job 缺少 payload.data
var ErrMissingPayload = errors.New("job payload.data is missing")

// Job 队列中的 Job，与 apiserver 发布的 model.RecommendationJob 同构
// 业务数据保留为 RawMessage，由 action_type 对应的 Handler 解析
type Job struct {
	Payload *JobPayload `json:"payload"`
}

type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

type JobPayloadData struct {
	RequestID  string          `json:"request_id"`
	OrgID      string          `json:"org_id"`
	ActionType string          `json:"action_type"`
	ID         string          `json:"id"` // advisory ID
	Data       json.RawMessage `json:"data"`
}

// Meta 贯穿处理链路的 Job 元信息
type Meta struct {
	RequestID  string
	OrgID      string
	ActionType string
	ID         string
}

// Decode 解析原始 Job 数据，返回元信息和未解析的业务数据
func Decode(raw []byte) (*Meta, json.RawMessage, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, nil, fmt.Errorf("decode job: %w", err)
	}
	if j.Payload == nil || j.Payload.Data == nil {
		return nil, nil, ErrMissingPayload
	}

	d := j.Payload.Data
	return &Meta{
		RequestID:  d.RequestID,
		OrgID:      d.OrgID,
		ActionType: d.ActionType,
		ID:         d.ID,
	}, d.Data, nil
}
