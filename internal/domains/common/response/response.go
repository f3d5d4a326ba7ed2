package response

import (
	"agrichain/internal/domains/common/job"
	"agrichain/pkg/errorutil"
	"agrichain/pkg/lmstfyx"
)

// Result Handler 的业务结果
type Result interface {
	// Set 根据 Job 元信息和处理错误补齐结果
	Set(meta *job.Meta, err error)
	GetStatus() string
}

// Response 一次 Job 处理的完整记录，序列化后写入 JobResp.Data
type Response struct {
	Meta   *job.Meta        `json:"meta"`
	Result Result           `json:"result"`
	Error  *errorutil.Error `json:"error,omitempty"`
}

// New 由结果和错误构造 Response，err 为 nil 表示处理成功
func New(result Result, meta *job.Meta, err error) *Response {
	result.Set(meta, err)
	return &Response{
		Meta:   meta,
		Result: result,
		Error:  errorutil.Wrap(err),
	}
}

// Retryable 是否需要 lmstfy 重新投递
func (r *Response) Retryable() bool {
	return r.Error != nil && r.Error.Retryable
}

// Action 成功 ACK；可重试错误 Release；其余 Bury
func (r *Response) Action() lmstfyx.JobRespStatus {
	switch {
	case r.Error == nil:
		return lmstfyx.JobRespStatusSuccess
	case r.Retryable():
		return lmstfyx.JobRespStatusRelease
	default:
		return lmstfyx.JobRespStatusBury
	}
}
