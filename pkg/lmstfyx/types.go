package lmstfyx

import (
	"context"

	"github.com/bitleak/lmstfy/client"
)

// Proc 推荐计算入口，由 Processor 对每个拉到的 Job 调用一次
type Proc func(ctx context.Context, job *client.Job) *JobResp

// JobRespStatus 处理结果决定 Job 的去向
type JobRespStatus int

const (
	// JobRespStatusSuccess 回调已发出，ACK
	JobRespStatusSuccess JobRespStatus = iota
	// JobRespStatusRelease 不 ACK，TTR 到期后 lmstfy 重新投递
	JobRespStatusRelease
	// JobRespStatusBury 不可重试，ACK 后丢弃并记录错误
	JobRespStatusBury
)

func (s JobRespStatus) String() string {
	switch s {
	case JobRespStatusSuccess:
		return "success"
	case JobRespStatusRelease:
		return "release"
	case JobRespStatusBury:
		return "bury"
	default:
		return "unknown"
	}
}

// ShouldAck Success 与 Bury 都需要 ACK，只有 Release 留给重投
func (s JobRespStatus) ShouldAck() bool {
	return s == JobRespStatusSuccess || s == JobRespStatusBury
}

// JobResp Data 为序列化后的处理结果，仅用于日志与 fasttest 断言
type JobResp struct {
	Action JobRespStatus
	Data   []byte
}

// Succeed 成功
func Succeed(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusSuccess, Data: data}
}

// Release 等待重投
func Release(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusRelease, Data: data}
}

// Bury 丢弃
func Bury(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusBury, Data: data}
}
