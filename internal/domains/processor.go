package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/google/uuid"

	"agrichain/internal/domains/common"
	"agrichain/internal/domains/common/job"
	"agrichain/internal/domains/common/response"
	"agrichain/pkg/lmstfyx"
	"agrichain/pkg/logger"
)

// GetProcess 返回注入 Processor 的处理函数：解析 Job，按 action_type 路由到 Handler
func GetProcess(log logger.Logger, deps *common.Dependencies) lmstfyx.Proc {
	return func(ctx context.Context, lmstfyJob *client.Job) *lmstfyx.JobResp {
		start := time.Now()

		meta, payload, err := parseJob(ctx, lmstfyJob, log)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] drop malformed job: %v", err)
			return lmstfyx.Bury(nil)
		}

		ctx = logger.WithTraceID(ctx, meta.RequestID)
		ctx = logger.WithActionType(ctx, meta.ActionType)
		ctx = logger.WithAdvisoryID(ctx, meta.ID)

		newHandler, ok := HandlerMap[meta.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] no handler for action_type %q", meta.ActionType)
			return lmstfyx.Bury(nil)
		}

		resp := runHandler(ctx, newHandler, meta, payload, deps, lmstfyJob.ID, log)
		log.Infof(ctx, "[GetProcess] advisory %s: %s in %v", meta.ID, resp.Action, time.Since(start))
		return resp
	}
}

// runHandler 构造并执行 Handler，panic 视为不可重试
func runHandler(ctx context.Context, newHandler common.HandlerServProc, meta *job.Meta,
	payload json.RawMessage, deps *common.Dependencies, jobID string, log logger.Logger) (resp *lmstfyx.JobResp) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf(ctx, "[GetProcess] job %s panic: %v", jobID, r)
			resp = lmstfyx.Bury(nil)
		}
	}()

	handler, err := newHandler(ctx, meta, payload, deps)
	if err != nil {
		log.Errorf(ctx, "[GetProcess] job %s: build handler: %v", jobID, err)
		return lmstfyx.Bury(nil)
	}
	return doJobReport(ctx, handler.GetProcess(), jobID, log)
}

// parseJob 解析 Job，缺少 request_id 时生成一个用于链路追踪
func parseJob(ctx context.Context, lmstfyJob *client.Job, log logger.Logger) (*job.Meta, json.RawMessage, error) {
	if lmstfyJob == nil {
		return nil, nil, fmt.Errorf("nil job")
	}

	meta, payload, err := job.Decode(lmstfyJob.Data)
	if err != nil {
		return nil, nil, err
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}

	log.Debugf(ctx, "[parseJob] job %s: action_type=%s request_id=%s advisory=%s",
		lmstfyJob.ID, meta.ActionType, meta.RequestID, meta.ID)
	return meta, payload, nil
}

// doJobReport 将 Handler 结果转为 JobResp
func doJobReport(ctx context.Context, resp *response.Response, jobID string, log logger.Logger) *lmstfyx.JobResp {
	if resp == nil {
		log.Errorf(ctx, "[doJobReport] job %s: nil response", jobID)
		return lmstfyx.Bury(nil)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Errorf(ctx, "[doJobReport] job %s: marshal response: %v", jobID, err)
		return lmstfyx.Bury(nil)
	}

	action := resp.Action()
	switch action {
	case lmstfyx.JobRespStatusRelease:
		log.Warnf(ctx, "[doJobReport] job %s will be redelivered: %s", jobID, resp.Error.DevDetails)
	case lmstfyx.JobRespStatusBury:
		log.Errorf(ctx, "[doJobReport] job %s failed permanently: code=%d %s", jobID, resp.Error.Code, resp.Error.Message)
	}
	return &lmstfyx.JobResp{Action: action, Data: data}
}
