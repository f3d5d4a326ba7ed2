package errorutil

import (
	"errors"
	"fmt"
)

// 错误码
const (
	CodeInvalidPayload = 400 // 任务数据不合法，重试无意义
	CodeNoMarkets      = 422 // 没有可评估的市场
	CodeInternal       = 500
	CodeUnavailable    = 503 // 依赖暂时不可用（队列、上游）
)

// Error 错误结构（包含可重试标记）
type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	DevDetails string `json:"dev_details,omitempty"`
	cause      error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code int, message string, retryable bool, cause error) *Error {
	e := &Error{Code: code, Message: message, Retryable: retryable, cause: cause}
	if cause != nil {
		e.DevDetails = fmt.Sprintf("%+v", cause)
	}
	return e
}

// Retriable 依赖暂时不可用，Job 交给 lmstfy 重投
func Retriable(message string) *Error {
	return newError(CodeUnavailable, message, true, nil)
}

// RetriableWithCause 同 Retriable，保留原始错误
func RetriableWithCause(message string, cause error) *Error {
	return newError(CodeUnavailable, message, true, cause)
}

// NonRetriable 输入或业务规则错误，重投也不会成功
func NonRetriable(code int, message string) *Error {
	return newError(code, message, false, nil)
}

// NonRetriableWithCause 同 NonRetriable，保留原始错误
func NonRetriableWithCause(code int, message string, cause error) *Error {
	return newError(code, message, false, cause)
}

// Wrap 已分类的错误原样返回，其余按内部错误处理且不重试
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return newError(CodeInternal, err.Error(), false, err)
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
