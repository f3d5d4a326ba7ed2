package errorx

import (
	"errors"
	"net/http"
)

// 定义业务错误
var (
	ErrAdvisoryNotFound    = errors.New("advisory not found")
	ErrMarketDataMissing   = errors.New("market data unavailable")
	ErrQueueUnavailable    = errors.New("recommendation queue unavailable")
	ErrRecommendationInput = errors.New("invalid recommendation input")
)

// BusinessError 业务错误结构
type BusinessError struct {
	Code    int
	Message string
	Details []ErrorDetail
	cause   error
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string
	Info string
}

// Error 实现 error 接口
func (e *BusinessError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *BusinessError) Unwrap() error {
	return e.cause
}

// NewBusinessError 创建业务错误
func NewBusinessError(code int, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装底层错误为业务错误
func Wrap(code int, message string, cause error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// WithDetail 追加错误详情
func (e *BusinessError) WithDetail(path, info string) *BusinessError {
	e.Details = append(e.Details, ErrorDetail{Path: path, Info: info})
	return e
}

// HTTPStatus 将错误映射为 HTTP 状态码
// 非业务错误一律 500
func HTTPStatus(err error) int {
	var be *BusinessError
	if errors.As(err, &be) && be.Code > 0 {
		return be.Code
	}

	switch {
	case errors.Is(err, ErrAdvisoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRecommendationInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrQueueUnavailable), errors.Is(err, ErrMarketDataMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
