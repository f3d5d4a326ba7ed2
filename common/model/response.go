package model

import "net/http"

// Response HTTP 统一响应信封，apiserver 与 fasttest 共用
type Response struct {
	Meta MetaInfo    `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

// MetaInfo Code 通常等于 HTTP 状态码，Smart Wait 超时时为 CodeProcessing
type MetaInfo struct {
	Code    int           `json:"code"`
	Type    string        `json:"type"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail 字段级错误，Path 形如 Location.Lat
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

const (
	ResponseTypeOK              = "OK"
	ResponseTypeValidationError = "ValidationError"
	ResponseTypeNotFound        = "NotFound"
	ResponseTypeInternalError   = "InternalError"
	ResponseTypeProcessing      = "Processing"
)

// CodeProcessing 建议仍在计算中，客户端需轮询
const CodeProcessing = 3001

// OK 成功信封
func OK(data interface{}) Response {
	return Response{
		Meta: MetaInfo{Code: http.StatusOK, Type: ResponseTypeOK, Message: "OK"},
		Data: data,
	}
}

// Failure 错误信封，Type 由状态码推导
func Failure(httpCode int, message string, details []ErrorDetail) Response {
	return Response{
		Meta: MetaInfo{
			Code:    httpCode,
			Type:    ResponseTypeFor(httpCode),
			Message: message,
			Details: details,
		},
	}
}

// Pending 计算中信封
func Pending(message string, data interface{}) Response {
	return Response{
		Meta: MetaInfo{Code: CodeProcessing, Type: ResponseTypeProcessing, Message: message},
		Data: data,
	}
}

// ResponseTypeFor 状态码到响应类型
// 422 属于输入问题，与 400 同归 ValidationError
func ResponseTypeFor(httpCode int) string {
	switch {
	case httpCode == http.StatusNotFound:
		return ResponseTypeNotFound
	case httpCode == http.StatusBadRequest, httpCode == http.StatusUnprocessableEntity:
		return ResponseTypeValidationError
	case httpCode < http.StatusBadRequest:
		return ResponseTypeOK
	default:
		return ResponseTypeInternalError
	}
}

// Succeeded 信封是否表示已完成的成功结果
func (r Response) Succeeded() bool {
	return r.Meta.Type == ResponseTypeOK
}
