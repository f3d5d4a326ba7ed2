package ginx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"agrichain/common/model"
	"agrichain/internal/app/pkg/errorx"
)

// CodeProcessing Smart Wait 超时，建议仍在计算中
const CodeProcessing = model.CodeProcessing

// ProcessingData Smart Wait 超时返回的数据
type ProcessingData struct {
	AdvisoryID string `json:"advisory_id" example:"12345678900001000"`
	PollURL    string `json:"poll_url" example:"/api/v1/recommendations/12345678900001000"`
}

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, model.OK(data))
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, message string) {
	ErrorWithDetails(c, httpCode, message, nil)
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpCode int, message string, details []model.ErrorDetail) {
	c.JSON(httpCode, model.Failure(httpCode, message, details))
}

// Processing 处理中响应（3001），用于 Smart Wait 超时场景
func Processing(c *gin.Context, advisoryID string, pollURL string) {
	c.JSON(http.StatusOK, model.Pending(
		"Recommendation is being computed, please poll for results",
		ProcessingData{AdvisoryID: advisoryID, PollURL: pollURL},
	))
}

// FromError 按业务错误映射状态码
func FromError(c *gin.Context, err error) {
	code := errorx.HTTPStatus(err)

	var details []model.ErrorDetail
	var be *errorx.BusinessError
	if errors.As(err, &be) {
		for _, d := range be.Details {
			details = append(details, model.ErrorDetail{Path: d.Path, Info: d.Info})
		}
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal error"
	}
	ErrorWithDetails(c, code, message, details)
}

// BadRequest 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// BadRequestWithValidation 400 错误（带验证详情）
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]model.ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, model.ErrorDetail{
				Path: fieldPath(fieldErr),
				Info: getValidationErrorMessage(fieldErr),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details)
		return
	}

	BadRequest(c, err.Error())
}

// NotFound 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// fieldPath 去掉顶层结构体名，例如 CreateRecommendationRequest.Location.Lat → Location.Lat
func fieldPath(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fieldErr.Field()
}

// getValidationErrorMessage 根据验证错误类型返回友好的错误消息
func getValidationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "gte":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "lte":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}
