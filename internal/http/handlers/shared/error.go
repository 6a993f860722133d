package shared

import (
	"errors"

	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// mappedError 业务错误到接口响应的映射
type mappedError struct {
	target error
	code   int
	msg    string
}

// 顺序敏感：具体错误在前，分类错误在后
var serviceErrorRules = []mappedError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid email or password"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, msg: "user disabled"},
	{target: service.ErrAuthorization, code: response.CodeForbidden, msg: "admin capability required"},
	{target: service.ErrResourceNotFound, code: response.CodeNotFound, msg: "resource not found"},
	{target: service.ErrBuyerNotFound, code: response.CodeNotFound, msg: "buyer not found"},
	{target: service.ErrCreatorNotFound, code: response.CodeNotFound, msg: "creator not found"},
	{target: service.ErrPurchaseNotFound, code: response.CodeNotFound, msg: "purchase not found"},
	{target: service.ErrPayoutNotFound, code: response.CodeNotFound, msg: "payout request not found"},
	{target: service.ErrPaymentOrderNotFound, code: response.CodeNotFound, msg: "payment order not found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "not found"},
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, msg: "invalid amount"},
	{target: service.ErrInvalidCommission, code: response.CodeBadRequest, msg: "invalid commission percent"},
	{target: service.ErrReasonRequired, code: response.CodeBadRequest, msg: "reason required"},
	{target: service.ErrInvalidDecision, code: response.CodeBadRequest, msg: "invalid review decision"},
	{target: service.ErrInvalidCategory, code: response.CodeBadRequest, msg: "category slug and name required"},
	{target: service.ErrInvalidStateTransition, code: response.CodeConflict, msg: "invalid state transition"},
	{target: service.ErrSlugExists, code: response.CodeConflict, msg: "slug already exists"},
	{target: service.ErrInsufficientBalance, code: response.CodeUnprocessable, msg: "insufficient balance"},
	{target: service.ErrResourceNotPurchasable, code: response.CodeBadRequest, msg: "resource not purchasable"},
	{target: service.ErrPaymentProviderNotSupported, code: response.CodeBadRequest, msg: "payment provider not supported"},
	{target: service.ErrPaymentSignatureInvalid, code: response.CodeBadRequest, msg: "payment signature invalid"},
	{target: service.ErrPaymentNotCaptured, code: response.CodeUnprocessable, msg: "payment not captured"},
	{target: service.ErrPaymentAmountMismatch, code: response.CodeUnprocessable, msg: "payment amount mismatch"},
	{target: service.ErrPaymentGatewayRequestFailed, code: response.CodeBadGateway, msg: "payment gateway request failed"},
	{target: service.ErrPaymentGatewayResponseInvalid, code: response.CodeBadGateway, msg: "payment gateway response invalid"},
}

// RespondServiceError 将业务错误映射为响应码，未识别的错误按内部错误处理
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			RequestLog(c).Warnw("handler_error",
				"code", rule.code,
				"kind", rule.msg,
				"error", err,
			)
			response.Error(c, rule.code, rule.msg)
			return
		}
	}
	RespondError(c, response.CodeInternal, fallbackMsg, err)
}
