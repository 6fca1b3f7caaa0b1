package handler

import (
	"errors"
	"net/http"

	"github.com/blues/cfledger/internal/engine"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// StatusOf 账本错误类别对应的HTTP状态码
func StatusOf(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindAuthorization:
		return http.StatusForbidden
	case ledger.KindState:
		return http.StatusConflict
	case ledger.KindPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// LedgerErrorResponse 按账本错误类别返回错误
func LedgerErrorResponse(c *gin.Context, err error) {
	var le *ledger.Error
	if errors.As(err, &le) {
		ErrorResponse(c, StatusOf(le.Kind), le.Reason)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, err.Error())
}

// ReceiptResponse 返回调用回执，回滚的调用按错误类别返回状态码
func ReceiptResponse(c *gin.Context, r engine.Receipt) {
	if r.Success {
		SuccessResponse(c, http.StatusOK, "transaction committed", r)
		return
	}
	c.JSON(StatusOf(ledger.KindOf(r.Err)), Response{
		Success: false,
		Message: r.Reason,
		Data:    r,
	})
}
