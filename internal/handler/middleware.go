package handler

import (
	"net/http"
	"time"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CallerHeader 调用方地址，由上游网关设置
	CallerHeader    = "X-Caller-Address"
	RequestIDHeader = "X-Request-ID"

	callerKey    = "caller"
	requestIDKey = "requestId"
)

// RequestID 为每个请求分配请求ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog 请求日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s %d %s request_id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetString(requestIDKey))
	}
}

// RequireCaller 解析调用方地址，写操作必须携带
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CallerHeader)
		if raw == "" {
			ErrorResponse(c, http.StatusUnauthorized, "missing "+CallerHeader+" header")
			c.Abort()
			return
		}
		caller, err := chain.ParseAddress(raw)
		if err != nil {
			LedgerErrorResponse(c, err)
			c.Abort()
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerOf(c *gin.Context) common.Address {
	caller, _ := c.Get(callerKey)
	addr, _ := caller.(common.Address)
	return addr
}
