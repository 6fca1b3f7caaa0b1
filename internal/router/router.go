package router

import (
	"net/http"

	"github.com/blues/cfledger/internal/handler"
	"github.com/gin-gonic/gin"
)

// Setup 注册全部路由
func Setup(ledgerHandler *handler.LedgerHandler, recordHandler *handler.RecordHandler) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(handler.RequestID())
	r.Use(handler.AccessLog())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "cfledger",
		})
	})

	caller := handler.RequireCaller()

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 项目相关路由
		projects := v1.Group("/projects")
		{
			projects.GET("", recordHandler.GetProjects)
			projects.POST("", caller, ledgerHandler.CreateProject)
			projects.GET("/stats", ledgerHandler.GetProjectStats)
			projects.GET("/:id", ledgerHandler.GetProject)
			projects.POST("/:id/contribute", caller, ledgerHandler.Contribute)
			projects.POST("/:id/withdraw", caller, ledgerHandler.WithdrawFunds)
			projects.POST("/:id/refund", caller, ledgerHandler.RequestRefund)
			projects.POST("/:id/cancel", caller, ledgerHandler.CancelProject)
			projects.GET("/:id/contributors", ledgerHandler.GetContributors)
			projects.GET("/:id/contributions/:address", ledgerHandler.GetContribution)
			projects.GET("/:id/records", recordHandler.GetProjectContributeRecords)
			projects.GET("/:id/refunds", recordHandler.GetProjectRefunds)
			projects.GET("/:id/settlement", recordHandler.GetProjectSettlement)
			projects.GET("/:id/events", recordHandler.GetProjectEvents)
		}

		// 用户相关路由
		users := v1.Group("/users/:address")
		{
			users.GET("/created", ledgerHandler.GetCreatedProjects)
			users.GET("/participated", ledgerHandler.GetParticipatedProjects)
			users.GET("/contributions", recordHandler.GetAddressContributeRecords)
		}

		// 平台配置
		platform := v1.Group("/platform")
		{
			platform.GET("", ledgerHandler.GetPlatform)
			platform.PUT("/fee-rate", caller, ledgerHandler.UpdatePlatformFeeRate)
			platform.PUT("/wallet", caller, ledgerHandler.UpdatePlatformWallet)
		}

		v1.POST("/admin/projects/:id/fail", caller, ledgerHandler.EmergencyFailProject)

		v1.POST("/ledger/payments", caller, ledgerHandler.SendPayment)
		v1.GET("/ledger/status", ledgerHandler.GetStatus)
		v1.GET("/accounts/:address", ledgerHandler.GetAccount)
		v1.GET("/records/stats", recordHandler.GetProjectStats)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, "+handler.CallerHeader+", "+handler.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
