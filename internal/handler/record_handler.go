package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecordHandler 事件投影查询处理器
type RecordHandler struct {
	projectLogic    *logic.ProjectLogic
	contributeLogic *logic.ContributeRecordLogic
	refundLogic     *logic.RefundRecordLogic
	settlementLogic *logic.SettlementRecordLogic
	eventLogic      *logic.EventLogic
}

// NewRecordHandler 创建事件投影查询处理器
func NewRecordHandler(db *gorm.DB) *RecordHandler {
	return &RecordHandler{
		projectLogic:    logic.NewProjectLogic(db),
		contributeLogic: logic.NewContributeRecordLogic(db),
		refundLogic:     logic.NewRefundRecordLogic(db),
		settlementLogic: logic.NewSettlementRecordLogic(db),
		eventLogic:      logic.NewEventLogic(db),
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

// GetProjects 获取项目投影列表
func (h *RecordHandler) GetProjects(c *gin.Context) {
	page, pageSize := pageParams(c)

	projects, total, err := h.projectLogic.GetProjects(c.Query("status"), c.Query("creator"), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"projects":   projects,
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetProjectStats 获取项目投影统计
func (h *RecordHandler) GetProjectStats(c *gin.Context) {
	stats, err := h.projectLogic.GetAllProjectStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// GetProjectContributeRecords 获取项目贡献记录
func (h *RecordHandler) GetProjectContributeRecords(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.contributeLogic.GetProjectContributeRecords(int64(id), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"records":    records,
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetAddressContributeRecords 获取账户贡献记录
func (h *RecordHandler) GetAddressContributeRecords(c *gin.Context) {
	addr, err := chain.ParseAddress(c.Param("address"))
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.contributeLogic.GetAddressContributeRecords(addr.Hex(), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"records":    records,
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetProjectRefunds 获取项目退款记录
func (h *RecordHandler) GetProjectRefunds(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	refunds, total, err := h.refundLogic.GetProjectRefunds(int64(id), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"refunds":    refunds,
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetProjectSettlement 获取项目结算记录
func (h *RecordHandler) GetProjectSettlement(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	settlement, err := h.settlementLogic.GetProjectSettlement(int64(id))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if settlement == nil {
		ErrorResponse(c, http.StatusNotFound, "settlement not found")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", settlement)
}

// GetProjectEvents 获取项目事件
func (h *RecordHandler) GetProjectEvents(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	events, total, err := h.eventLogic.GetEvents(int64(id), c.Query("event"), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"events":     events,
		"pagination": newPagination(page, pageSize, total),
	})
}
