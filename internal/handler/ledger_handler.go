package handler

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/engine"
	"github.com/blues/cfledger/internal/event"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/gin-gonic/gin"
)

// LedgerHandler 账本调用处理器
type LedgerHandler struct {
	engine     *engine.Engine
	relay      *event.Relay
	eventLogic *logic.EventLogic
}

// NewLedgerHandler 创建账本调用处理器
func NewLedgerHandler(eng *engine.Engine, relay *event.Relay, eventLogic *logic.EventLogic) *LedgerHandler {
	return &LedgerHandler{
		engine:     eng,
		relay:      relay,
		eventLogic: eventLogic,
	}
}

func projectID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return 0, false
	}
	return id, true
}

func bindValue(c *gin.Context) (*big.Int, bool) {
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	value, err := chain.ParseEther(req.Value)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return value, true
}

// CreateProject 创建项目
func (h *LedgerHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := chain.ParseEther(req.GoalAmount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ReceiptResponse(c, h.engine.CreateProject(c.Request.Context(), callerOf(c), ledger.CreateProjectInput{
		Title:        req.Title,
		Description:  req.Description,
		GoalAmount:   goal,
		DurationDays: req.DurationDays,
	}))
}

// GetProject 获取项目详情
func (h *LedgerHandler) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	project, err := h.engine.Project(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	eligible, err := h.engine.RefundEligible(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", newProjectResponse(project, eligible))
}

// GetProjectStats 获取项目总数和成功率
func (h *LedgerHandler) GetProjectStats(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "ok", ProjectStatsResponse{
		TotalProjects: h.engine.TotalProjects(c.Request.Context()),
		SuccessRate:   h.engine.SuccessRate(c.Request.Context()),
	})
}

// Contribute 向项目出资
func (h *LedgerHandler) Contribute(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	value, ok := bindValue(c)
	if !ok {
		return
	}
	ReceiptResponse(c, h.engine.Contribute(c.Request.Context(), callerOf(c), id, value))
}

// WithdrawFunds 创建者提取资金
func (h *LedgerHandler) WithdrawFunds(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	ReceiptResponse(c, h.engine.WithdrawFunds(c.Request.Context(), callerOf(c), id))
}

// RequestRefund 出资人申请退款
func (h *LedgerHandler) RequestRefund(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	ReceiptResponse(c, h.engine.RequestRefund(c.Request.Context(), callerOf(c), id))
}

// CancelProject 创建者取消项目
func (h *LedgerHandler) CancelProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	ReceiptResponse(c, h.engine.CancelProject(c.Request.Context(), callerOf(c), id))
}

// EmergencyFailProject 管理员强制项目失败
func (h *LedgerHandler) EmergencyFailProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	ReceiptResponse(c, h.engine.EmergencyFailProject(c.Request.Context(), callerOf(c), id))
}

// GetContributors 获取项目贡献者
func (h *LedgerHandler) GetContributors(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	contributors, err := h.engine.Contributors(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	addrs := make([]string, 0, len(contributors))
	for _, a := range contributors {
		addrs = append(addrs, a.Hex())
	}
	SuccessResponse(c, http.StatusOK, "ok", addrs)
}

// GetContribution 获取账户在项目中的贡献
func (h *LedgerHandler) GetContribution(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	addr, err := chain.ParseAddress(c.Param("address"))
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	amount, err := h.engine.Contribution(c.Request.Context(), id, addr)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", ContributionResponse{
		ProjectID:      id,
		Address:        addr.Hex(),
		AmountResponse: newAmountResponse(amount),
	})
}

// GetCreatedProjects 获取账户创建的项目
func (h *LedgerHandler) GetCreatedProjects(c *gin.Context) {
	addr, err := chain.ParseAddress(c.Param("address"))
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	ids := h.engine.CreatedProjects(c.Request.Context(), addr)
	if ids == nil {
		ids = []uint64{}
	}
	SuccessResponse(c, http.StatusOK, "ok", ids)
}

// GetParticipatedProjects 获取账户参与的项目
func (h *LedgerHandler) GetParticipatedProjects(c *gin.Context) {
	addr, err := chain.ParseAddress(c.Param("address"))
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	ids := h.engine.ParticipatedProjects(c.Request.Context(), addr)
	if ids == nil {
		ids = []uint64{}
	}
	SuccessResponse(c, http.StatusOK, "ok", ids)
}

// GetPlatform 获取平台配置
func (h *LedgerHandler) GetPlatform(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "ok", h.engine.Platform(c.Request.Context()))
}

// UpdatePlatformFeeRate 更新平台手续费率
func (h *LedgerHandler) UpdatePlatformFeeRate(c *gin.Context) {
	var req FeeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	ReceiptResponse(c, h.engine.UpdatePlatformFeeRate(c.Request.Context(), callerOf(c), *req.Rate))
}

// UpdatePlatformWallet 更新平台钱包
func (h *LedgerHandler) UpdatePlatformWallet(c *gin.Context) {
	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := chain.ParseAddress(req.Wallet)
	if err != nil {
		LedgerErrorResponse(c, ledger.ErrInvalidWallet)
		return
	}
	ReceiptResponse(c, h.engine.UpdatePlatformWallet(c.Request.Context(), callerOf(c), wallet))
}

// SendPayment 向账本直接转账，总是被拒绝
func (h *LedgerHandler) SendPayment(c *gin.Context) {
	value, ok := bindValue(c)
	if !ok {
		return
	}
	ReceiptResponse(c, h.engine.Send(c.Request.Context(), callerOf(c), h.engine.Address(), value))
}

// GetAccount 获取账户余额
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	addr, err := chain.ParseAddress(c.Param("address"))
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", AccountResponse{
		Address: addr.Hex(),
		Balance: newAmountResponse(h.engine.BalanceOf(addr)),
	})
}

// GetStatus 获取账本运行状态
func (h *LedgerHandler) GetStatus(c *gin.Context) {
	stats, err := h.eventLogic.GetEventStatistics(0)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	lastProcessed, err := h.eventLogic.GetLastProcessedBlock()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", LedgerStatusResponse{
		Address:       h.engine.Address().Hex(),
		BlockNumber:   h.engine.BlockNumber(c.Request.Context()),
		TotalSupply:   newAmountResponse(h.engine.TotalSupply()),
		PendingEvents: h.relay.Pending(),
		LastProcessed: lastProcessed,
		Events:        stats,
	})
}
