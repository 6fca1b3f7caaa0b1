package handler

import (
	"math/big"
	"time"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/ledger"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 请求模型，金额均为 ether 十进制字符串

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	GoalAmount   string `json:"goalAmount" binding:"required"`
	DurationDays int64  `json:"durationDays"`
}

// ValueRequest 附带金额的请求
type ValueRequest struct {
	Value string `json:"value" binding:"required"`
}

// FeeRateRequest 更新手续费率请求
type FeeRateRequest struct {
	Rate *uint64 `json:"rate" binding:"required"`
}

// WalletRequest 更新平台钱包请求
type WalletRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID                 uint64    `json:"id"`
	Creator            string    `json:"creator"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	GoalAmount         string    `json:"goalAmount"`
	GoalAmountEther    string    `json:"goalAmountEther"`
	CurrentAmount      string    `json:"currentAmount"`
	CurrentAmountEther string    `json:"currentAmountEther"`
	Deadline           time.Time `json:"deadline"`
	CreatedAt          time.Time `json:"createdAt"`
	Status             string    `json:"status"`
	Withdrawn          bool      `json:"withdrawn"`
	ContributorsCount  uint64    `json:"contributorsCount"`
	RefundEligible     bool      `json:"refundEligible"`
}

func newProjectResponse(p ledger.Project, refundEligible bool) ProjectResponse {
	return ProjectResponse{
		ID:                 p.ID,
		Creator:            p.Creator.Hex(),
		Title:              p.Title,
		Description:        p.Description,
		GoalAmount:         p.GoalAmount.String(),
		GoalAmountEther:    chain.FormatEther(p.GoalAmount),
		CurrentAmount:      p.CurrentAmount.String(),
		CurrentAmountEther: chain.FormatEther(p.CurrentAmount),
		Deadline:           p.Deadline,
		CreatedAt:          p.CreatedAt,
		Status:             p.Status.String(),
		Withdrawn:          p.Withdrawn,
		ContributorsCount:  p.ContributorsCount,
		RefundEligible:     refundEligible,
	}
}

// ProjectStatsResponse 平台项目统计
type ProjectStatsResponse struct {
	TotalProjects uint64 `json:"totalProjects"`
	SuccessRate   uint64 `json:"successRate"`
}

// AmountResponse 金额响应
type AmountResponse struct {
	Wei   string `json:"wei"`
	Ether string `json:"ether"`
}

func newAmountResponse(wei *big.Int) AmountResponse {
	return AmountResponse{Wei: wei.String(), Ether: chain.FormatEther(wei)}
}

// ContributionResponse 账户在项目中的贡献
type ContributionResponse struct {
	ProjectID uint64 `json:"projectId"`
	Address   string `json:"address"`
	AmountResponse
}

// AccountResponse 账户余额
type AccountResponse struct {
	Address string         `json:"address"`
	Balance AmountResponse `json:"balance"`
}

// LedgerStatusResponse 账本运行状态
type LedgerStatusResponse struct {
	Address       string                 `json:"address"`
	BlockNumber   uint64                 `json:"blockNumber"`
	TotalSupply   AmountResponse         `json:"totalSupply"`
	PendingEvents int                    `json:"pendingEvents"`
	LastProcessed int64                  `json:"lastProcessedBlock"`
	Events        map[string]interface{} `json:"events"`
}
