package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// view 加锁读取；ctx 中已有交易帧时说明调用方正处于收款回调内，锁已由外层持有
func (e *Engine) view(ctx context.Context) (now func() time.Time, unlock func()) {
	if frame, ok := ctx.Value(txKey{}).(*txFrame); ok {
		return func() time.Time { return frame.now }, func() {}
	}
	e.mu.Lock()
	return e.clock, e.mu.Unlock
}

// Project 项目快照
func (e *Engine) Project(ctx context.Context, id uint64) (ledger.Project, error) {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetProject(id)
}

// TotalProjects 项目总数
func (e *Engine) TotalProjects(ctx context.Context) uint64 {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetTotalProjects()
}

// SuccessRate 项目成功率百分比
func (e *Engine) SuccessRate(ctx context.Context) uint64 {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetProjectSuccessRate()
}

// RefundEligible 当前时刻项目是否可退款
func (e *Engine) RefundEligible(ctx context.Context, id uint64) (bool, error) {
	now, unlock := e.view(ctx)
	defer unlock()
	p, err := e.ledger.GetProject(id)
	if err != nil {
		return false, err
	}
	return ledger.IsRefundEligible(p, now()), nil
}

// Contribution 账户在项目中的贡献余额
func (e *Engine) Contribution(ctx context.Context, id uint64, account common.Address) (*big.Int, error) {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetUserContribution(id, account)
}

// Contributors 项目贡献者，按首次贡献顺序
func (e *Engine) Contributors(ctx context.Context, id uint64) ([]common.Address, error) {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetProjectContributors(id)
}

// CreatedProjects 账户创建的项目
func (e *Engine) CreatedProjects(ctx context.Context, account common.Address) []uint64 {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetUserCreatedProjects(account)
}

// ParticipatedProjects 账户参与的项目
func (e *Engine) ParticipatedProjects(ctx context.Context, account common.Address) []uint64 {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.GetUserParticipatedProjects(account)
}

// Platform 平台配置
func (e *Engine) Platform(ctx context.Context) ledger.PlatformConfig {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.PlatformConfig()
}

// BalanceOf 账户余额
func (e *Engine) BalanceOf(account common.Address) *big.Int {
	return e.vault.BalanceOf(account)
}

// TotalSupply 全部账户余额之和
func (e *Engine) TotalSupply() *big.Int {
	return e.vault.TotalSupply()
}

// BlockNumber 最新区块号
func (e *Engine) BlockNumber(ctx context.Context) uint64 {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.block
}
