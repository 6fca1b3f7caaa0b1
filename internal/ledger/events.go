package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 事件名称，与链上合约事件同名
const (
	EventProjectCreated     = "ProjectCreated"
	EventContributionMade   = "ContributionMade"
	EventProjectSuccessful  = "ProjectSuccessful"
	EventProjectFailed      = "ProjectFailed"
	EventFundsWithdrawn     = "FundsWithdrawn"
	EventRefundIssued       = "RefundIssued"
	EventPlatformFeeUpdated = "PlatformFeeUpdated"
)

// Event 账本事件
type Event interface {
	EventName() string
	// Project 返回关联项目ID，平台级事件为 0
	Project() uint64
}

type ProjectCreated struct {
	ProjectID uint64         `json:"projectId"`
	Creator   common.Address `json:"creator"`
}

type ContributionMade struct {
	ProjectID   uint64         `json:"projectId"`
	Contributor common.Address `json:"contributor"`
	Amount      *big.Int       `json:"amount"`
	Total       *big.Int       `json:"totalAmount"`
}

type ProjectSuccessful struct {
	ProjectID   uint64   `json:"projectId"`
	FinalAmount *big.Int `json:"finalAmount"`
}

type ProjectFailed struct {
	ProjectID uint64 `json:"projectId"`
}

type FundsWithdrawn struct {
	ProjectID     uint64   `json:"projectId"`
	CreatorAmount *big.Int `json:"creatorAmount"`
	FeeAmount     *big.Int `json:"platformFee"`
}

type RefundIssued struct {
	ProjectID   uint64         `json:"projectId"`
	Contributor common.Address `json:"contributor"`
	Amount      *big.Int       `json:"amount"`
}

type PlatformFeeUpdated struct {
	OldRate uint64 `json:"oldRate"`
	NewRate uint64 `json:"newRate"`
}

func (ProjectCreated) EventName() string     { return EventProjectCreated }
func (ContributionMade) EventName() string   { return EventContributionMade }
func (ProjectSuccessful) EventName() string  { return EventProjectSuccessful }
func (ProjectFailed) EventName() string      { return EventProjectFailed }
func (FundsWithdrawn) EventName() string     { return EventFundsWithdrawn }
func (RefundIssued) EventName() string       { return EventRefundIssued }
func (PlatformFeeUpdated) EventName() string { return EventPlatformFeeUpdated }

func (e ProjectCreated) Project() uint64    { return e.ProjectID }
func (e ContributionMade) Project() uint64  { return e.ProjectID }
func (e ProjectSuccessful) Project() uint64 { return e.ProjectID }
func (e ProjectFailed) Project() uint64     { return e.ProjectID }
func (e FundsWithdrawn) Project() uint64    { return e.ProjectID }
func (e RefundIssued) Project() uint64      { return e.ProjectID }
func (PlatformFeeUpdated) Project() uint64  { return 0 }
