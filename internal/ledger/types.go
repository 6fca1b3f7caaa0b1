package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// ProjectStatus 项目状态，只能沿状态图向前推进
type ProjectStatus uint8

const (
	StatusActive ProjectStatus = iota
	StatusSuccessful
	StatusFailed
	StatusWithdrawn
)

func (s ProjectStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSuccessful:
		return "successful"
	case StatusFailed:
		return "failed"
	case StatusWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

// MarshalText 以状态名称序列化
func (s ProjectStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	MinDurationDays = 1
	MaxDurationDays = 90

	DefaultFeeRate uint64 = 250
	MaxFeeRate     uint64 = 1000
	FeeDenominator uint64 = 10000
)

var (
	// MinGoalAmount 0.1 ether
	MinGoalAmount = new(big.Int).Div(big.NewInt(params.Ether), big.NewInt(10))
	// MinContribution 0.01 ether
	MinContribution = new(big.Int).Div(big.NewInt(params.Ether), big.NewInt(100))
)

// Msg 调用上下文，由执行环境提供
type Msg struct {
	Sender common.Address
	Value  *big.Int
	Now    time.Time
}

// Bank 执行环境的转账原语
type Bank interface {
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// Project 项目快照
type Project struct {
	ID                uint64         `json:"id"`
	Creator           common.Address `json:"creator"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	GoalAmount        *big.Int       `json:"goalAmount"`
	CurrentAmount     *big.Int       `json:"currentAmount"`
	Deadline          time.Time      `json:"deadline"`
	CreatedAt         time.Time      `json:"createdAt"`
	Status            ProjectStatus  `json:"status"`
	Withdrawn         bool           `json:"withdrawn"`
	ContributorsCount uint64         `json:"contributorsCount"`
}

// CreateProjectInput 创建项目参数
type CreateProjectInput struct {
	Title        string
	Description  string
	GoalAmount   *big.Int
	DurationDays int64
}

// PlatformConfig 平台配置快照
type PlatformConfig struct {
	Owner           common.Address `json:"owner"`
	PlatformWallet  common.Address `json:"platformWallet"`
	PlatformFeeRate uint64         `json:"platformFeeRate"`
}
