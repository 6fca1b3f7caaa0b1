package model

import (
	"time"
)

// ProjectModel 众筹项目投影，主键为账本项目ID
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	// 众筹信息，金额单位 wei，十进制字符串
	GoalAmount       string `json:"goal_amount" gorm:"type:varchar(78);not null"`
	CurrentAmount    string `json:"current_amount" gorm:"type:varchar(78);default:'0'"`
	ContributorCount int64  `json:"contributor_count" gorm:"default:0"`

	// 时间信息
	StartTime time.Time `json:"start_time" gorm:"not null"`
	Deadline  time.Time `json:"deadline" gorm:"not null"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"type:varchar(16);index;default:'active'"`

	// 创建者信息
	CreatorAddress string `json:"creator_address" gorm:"type:varchar(42);index;not null"`

	// 账本信息
	LedgerAddress   string `json:"ledger_address" gorm:"type:varchar(42)"`
	TransactionHash string `json:"transaction_hash" gorm:"type:varchar(66)"`
	BlockNum        int64  `json:"block_num"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive     ProjectStatus = "active"     // 进行中
	ProjectStatusSuccessful ProjectStatus = "successful" // 已达标
	ProjectStatusFailed     ProjectStatus = "failed"     // 失败
	ProjectStatusWithdrawn  ProjectStatus = "withdrawn"  // 已提取
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
