package model

import (
	"time"
)

// SettlementRecordModel 结算记录，成功项目提取资金时生成
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId      int64            `json:"project_id" gorm:"uniqueIndex;not null"`
	TotalAmount    string           `json:"total_amount" gorm:"type:varchar(78);not null"`   // 总金额
	PlatformFee    string           `json:"platform_fee" gorm:"type:varchar(78);not null"`   // 平台手续费
	CreatorAmount  string           `json:"creator_amount" gorm:"type:varchar(78);not null"` // 创建者获得金额
	TxHash         string           `json:"tx_hash" gorm:"type:varchar(66)"`
	BlockNum       int64            `json:"block_num"`
	Status         SettlementStatus `json:"status" gorm:"type:varchar(16);default:'success'"`
	SettlementType SettlementType   `json:"settlement_type" gorm:"type:varchar(16);not null"`
	SettlementTime *time.Time       `json:"settlement_time"`
}

// SettlementStatus 结算状态
type SettlementStatus string

const (
	SettlementStatusSuccess SettlementStatus = "success" // 成功
)

// SettlementType 结算类型
type SettlementType string

const (
	SettlementTypeSuccess SettlementType = "success" // 成功结算
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
