package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64        `json:"project_id" gorm:"index;not null"`
	Amount    string       `json:"amount" gorm:"type:varchar(78);not null"` // wei
	Address   string       `json:"address" gorm:"type:varchar(42);index;not null"`
	TxHash    string       `json:"tx_hash" gorm:"type:varchar(66);uniqueIndex:idx_refund_tx"`
	LogIndex  int64        `json:"log_index" gorm:"uniqueIndex:idx_refund_tx"`
	BlockNum  int64        `json:"block_num"`
	Status    RefundStatus `json:"status" gorm:"type:varchar(16);default:'success'"`
}

// RefundStatus 退款状态
type RefundStatus string

const (
	RefundStatusSuccess RefundStatus = "success" // 已退还
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
