package model

import (
	"time"
)

// ContributeRecordModel 贡献记录
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64  `json:"project_id" gorm:"index;not null"`
	Amount      string `json:"amount" gorm:"type:varchar(78);not null"`       // wei
	TotalAmount string `json:"total_amount" gorm:"type:varchar(78);not null"` // 贡献后项目总额
	Address     string `json:"address" gorm:"type:varchar(42);index;not null"`
	TxHash      string `json:"tx_hash" gorm:"type:varchar(66);uniqueIndex:idx_contribute_tx"`
	LogIndex    int64  `json:"log_index" gorm:"uniqueIndex:idx_contribute_tx"`
	BlockNum    int64  `json:"block_num"`
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}
