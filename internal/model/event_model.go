package model

import (
	"time"
)

// EventModel 账本事件日志
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"type:varchar(42);not null"`
	ContractName    string `json:"contract_name" gorm:"not null"`
	EventName       string `json:"event_name" gorm:"index;not null"`
	ProjectId       int64  `json:"project_id" gorm:"index"`
	TxHash          string `json:"tx_hash" gorm:"type:varchar(66);not null;uniqueIndex:idx_event_tx"`
	BlockNum        int64  `json:"block_num" gorm:"not null"`
	LogIndex        int64  `json:"log_index" gorm:"uniqueIndex:idx_event_tx"`
	Data            string `json:"data" gorm:"type:text"`
	Processed       bool   `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
