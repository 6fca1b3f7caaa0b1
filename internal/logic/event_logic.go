package logic

import (
	"errors"
	"fmt"

	"github.com/blues/cfledger/internal/model"
	"gorm.io/gorm"
)

// ErrEventExists 同一交易位置的事件已入库
var ErrEventExists = errors.New("事件已存在")

// EventLogic 事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 创建事件记录
func (e *EventLogic) CreateEvent(event *model.EventModel) error {
	// 验证事件数据
	if err := e.validateEvent(event); err != nil {
		return err
	}

	// 检查事件是否已存在
	exists, err := e.CheckEventExists(event.TxHash, event.LogIndex)
	if err != nil {
		return err
	}
	if exists {
		return ErrEventExists
	}

	// 创建事件记录
	if err := e.db.Create(event).Error; err != nil {
		return fmt.Errorf("创建事件记录失败: %w", err)
	}

	return nil
}

// GetEventByPosition 按交易哈希和日志序号获取事件，不存在时返回 nil
func (e *EventLogic) GetEventByPosition(txHash string, logIndex int64) (*model.EventModel, error) {
	var event model.EventModel
	err := e.db.Where("tx_hash = ? AND log_index = ?", txHash, logIndex).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取事件失败: %w", err)
	}
	return &event, nil
}

// CheckEventExists 检查事件是否存在
func (e *EventLogic) CheckEventExists(txHash string, logIndex int64) (bool, error) {
	var count int64
	if err := e.db.Model(&model.EventModel{}).
		Where("tx_hash = ? AND log_index = ?", txHash, logIndex).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("检查事件失败: %w", err)
	}
	return count > 0, nil
}

// GetEvents 获取事件列表，按区块和日志顺序排列
func (e *EventLogic) GetEvents(projectId int64, eventName string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64
	_, pageSize, offset := normalizePage(page, pageSize)

	// 构建查询条件
	query := e.db.Model(&model.EventModel{})
	if projectId > 0 {
		query = query.Where("project_id = ?", projectId)
	}
	if eventName != "" {
		query = query.Where("event_name = ?", eventName)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 分页查询
	if err := query.Offset(offset).Limit(pageSize).Order("block_num ASC, log_index ASC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// UpdateEventProcessed 更新事件处理状态
func (e *EventLogic) UpdateEventProcessed(id int64, processed bool) error {
	if err := e.db.Model(&model.EventModel{}).Where("id = ?", id).Update("processed", processed).Error; err != nil {
		return fmt.Errorf("更新事件处理状态失败: %w", err)
	}

	return nil
}

// GetLastProcessedBlock 已入库的最大区块号
func (e *EventLogic) GetLastProcessedBlock() (int64, error) {
	var block int64
	if err := e.db.Model(&model.EventModel{}).
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&block).Error; err != nil {
		return 0, fmt.Errorf("获取最大区块号失败: %w", err)
	}
	return block, nil
}

// GetEventStatistics 获取事件统计信息，projectId 为 0 时统计全部
func (e *EventLogic) GetEventStatistics(projectId int64) (map[string]interface{}, error) {
	scoped := func() *gorm.DB {
		query := e.db.Model(&model.EventModel{})
		if projectId > 0 {
			query = query.Where("project_id = ?", projectId)
		}
		return query
	}

	var total, processed int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("获取总事件数失败: %w", err)
	}
	if err := scoped().Where("processed = ?", true).Count(&processed).Error; err != nil {
		return nil, fmt.Errorf("获取已处理事件数失败: %w", err)
	}

	return map[string]interface{}{
		"total_events":     total,
		"processed_events": processed,
		"pending_events":   total - processed,
	}, nil
}

// validateEvent 验证事件数据
func (e *EventLogic) validateEvent(event *model.EventModel) error {
	if event.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}
	if event.EventName == "" {
		return errors.New("事件名称不能为空")
	}
	if event.ContractAddress == "" {
		return errors.New("合约地址不能为空")
	}
	return nil
}
