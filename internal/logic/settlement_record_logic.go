package logic

import (
	"errors"
	"fmt"

	"github.com/blues/cfledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementRecordLogic 结算记录业务逻辑
type SettlementRecordLogic struct {
	db *gorm.DB
}

// NewSettlementRecordLogic 创建结算记录业务逻辑
func NewSettlementRecordLogic(db *gorm.DB) *SettlementRecordLogic {
	return &SettlementRecordLogic{db: db}
}

// CreateSettlement 写入结算记录并将项目标记为已提取
func (s *SettlementRecordLogic) CreateSettlement(record *model.SettlementRecordModel) error {
	if record.ProjectId == 0 {
		return errors.New("项目ID不能为空")
	}
	if record.Status == "" {
		record.Status = model.SettlementStatusSuccess
	}
	if record.SettlementType == "" {
		record.SettlementType = model.SettlementTypeSuccess
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error; err != nil {
			return fmt.Errorf("创建结算记录失败: %w", err)
		}
		return tx.Model(&model.ProjectModel{}).
			Where("id = ?", record.ProjectId).
			Update("status", model.ProjectStatusWithdrawn).Error
	})
}

// GetProjectSettlement 获取项目结算记录，未结算返回 nil
func (s *SettlementRecordLogic) GetProjectSettlement(projectId int64) (*model.SettlementRecordModel, error) {
	var record model.SettlementRecordModel
	err := s.db.Where("project_id = ?", projectId).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取结算记录失败: %w", err)
	}
	return &record, nil
}
