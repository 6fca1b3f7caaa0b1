package logic

import (
	"errors"
	"fmt"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContributeRecordLogic 贡献记录业务逻辑
type ContributeRecordLogic struct {
	db *gorm.DB
}

// NewContributeRecordLogic 创建贡献记录业务逻辑
func NewContributeRecordLogic(db *gorm.DB) *ContributeRecordLogic {
	return &ContributeRecordLogic{db: db}
}

// CreateContributeRecord 写入贡献记录，并同步项目当前金额和贡献人数
func (c *ContributeRecordLogic) CreateContributeRecord(record *model.ContributeRecordModel) error {
	// 验证贡献数据
	if err := c.validateContributeRecord(record); err != nil {
		return err
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		var project model.ProjectModel
		if err := tx.First(&project, record.ProjectId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrProjectNotFound
			}
			return err
		}

		// 创建贡献记录，重复投递时忽略
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
		if result.Error != nil {
			return fmt.Errorf("创建贡献记录失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var contributors int64
		if err := tx.Model(&model.ContributeRecordModel{}).
			Where("project_id = ?", record.ProjectId).
			Distinct("address").
			Count(&contributors).Error; err != nil {
			return fmt.Errorf("统计贡献者失败: %w", err)
		}

		// 更新项目当前金额
		return tx.Model(&project).Updates(map[string]interface{}{
			"current_amount":    record.TotalAmount,
			"contributor_count": contributors,
		}).Error
	})
}

// GetProjectContributeRecords 获取项目贡献记录
func (c *ContributeRecordLogic) GetProjectContributeRecords(projectId int64, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var contributions []model.ContributeRecordModel
	var total int64
	_, pageSize, offset := normalizePage(page, pageSize)

	// 获取总数
	if err := c.db.Model(&model.ContributeRecordModel{}).Where("project_id = ?", projectId).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录总数失败: %w", err)
	}

	// 获取数据
	if err := c.db.Where("project_id = ?", projectId).
		Offset(offset).
		Limit(pageSize).
		Order("block_num ASC, log_index ASC").
		Find(&contributions).Error; err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}

	return contributions, total, nil
}

// GetAddressContributeRecords 获取地址的全部贡献记录
func (c *ContributeRecordLogic) GetAddressContributeRecords(address string, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var contributions []model.ContributeRecordModel
	var total int64
	_, pageSize, offset := normalizePage(page, pageSize)

	if err := c.db.Model(&model.ContributeRecordModel{}).Where("address = ?", address).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录总数失败: %w", err)
	}
	if err := c.db.Where("address = ?", address).
		Offset(offset).
		Limit(pageSize).
		Order("block_num ASC, log_index ASC").
		Find(&contributions).Error; err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}

	return contributions, total, nil
}

// validateContributeRecord 验证贡献数据
func (c *ContributeRecordLogic) validateContributeRecord(record *model.ContributeRecordModel) error {
	if record.ProjectId == 0 {
		return errors.New("项目ID不能为空")
	}
	if record.Amount == "" || record.Amount == "0" {
		return errors.New("贡献金额必须大于0")
	}
	if record.Address == "" {
		return errors.New("贡献者地址不能为空")
	}
	if record.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}
	return nil
}
