package logic

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/model"
	"gorm.io/gorm"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// CreateRefundRecord 写入退款记录并扣减项目当前金额
func (r *RefundRecordLogic) CreateRefundRecord(record *model.RefundRecordModel) error {
	if err := r.validateRefundRecord(record); err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(record.Amount, 10)
	if !ok {
		return fmt.Errorf("退款金额格式错误: %s", record.Amount)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var project model.ProjectModel
		if err := tx.First(&project, record.ProjectId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrProjectNotFound
			}
			return err
		}

		// 重复投递不再扣减
		var count int64
		if err := tx.Model(&model.RefundRecordModel{}).
			Where("tx_hash = ? AND log_index = ?", record.TxHash, record.LogIndex).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if record.Status == "" {
			record.Status = model.RefundStatusSuccess
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("创建退款记录失败: %w", err)
		}

		current, ok := new(big.Int).SetString(project.CurrentAmount, 10)
		if !ok {
			return fmt.Errorf("项目 %d 当前金额格式错误: %s", project.Id, project.CurrentAmount)
		}
		current.Sub(current, amount)
		if current.Sign() < 0 {
			current.SetInt64(0)
		}
		return tx.Model(&project).Update("current_amount", current.String()).Error
	})
}

// GetProjectRefunds 获取项目退款记录
func (r *RefundRecordLogic) GetProjectRefunds(projectId int64, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var refunds []model.RefundRecordModel
	var total int64
	_, pageSize, offset := normalizePage(page, pageSize)

	if err := r.db.Model(&model.RefundRecordModel{}).Where("project_id = ?", projectId).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录总数失败: %w", err)
	}
	if err := r.db.Where("project_id = ?", projectId).
		Offset(offset).
		Limit(pageSize).
		Order("block_num ASC, log_index ASC").
		Find(&refunds).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}

	return refunds, total, nil
}

// validateRefundRecord 验证退款数据
func (r *RefundRecordLogic) validateRefundRecord(record *model.RefundRecordModel) error {
	if record.ProjectId == 0 {
		return errors.New("项目ID不能为空")
	}
	if record.Address == "" {
		return errors.New("退款地址不能为空")
	}
	if record.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}
	return nil
}
