package event

import (
	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/blues/cfledger/internal/model"
)

// RefundProcessor 退款事件处理器
type RefundProcessor struct {
	refundLogic *logic.RefundRecordLogic
}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor(refundLogic *logic.RefundRecordLogic) *RefundProcessor {
	return &RefundProcessor{refundLogic: refundLogic}
}

// GetEventType 事件类型
func (p *RefundProcessor) GetEventType() string {
	return ledger.EventRefundIssued
}

// Process 处理退款事件
func (p *RefundProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	projectId, err := bigField(eventData, "projectId")
	if err != nil {
		return err
	}
	contributor, err := addressField(eventData, "contributor")
	if err != nil {
		return err
	}
	amount, err := bigField(eventData, "amount")
	if err != nil {
		return err
	}

	refund := model.RefundRecordModel{
		ProjectId: projectId.Int64(),
		Amount:    amount.String(),
		Address:   contributor.Hex(),
		TxHash:    event.TxHash,
		LogIndex:  event.LogIndex,
		BlockNum:  event.BlockNum,
		Status:    model.RefundStatusSuccess,
	}
	if err := p.refundLogic.CreateRefundRecord(&refund); err != nil {
		logger.Error("Failed to create refund record: %v", err)
		return err
	}

	logger.Info("Processed refund: %s ETH to %s from project %d",
		chain.FormatEther(amount), contributor.Hex(), projectId.Uint64())
	return nil
}
