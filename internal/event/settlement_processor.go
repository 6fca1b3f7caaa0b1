package event

import (
	"math/big"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/blues/cfledger/internal/model"
)

// SettlementProcessor 资金提取事件处理器
type SettlementProcessor struct {
	settlementLogic *logic.SettlementRecordLogic
}

// NewSettlementProcessor 创建资金提取事件处理器
func NewSettlementProcessor(settlementLogic *logic.SettlementRecordLogic) *SettlementProcessor {
	return &SettlementProcessor{settlementLogic: settlementLogic}
}

// GetEventType 事件类型
func (p *SettlementProcessor) GetEventType() string {
	return ledger.EventFundsWithdrawn
}

// Process 写入结算记录
func (p *SettlementProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	projectId, err := bigField(eventData, "projectId")
	if err != nil {
		return err
	}
	creatorAmount, err := bigField(eventData, "creatorAmount")
	if err != nil {
		return err
	}
	fee, err := bigField(eventData, "platformFee")
	if err != nil {
		return err
	}
	total := new(big.Int).Add(creatorAmount, fee)

	settledAt := event.CreatedAt
	record := model.SettlementRecordModel{
		ProjectId:      projectId.Int64(),
		TotalAmount:    total.String(),
		PlatformFee:    fee.String(),
		CreatorAmount:  creatorAmount.String(),
		TxHash:         event.TxHash,
		BlockNum:       event.BlockNum,
		Status:         model.SettlementStatusSuccess,
		SettlementType: model.SettlementTypeSuccess,
		SettlementTime: &settledAt,
	}
	if err := p.settlementLogic.CreateSettlement(&record); err != nil {
		logger.Error("Failed to create settlement record: %v", err)
		return err
	}

	logger.Info("Processed settlement for project %d: creator %s ETH, fee %s ETH",
		projectId.Uint64(), chain.FormatEther(creatorAmount), chain.FormatEther(fee))
	return nil
}
