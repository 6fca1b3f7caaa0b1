package event

import (
	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/blues/cfledger/internal/model"
)

// ContributeProcessor 贡献事件处理器
type ContributeProcessor struct {
	contributeLogic *logic.ContributeRecordLogic
}

// NewContributeProcessor 创建贡献事件处理器
func NewContributeProcessor(contributeLogic *logic.ContributeRecordLogic) *ContributeProcessor {
	return &ContributeProcessor{
		contributeLogic: contributeLogic,
	}
}

// GetEventType 事件类型
func (p *ContributeProcessor) GetEventType() string {
	return ledger.EventContributionMade
}

// Process 处理贡献事件
func (p *ContributeProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
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
	total, err := bigField(eventData, "totalAmount")
	if err != nil {
		return err
	}

	contribution := model.ContributeRecordModel{
		ProjectId:   projectId.Int64(),
		Amount:      amount.String(),
		TotalAmount: total.String(),
		Address:     contributor.Hex(),
		TxHash:      event.TxHash,
		LogIndex:    event.LogIndex,
		BlockNum:    event.BlockNum,
	}

	// 通过logic层创建贡献记录
	if err := p.contributeLogic.CreateContributeRecord(&contribution); err != nil {
		logger.Error("Failed to create contribution record: %v", err)
		return err
	}

	logger.Info("Processed contribution: %s ETH from %s to project %d",
		chain.FormatEther(amount), contributor.Hex(), projectId.Uint64())

	return nil
}
