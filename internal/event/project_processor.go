package event

import (
	"context"
	"fmt"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/blues/cfledger/internal/model"
)

// ProjectSource 读取账本中的项目详情
type ProjectSource interface {
	Project(ctx context.Context, id uint64) (ledger.Project, error)
}

// ProjectCreatedProcessor 项目创建事件处理器
type ProjectCreatedProcessor struct {
	projectLogic *logic.ProjectLogic
	source       ProjectSource
}

// NewProjectCreatedProcessor 创建项目创建事件处理器
func NewProjectCreatedProcessor(projectLogic *logic.ProjectLogic, source ProjectSource) *ProjectCreatedProcessor {
	return &ProjectCreatedProcessor{projectLogic: projectLogic, source: source}
}

// GetEventType 事件类型
func (p *ProjectCreatedProcessor) GetEventType() string {
	return ledger.EventProjectCreated
}

// Process 处理项目创建事件，项目详情从账本读取
func (p *ProjectCreatedProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	projectId, err := bigField(eventData, "projectId")
	if err != nil {
		return err
	}
	creator, err := addressField(eventData, "creator")
	if err != nil {
		return err
	}

	project, err := p.source.Project(context.Background(), projectId.Uint64())
	if err != nil {
		return fmt.Errorf("load project %d: %w", projectId.Uint64(), err)
	}

	if err := p.projectLogic.CreateProject(&model.ProjectModel{
		Id:              projectId.Int64(),
		Title:           project.Title,
		Description:     project.Description,
		GoalAmount:      project.GoalAmount.String(),
		CurrentAmount:   "0",
		StartTime:       project.CreatedAt,
		Deadline:        project.Deadline,
		Status:          model.ProjectStatusActive,
		CreatorAddress:  creator.Hex(),
		LedgerAddress:   event.ContractAddress,
		TransactionHash: event.TxHash,
		BlockNum:        event.BlockNum,
	}); err != nil {
		return err
	}

	logger.Info("Processed project creation event for project %d", projectId.Uint64())
	return nil
}

// ProjectStatusProcessor 项目状态事件处理器，ProjectSuccessful 和 ProjectFailed 各注册一个
type ProjectStatusProcessor struct {
	projectLogic *logic.ProjectLogic
	eventType    string
	status       model.ProjectStatus
}

// NewProjectSuccessfulProcessor 项目达标事件处理器
func NewProjectSuccessfulProcessor(projectLogic *logic.ProjectLogic) *ProjectStatusProcessor {
	return &ProjectStatusProcessor{projectLogic: projectLogic, eventType: ledger.EventProjectSuccessful, status: model.ProjectStatusSuccessful}
}

// NewProjectFailedProcessor 项目失败事件处理器
func NewProjectFailedProcessor(projectLogic *logic.ProjectLogic) *ProjectStatusProcessor {
	return &ProjectStatusProcessor{projectLogic: projectLogic, eventType: ledger.EventProjectFailed, status: model.ProjectStatusFailed}
}

// GetEventType 事件类型
func (p *ProjectStatusProcessor) GetEventType() string {
	return p.eventType
}

// Process 更新项目状态
func (p *ProjectStatusProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	projectId, err := bigField(eventData, "projectId")
	if err != nil {
		return err
	}

	if err := p.projectLogic.UpdateProjectStatus(projectId.Int64(), p.status); err != nil {
		logger.Error("Failed to update project status: %v", err)
		return err
	}

	logger.Info("Project %d status changed to %s", projectId.Uint64(), p.status)
	return nil
}
