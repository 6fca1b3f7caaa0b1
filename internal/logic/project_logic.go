package logic

import (
	"errors"
	"fmt"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject 写入项目投影，已存在时忽略
func (p *ProjectLogic) CreateProject(project *model.ProjectModel) error {
	// 验证项目数据
	if err := p.validateProject(project); err != nil {
		return err
	}

	if project.Status == "" {
		project.Status = model.ProjectStatusActive
	}
	if project.CurrentAmount == "" {
		project.CurrentAmount = "0"
	}

	if err := p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	return nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrProjectNotFound
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects(status, creator string, page, pageSize int) ([]model.ProjectModel, int64, error) {
	var projects []model.ProjectModel
	var total int64
	_, pageSize, offset := normalizePage(page, pageSize)

	query := p.db.Model(&model.ProjectModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if creator != "" {
		query = query.Where("creator_address = ?", creator)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目总数失败: %w", err)
	}
	if err := query.Offset(offset).Limit(pageSize).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, total, nil
}

// UpdateProjectStatus 更新项目状态
func (p *ProjectLogic) UpdateProjectStatus(id int64, status model.ProjectStatus) error {
	result := p.db.Model(&model.ProjectModel{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新项目状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrProjectNotFound
	}
	return nil
}

// GetAllProjectStats 获取所有项目的统计信息
func (p *ProjectLogic) GetAllProjectStats() (map[string]interface{}, error) {
	// 统计项目总数
	var totalProjects int64
	if err := p.db.Model(&model.ProjectModel{}).Count(&totalProjects).Error; err != nil {
		return nil, fmt.Errorf("获取项目总数失败: %w", err)
	}

	// 统计各状态项目数量
	var rows []struct {
		Status string
		Count  int64
	}
	if err := p.db.Model(&model.ProjectModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取项目状态统计失败: %w", err)
	}
	byStatus := map[string]int64{
		string(model.ProjectStatusActive):     0,
		string(model.ProjectStatusSuccessful): 0,
		string(model.ProjectStatusFailed):     0,
		string(model.ProjectStatusWithdrawn):  0,
	}
	for _, row := range rows {
		byStatus[row.Status] = row.Count
	}

	// 统计总贡献者数量（去重）
	var totalContributors int64
	if err := p.db.Model(&model.ContributeRecordModel{}).
		Distinct("address").
		Count(&totalContributors).Error; err != nil {
		return nil, fmt.Errorf("获取贡献者总数失败: %w", err)
	}

	return map[string]interface{}{
		"totalProjects":      totalProjects,
		"activeProjects":     byStatus[string(model.ProjectStatusActive)],
		"successfulProjects": byStatus[string(model.ProjectStatusSuccessful)],
		"failedProjects":     byStatus[string(model.ProjectStatusFailed)],
		"withdrawnProjects":  byStatus[string(model.ProjectStatusWithdrawn)],
		"totalContributors":  totalContributors,
	}, nil
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.ProjectModel) error {
	if project.Id <= 0 {
		return errors.New("项目ID不能为空")
	}
	if project.CreatorAddress == "" {
		return errors.New("创建者地址不能为空")
	}
	if project.GoalAmount == "" {
		return errors.New("目标金额不能为空")
	}
	return nil
}
