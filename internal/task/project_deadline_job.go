package task

import (
	"context"
	"time"

	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// RefundChecker 查询项目当前是否可退款
type RefundChecker interface {
	RefundEligible(ctx context.Context, id uint64) (bool, error)
}

// ProjectDeadlineJob 项目截止检查任务。账本在首次退款请求时才将项目置为失败，
// 该任务只统计已截止未达标、等待退款的项目
type ProjectDeadlineJob struct {
	db       *gorm.DB
	checker  RefundChecker
	interval int
	now      func() time.Time
}

// NewProjectDeadlineJob 创建项目截止检查任务
func NewProjectDeadlineJob(db *gorm.DB, checker RefundChecker, interval int) *ProjectDeadlineJob {
	return &ProjectDeadlineJob{
		db:       db,
		checker:  checker,
		interval: interval,
		now:      time.Now,
	}
}

// GetName 获取任务名称
func (j *ProjectDeadlineJob) GetName() string {
	return "project_deadline_watcher"
}

// GetSchedule 获取调度配置
func (j *ProjectDeadlineJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectDeadlineJob) Execute() {
	j.Check()
}

// Check 返回已截止且可退款的项目ID
func (j *ProjectDeadlineJob) Check() []int64 {
	// 查找已过截止时间但仍为进行中的项目
	var projects []model.ProjectModel
	err := j.db.Where("status = ? AND deadline <= ?",
		model.ProjectStatusActive, j.now()).Find(&projects).Error
	if err != nil {
		logger.Error("Failed to fetch expired projects: %v", err)
		return nil
	}

	var refundable []int64
	for _, project := range projects {
		eligible, err := j.checker.RefundEligible(context.Background(), uint64(project.Id))
		if err != nil {
			logger.Error("Failed to check refund eligibility for project %d: %v", project.Id, err)
			continue
		}
		if !eligible {
			continue
		}
		logger.Info("Project %d missed its goal (%s/%s wei), refunds open",
			project.Id, project.CurrentAmount, project.GoalAmount)
		refundable = append(refundable, project.Id)
	}

	if len(refundable) > 0 {
		logger.Info("Project deadline task completed. %d projects awaiting refunds", len(refundable))
	}
	return refundable
}
