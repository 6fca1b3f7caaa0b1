package task

import (
	"time"

	"github.com/blues/cfledger/internal/event"
	"github.com/blues/cfledger/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// EventRelayJob 事件投递任务
type EventRelayJob struct {
	relay    *event.Relay
	interval int
}

// NewEventRelayJob 创建事件投递任务，interval 单位为秒
func NewEventRelayJob(relay *event.Relay, interval int) *EventRelayJob {
	return &EventRelayJob{
		relay:    relay,
		interval: interval,
	}
}

// GetName 获取任务名称
func (j *EventRelayJob) GetName() string {
	return "event_relay"
}

// GetSchedule 获取调度配置
func (j *EventRelayJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.interval) * time.Second)
}

// Execute 执行任务
func (j *EventRelayJob) Execute() {
	if j.relay.Pending() == 0 {
		return
	}

	relayed, err := j.relay.Flush()
	if err != nil {
		logger.Warn("Event relay task relayed %d events, %d pending: %v", relayed, j.relay.Pending(), err)
		return
	}
	logger.Info("Event relay task completed. Relayed %d events", relayed)
}
