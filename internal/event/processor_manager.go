package event

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// EventProcessor 事件处理器接口
type EventProcessor interface {
	Process(event *model.EventModel, eventData map[string]interface{}) error
	GetEventType() string
}

// ProcessorManager 事件处理器管理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[string]EventProcessor
}

// NewProcessorManager 创建处理器管理器
func NewProcessorManager(processors ...EventProcessor) *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[string]EventProcessor),
	}
	for _, p := range processors {
		manager.RegisterProcessor(p)
	}

	logger.Info("ProcessorManager initialized with %d processors", len(manager.processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	eventType := processor.GetEventType()
	pm.processors[eventType] = processor
	logger.Debug("Registered processor for event type: %s", eventType)
}

// GetProcessor 获取指定事件类型的处理器
func (pm *ProcessorManager) GetProcessor(eventType string) (EventProcessor, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	processor, exists := pm.processors[eventType]
	return processor, exists
}

// ProcessEvent 处理事件，未注册的事件类型直接跳过
func (pm *ProcessorManager) ProcessEvent(event *model.EventModel, eventData map[string]interface{}) error {
	processor, exists := pm.GetProcessor(event.EventName)
	if !exists {
		logger.Debug("No processor found for event type: %s", event.EventName)
		return nil
	}

	return processor.Process(event, eventData)
}

// GetSupportedEventTypes 获取支持的事件类型列表
func (pm *ProcessorManager) GetSupportedEventTypes() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	eventTypes := make([]string, 0, len(pm.processors))
	for eventType := range pm.processors {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Strings(eventTypes)
	return eventTypes
}

func bigField(eventData map[string]interface{}, key string) (*big.Int, error) {
	v, ok := eventData[key].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("event field %s missing or not uint256: %v", key, eventData[key])
	}
	return v, nil
}

func addressField(eventData map[string]interface{}, key string) (common.Address, error) {
	v, ok := eventData[key].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("event field %s missing or not address: %v", key, eventData[key])
	}
	return v, nil
}
