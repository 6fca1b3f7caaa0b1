package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/blues/cfledger/internal/model"
	"github.com/panjf2000/ants/v2"
)

// Relay 将已提交事件编码为日志后入库并更新投影
type Relay struct {
	mu         sync.Mutex
	outbox     *Outbox
	contract   *chain.Contract
	eventLogic *logic.EventLogic
	processors *ProcessorManager
}

// NewRelay 创建事件投递器
func NewRelay(outbox *Outbox, contract *chain.Contract, eventLogic *logic.EventLogic, processors *ProcessorManager) *Relay {
	logger.Info("Relay for contract %s handles %v", contract.GetName(), processors.GetSupportedEventTypes())
	return &Relay{
		outbox:     outbox,
		contract:   contract,
		eventLogic: eventLogic,
		processors: processors,
	}
}

// Pending 待投递数量
func (r *Relay) Pending() int {
	return r.outbox.Len()
}

// Flush 投递当前队列中的全部事件。同一项目的事件按顺序处理，不同项目并发处理；
// 处理失败的事件连同其后同项目的事件放回队列
func (r *Relay) Flush() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.outbox.Drain()
	if len(records) == 0 {
		return 0, nil
	}

	// 按项目分组
	groups := groupRecordsByProject(records)
	logger.Debug("Relaying %d events in %d project groups", len(records), len(groups))

	// 创建临时协程池，大小等于分组数量
	tempPool, err := ants.NewPool(len(groups))
	if err != nil {
		r.outbox.Requeue(records)
		return 0, fmt.Errorf("failed to create temporary pool for %d groups: %w", len(groups), err)
	}
	defer tempPool.Release()

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
		failedMu  sync.Mutex
		failed    []Record
	)
	for projectId, group := range groups {
		wg.Add(1)
		err := tempPool.Submit(func() {
			defer wg.Done()
			rest := r.processGroup(projectId, group)
			processed.Add(int64(len(group) - len(rest)))
			if len(rest) > 0 {
				failedMu.Lock()
				failed = append(failed, rest...)
				failedMu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
			failedMu.Lock()
			failed = append(failed, group...)
			failedMu.Unlock()
		}
	}
	wg.Wait()

	if len(failed) > 0 {
		sort.SliceStable(failed, func(i, j int) bool {
			if failed[i].Block != failed[j].Block {
				return failed[i].Block < failed[j].Block
			}
			return failed[i].LogIndex < failed[j].LogIndex
		})
		r.outbox.Requeue(failed)
		return int(processed.Load()), fmt.Errorf("%d events requeued after processing failure", len(failed))
	}
	return int(processed.Load()), nil
}

// processGroup 顺序处理一个项目的事件，返回未处理完的部分
func (r *Relay) processGroup(projectId uint64, group []Record) []Record {
	for i, rec := range group {
		if err := r.processRecord(rec); err != nil {
			logger.Error("Error relaying %s for project %d in tx %s: %v",
				rec.Event.EventName(), projectId, rec.TxHash.Hex(), err)
			return group[i:]
		}
	}
	return nil
}

func (r *Relay) processRecord(rec Record) error {
	log, err := r.contract.EncodeEvent(rec.Event, rec.TxHash, rec.Block, rec.LogIndex)
	if err != nil {
		logger.Error("Dropping unencodable event %s: %v", rec.Event.EventName(), err)
		return nil
	}
	eventData, err := r.contract.ParseEvent(log)
	if err != nil {
		logger.Error("Dropping unparsable log in tx %s: %v", rec.TxHash.Hex(), err)
		return nil
	}

	event, err := r.eventLogic.GetEventByPosition(log.TxHash.Hex(), int64(log.Index))
	if err != nil {
		return err
	}
	if event != nil && event.Processed {
		return nil
	}

	if event == nil {
		// 将事件数据转换为JSON
		eventDataJSON, err := json.Marshal(eventData)
		if err != nil {
			return fmt.Errorf("failed to marshal event data to JSON: %w", err)
		}

		event = &model.EventModel{
			ContractAddress: r.contract.GetAddress().Hex(),
			ContractName:    r.contract.GetName(),
			EventName:       rec.Event.EventName(),
			ProjectId:       int64(rec.Event.Project()),
			TxHash:          log.TxHash.Hex(),
			BlockNum:        int64(log.BlockNumber),
			LogIndex:        int64(log.Index),
			Data:            string(eventDataJSON),
		}
		if err := r.eventLogic.CreateEvent(event); err != nil {
			return err
		}
	}

	if err := r.processors.ProcessEvent(event, eventData); err != nil {
		return err
	}
	if err := r.eventLogic.UpdateEventProcessed(event.Id, true); err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}

	logger.Debug("Relayed %s for project %d at block %d", event.EventName, event.ProjectId, event.BlockNum)
	return nil
}

// groupRecordsByProject 按项目分组，组内保持提交顺序
func groupRecordsByProject(records []Record) map[uint64][]Record {
	groups := make(map[uint64][]Record)
	for _, rec := range records {
		id := rec.Event.Project()
		groups[id] = append(groups[id], rec)
	}
	return groups
}
