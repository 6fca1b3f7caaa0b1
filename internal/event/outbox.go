package event

import (
	"sync"
	"time"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// Record 已提交的账本事件及其交易位置
type Record struct {
	TxHash   common.Hash
	Block    uint64
	LogIndex uint
	Time     time.Time
	Event    ledger.Event
}

// Outbox 已提交事件的待投递队列，按提交顺序保存
type Outbox struct {
	mu      sync.Mutex
	records []Record
}

// NewOutbox 创建事件队列
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Append 追加记录
func (o *Outbox) Append(records ...Record) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, records...)
}

// Drain 取出全部记录
func (o *Outbox) Drain() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	records := o.records
	o.records = nil
	return records
}

// Requeue 将处理失败的记录放回队首
func (o *Outbox) Requeue(records []Record) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(append([]Record{}, records...), o.records...)
}

// Len 待投递数量
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}
