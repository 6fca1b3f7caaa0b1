package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/event"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/vault"
	"github.com/ethereum/go-ethereum/common"
)

// ErrCallPanicked 调用过程中发生 panic，调用已回滚
var ErrCallPanicked = errors.New("call panicked")

// Clock 时间来源
type Clock func() time.Time

// Config 执行环境配置
type Config struct {
	Address        common.Address // 账本托管账户
	Owner          common.Address
	PlatformWallet common.Address
	FeeRate        uint64
	Genesis        map[common.Address]*big.Int
}

// LoggedEvent 回执中的事件
type LoggedEvent struct {
	Name     string       `json:"name"`
	LogIndex uint         `json:"logIndex"`
	Data     ledger.Event `json:"data"`
}

// Receipt 调用回执
type Receipt struct {
	TxHash    common.Hash    `json:"txHash"`
	Block     uint64         `json:"blockNumber"`
	Operation string         `json:"operation"`
	From      common.Address `json:"from"`
	Value     *big.Int       `json:"value"`
	Time      time.Time      `json:"time"`
	Success   bool           `json:"success"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	ProjectID uint64         `json:"projectId,omitempty"`
	Events    []LoggedEvent  `json:"events"`
	Err       error          `json:"-"`
}

// Option 执行环境选项
type Option func(*Engine)

// WithClock 设置时间来源
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithOutbox 设置事件队列
func WithOutbox(o *event.Outbox) Option {
	return func(e *Engine) {
		e.outbox = o
	}
}

// Engine 账本执行环境：串行执行调用，管理资金和回执
type Engine struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	vault   *vault.Vault
	outbox  *event.Outbox
	clock   Clock
	block   uint64
	nonces  map[common.Address]uint64
	pending []ledger.Event
}

type txKey struct{}

// txFrame 进行中的交易，回调中的嵌套调用共享同一帧
type txFrame struct {
	hash  common.Hash
	block uint64
	now   time.Time
}

// New 创建执行环境
func New(cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		vault:  vault.New(),
		outbox: event.NewOutbox(),
		clock:  time.Now,
		nonces: make(map[common.Address]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}

	feeRate := cfg.FeeRate
	l, err := ledger.New(cfg.Address, cfg.Owner, cfg.PlatformWallet, e.vault,
		ledger.WithFeeRate(feeRate),
		ledger.WithEventSink(func(ev ledger.Event) {
			e.pending = append(e.pending, ev)
		}),
	)
	if err != nil {
		return nil, err
	}
	e.ledger = l
	e.vault.Register(cfg.Address, l)

	for addr, amount := range cfg.Genesis {
		if err := e.vault.Credit(addr, amount); err != nil {
			return nil, fmt.Errorf("genesis allocation for %s: %w", addr.Hex(), err)
		}
	}

	logger.Info("Ledger %s ready, owner %s, platform wallet %s, fee rate %d",
		cfg.Address.Hex(), cfg.Owner.Hex(), cfg.PlatformWallet.Hex(), feeRate)
	return e, nil
}

// Outbox 已提交事件队列
func (e *Engine) Outbox() *event.Outbox {
	return e.outbox
}

// Address 账本托管账户
func (e *Engine) Address() common.Address {
	return e.ledger.Address()
}

// RegisterReceiver 为外部账户注册收款回调
func (e *Engine) RegisterReceiver(addr common.Address, r vault.Receiver) error {
	if addr == e.ledger.Address() {
		return ledger.ErrInvalidAddress
	}
	e.vault.Register(addr, r)
	return nil
}

// execute 执行一次调用。ctx 中已有交易帧时作为内部调用执行，不加锁也不产生新区块
func (e *Engine) execute(ctx context.Context, op string, sender common.Address, value *big.Int, payable bool, fn func(ctx context.Context, msg ledger.Msg) error) Receipt {
	if value == nil {
		value = new(big.Int)
	}
	if frame, ok := ctx.Value(txKey{}).(*txFrame); ok {
		return e.call(ctx, frame, op, sender, value, payable, fn)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	nonce := e.nonces[sender]
	e.nonces[sender] = nonce + 1
	e.block++
	frame := &txFrame{
		hash:  chain.TxHash(sender, nonce, op),
		block: e.block,
		now:   e.clock(),
	}
	e.pending = e.pending[:0]

	r := e.call(context.WithValue(ctx, txKey{}, frame), frame, op, sender, value, payable, fn)
	if !r.Success {
		logger.Warn("Tx %s %s from %s reverted: %s", frame.hash.Hex(), op, sender.Hex(), r.Err)
		return r
	}

	records := make([]event.Record, 0, len(e.pending))
	for i, ev := range e.pending {
		r.Events = append(r.Events, LoggedEvent{Name: ev.EventName(), LogIndex: uint(i), Data: ev})
		records = append(records, event.Record{
			TxHash:   frame.hash,
			Block:    frame.block,
			LogIndex: uint(i),
			Time:     frame.now,
			Event:    ev,
		})
	}
	e.outbox.Append(records...)

	logger.Info("Tx %s %s from %s committed in block %d with %d events",
		frame.hash.Hex(), op, sender.Hex(), frame.block, len(records))
	return r
}

func (e *Engine) call(ctx context.Context, frame *txFrame, op string, sender common.Address, value *big.Int, payable bool, fn func(ctx context.Context, msg ledger.Msg) error) Receipt {
	r := Receipt{
		TxHash:    frame.hash,
		Block:     frame.block,
		Operation: op,
		From:      sender,
		Value:     new(big.Int).Set(value),
		Time:      frame.now,
	}

	e.vault.Begin()
	err := e.run(ctx, frame, op, sender, value, payable, fn)
	if err != nil {
		e.vault.Rollback()
		r.Err = err
		r.ErrorKind = ledger.KindOf(err).String()
		r.Reason = ledger.ReasonOf(err)
		return r
	}
	e.vault.Commit()
	r.Success = true
	return r
}

// run 附加金额并在账本日志内执行调用，panic 转为调用失败
func (e *Engine) run(ctx context.Context, frame *txFrame, op string, sender common.Address, value *big.Int, payable bool, fn func(ctx context.Context, msg ledger.Msg) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Tx %s %s from %s panicked: %v", frame.hash.Hex(), op, sender.Hex(), p)
			err = fmt.Errorf("%w: %v", ErrCallPanicked, p)
		}
	}()

	if err := e.attach(sender, value, payable); err != nil {
		return err
	}
	msg := ledger.Msg{Sender: sender, Value: new(big.Int).Set(value), Now: frame.now}
	return e.ledger.Atomic(func() error {
		return fn(ctx, msg)
	})
}

func (e *Engine) attach(sender common.Address, value *big.Int, payable bool) error {
	if value.Sign() == 0 {
		return nil
	}
	if value.Sign() < 0 || !payable {
		return ledger.ErrInvalidAmount
	}
	return e.vault.Attach(sender, e.ledger.Address(), value)
}

// CreateProject 创建项目
func (e *Engine) CreateProject(ctx context.Context, sender common.Address, in ledger.CreateProjectInput) Receipt {
	var id uint64
	r := e.execute(ctx, "createProject", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		var err error
		id, err = e.ledger.CreateProject(ctx, msg, in)
		return err
	})
	r.ProjectID = id
	return r
}

// Contribute 向项目贡献 value
func (e *Engine) Contribute(ctx context.Context, sender common.Address, id uint64, value *big.Int) Receipt {
	r := e.execute(ctx, "contribute", sender, value, true, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.Contribute(ctx, msg, id)
	})
	r.ProjectID = id
	return r
}

// WithdrawFunds 创建者提取成功项目的资金
func (e *Engine) WithdrawFunds(ctx context.Context, sender common.Address, id uint64) Receipt {
	r := e.execute(ctx, "withdrawFunds", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.WithdrawFunds(ctx, msg, id)
	})
	r.ProjectID = id
	return r
}

// RequestRefund 贡献者申请退款
func (e *Engine) RequestRefund(ctx context.Context, sender common.Address, id uint64) Receipt {
	r := e.execute(ctx, "requestRefund", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.RequestRefund(ctx, msg, id)
	})
	r.ProjectID = id
	return r
}

// CancelProject 创建者取消进行中的项目
func (e *Engine) CancelProject(ctx context.Context, sender common.Address, id uint64) Receipt {
	r := e.execute(ctx, "cancelProject", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.CancelProject(ctx, msg, id)
	})
	r.ProjectID = id
	return r
}

// EmergencyFailProject 平台所有者强制项目失败
func (e *Engine) EmergencyFailProject(ctx context.Context, sender common.Address, id uint64) Receipt {
	r := e.execute(ctx, "emergencyFailProject", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.EmergencyFailProject(ctx, msg, id)
	})
	r.ProjectID = id
	return r
}

// UpdatePlatformFeeRate 修改平台手续费率
func (e *Engine) UpdatePlatformFeeRate(ctx context.Context, sender common.Address, rate uint64) Receipt {
	return e.execute(ctx, "updatePlatformFee", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.UpdatePlatformFeeRate(ctx, msg, rate)
	})
}

// UpdatePlatformWallet 修改平台钱包
func (e *Engine) UpdatePlatformWallet(ctx context.Context, sender common.Address, wallet common.Address) Receipt {
	return e.execute(ctx, "updatePlatformWallet", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		return e.ledger.UpdatePlatformWallet(ctx, msg, wallet)
	})
}

// Send 普通转账。发往账本地址的转账会被账本拒绝
func (e *Engine) Send(ctx context.Context, sender, to common.Address, value *big.Int) Receipt {
	r := e.execute(ctx, "transfer", sender, nil, false, func(ctx context.Context, msg ledger.Msg) error {
		if value == nil || value.Sign() < 0 {
			return ledger.ErrInvalidAmount
		}
		return e.vault.Transfer(ctx, sender, to, value)
	})
	if value != nil {
		r.Value = new(big.Int).Set(value)
	}
	return r
}
