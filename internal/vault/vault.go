package vault

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// Receiver 收款回调，转账记账完成后调用；返回错误时整笔转账失败
type Receiver interface {
	Receive(ctx context.Context, from common.Address, amount *big.Int) error
}

// ReceiverFunc 函数形式的 Receiver
type ReceiverFunc func(ctx context.Context, from common.Address, amount *big.Int) error

func (f ReceiverFunc) Receive(ctx context.Context, from common.Address, amount *big.Int) error {
	return f(ctx, from, amount)
}

// Vault 内存账户余额
type Vault struct {
	mu        sync.Mutex
	balances  map[common.Address]*big.Int
	receivers map[common.Address]Receiver
	snapshots []map[common.Address]*big.Int
}

// New 创建资金库
func New() *Vault {
	return &Vault{
		balances:  make(map[common.Address]*big.Int),
		receivers: make(map[common.Address]Receiver),
	}
}

// Register 为地址注册收款回调
func (v *Vault) Register(addr common.Address, r Receiver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r == nil {
		delete(v.receivers, addr)
		return
	}
	v.receivers[addr] = r
}

// Credit 增加余额，用于初始分配
func (v *Vault) Credit(addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ledger.ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balanceLocked(addr).Add(v.balanceLocked(addr), amount)
	return nil
}

// BalanceOf 查询余额
func (v *Vault) BalanceOf(addr common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if b, ok := v.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// TotalSupply 所有账户余额之和
func (v *Vault) TotalSupply() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := new(big.Int)
	for _, b := range v.balances {
		total.Add(total, b)
	}
	return total
}

func (v *Vault) balanceLocked(addr common.Address) *big.Int {
	b, ok := v.balances[addr]
	if !ok {
		b = new(big.Int)
		v.balances[addr] = b
	}
	return b
}

func (v *Vault) moveLocked(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ledger.ErrInvalidAmount
	}
	src := v.balanceLocked(from)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ledger.ErrInsufficientBalance, from.Hex(), src, amount)
	}
	src.Sub(src, amount)
	dst := v.balanceLocked(to)
	dst.Add(dst, amount)
	return nil
}

// Attach 随调用附带的价值，直接记账，不触发收款回调
func (v *Vault) Attach(from, to common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.moveLocked(from, to, amount)
}

// Transfer 转账并调用收款方回调。回调期间不持有锁，回调可以重入
func (v *Vault) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	v.mu.Lock()
	if err := v.moveLocked(from, to, amount); err != nil {
		v.mu.Unlock()
		return err
	}
	r := v.receivers[to]
	v.mu.Unlock()

	if r == nil {
		return nil
	}
	if err := r.Receive(ctx, from, amount); err != nil {
		v.mu.Lock()
		// 回调失败，撤销本次记账
		v.balanceLocked(to).Sub(v.balanceLocked(to), amount)
		v.balanceLocked(from).Add(v.balanceLocked(from), amount)
		v.mu.Unlock()
		return err
	}
	return nil
}

// Begin 记录余额快照
func (v *Vault) Begin() {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := make(map[common.Address]*big.Int, len(v.balances))
	for addr, b := range v.balances {
		snap[addr] = new(big.Int).Set(b)
	}
	v.snapshots = append(v.snapshots, snap)
}

// Commit 丢弃最近的快照
func (v *Vault) Commit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := len(v.snapshots); n > 0 {
		v.snapshots = v.snapshots[:n-1]
	}
}

// Rollback 恢复到最近的快照
func (v *Vault) Rollback() {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.snapshots)
	if n == 0 {
		return
	}
	v.balances = v.snapshots[n-1]
	v.snapshots = v.snapshots[:n-1]
}
