package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// contributorRecord 项目内单个贡献者的账目
type contributorRecord struct {
	account common.Address
	amount  *big.Int
}

// projectState 项目可变状态。贡献者记录按首次贡献顺序追加，slots 提供 O(1) 查找
type projectState struct {
	Project
	slots   map[common.Address]int
	records []contributorRecord
}

func (ps *projectState) snapshot() Project {
	p := ps.Project
	p.GoalAmount = new(big.Int).Set(ps.GoalAmount)
	p.CurrentAmount = new(big.Int).Set(ps.CurrentAmount)
	return p
}

func (ps *projectState) contributionOf(account common.Address) *big.Int {
	if slot, ok := ps.slots[account]; ok {
		return ps.records[slot].amount
	}
	return nil
}

// Option 账本选项
type Option func(*Ledger)

// WithFeeRate 设置初始手续费率
func WithFeeRate(rate uint64) Option {
	return func(l *Ledger) {
		l.feeRate = rate
	}
}

// WithEventSink 设置事件接收函数，事件在调用提交后按顺序投递
func WithEventSink(sink func(Event)) Option {
	return func(l *Ledger) {
		l.sink = sink
	}
}

// Ledger 众筹托管账本
type Ledger struct {
	address        common.Address
	access         AccessControl
	platformWallet common.Address
	feeRate        uint64
	bank           Bank

	projects       []*projectState
	createdBy      map[common.Address][]uint64
	participatedIn map[common.Address][]uint64

	jr      *journal
	entered bool
	sink    func(Event)
}

// New 创建账本。address 是账本自身托管资金的账户
func New(address, owner, platformWallet common.Address, bank Bank, opts ...Option) (*Ledger, error) {
	if platformWallet == (common.Address{}) {
		return nil, ErrZeroPlatformWallet
	}

	l := &Ledger{
		address:        address,
		access:         NewAccessControl(owner),
		platformWallet: platformWallet,
		feeRate:        DefaultFeeRate,
		bank:           bank,
		createdBy:      make(map[common.Address][]uint64),
		participatedIn: make(map[common.Address][]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.feeRate > MaxFeeRate {
		return nil, ErrFeeRateTooHigh
	}
	return l, nil
}

// Address 账本托管账户
func (l *Ledger) Address() common.Address {
	return l.address
}

// CreateProject 创建项目
func (l *Ledger) CreateProject(ctx context.Context, msg Msg, in CreateProjectInput) (uint64, error) {
	if err := validateProjectInput(in); err != nil {
		return 0, err
	}

	var id uint64
	err := l.atomic(func() error {
		id = uint64(len(l.projects)) + 1
		ps := &projectState{
			Project: Project{
				ID:            id,
				Creator:       msg.Sender,
				Title:         in.Title,
				Description:   in.Description,
				GoalAmount:    new(big.Int).Set(in.GoalAmount),
				CurrentAmount: new(big.Int),
				CreatedAt:     msg.Now,
				Deadline:      msg.Now.Add(time.Duration(in.DurationDays) * 24 * time.Hour),
				Status:        StatusActive,
			},
			slots: make(map[common.Address]int),
		}

		l.projects = append(l.projects, ps)
		l.createdBy[msg.Sender] = append(l.createdBy[msg.Sender], id)
		l.onRevert(func() {
			l.projects = l.projects[:len(l.projects)-1]
			created := l.createdBy[msg.Sender]
			l.createdBy[msg.Sender] = created[:len(created)-1]
		})

		l.emit(ProjectCreated{ProjectID: id, Creator: msg.Sender})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// validateProjectInput 验证项目参数
func validateProjectInput(in CreateProjectInput) error {
	if in.Title == "" {
		return ErrTitleEmpty
	}
	if in.Description == "" {
		return ErrDescriptionEmpty
	}
	if in.GoalAmount == nil || in.GoalAmount.Cmp(MinGoalAmount) < 0 {
		return ErrGoalTooLow
	}
	if in.DurationDays < MinDurationDays {
		return ErrDurationTooShort
	}
	if in.DurationDays > MaxDurationDays {
		return ErrDurationTooLong
	}
	return nil
}

func (l *Ledger) projectAt(id uint64) (*projectState, error) {
	if id == 0 || id > uint64(len(l.projects)) {
		return nil, ErrProjectNotFound
	}
	return l.projects[id-1], nil
}

// setStatus 修改状态并登记撤销
func (l *Ledger) setStatus(ps *projectState, status ProjectStatus) {
	prev, prevWithdrawn := ps.Status, ps.Withdrawn
	ps.Status = status
	ps.Withdrawn = status == StatusWithdrawn
	l.onRevert(func() {
		ps.Status = prev
		ps.Withdrawn = prevWithdrawn
	})
}

// addAmount 对 target 加上 delta（可为负）并登记撤销
func (l *Ledger) addAmount(target, delta *big.Int) {
	prev := new(big.Int).Set(target)
	target.Add(target, delta)
	l.onRevert(func() {
		target.Set(prev)
	})
}

// GetProject 获取项目快照
func (l *Ledger) GetProject(id uint64) (Project, error) {
	ps, err := l.projectAt(id)
	if err != nil {
		return Project{}, err
	}
	return ps.snapshot(), nil
}

// GetTotalProjects 项目总数
func (l *Ledger) GetTotalProjects() uint64 {
	return uint64(len(l.projects))
}

// GetProjectSuccessRate 成功率百分比（向下取整），成功或已提取的项目计为成功
func (l *Ledger) GetProjectSuccessRate() uint64 {
	total := uint64(len(l.projects))
	if total == 0 {
		return 0
	}
	var succeeded uint64
	for _, ps := range l.projects {
		if ps.Status == StatusSuccessful || ps.Status == StatusWithdrawn {
			succeeded++
		}
	}
	return succeeded * 100 / total
}

// GetUserCreatedProjects 用户创建的项目，按创建顺序
func (l *Ledger) GetUserCreatedProjects(account common.Address) []uint64 {
	return append([]uint64{}, l.createdBy[account]...)
}

// GetUserParticipatedProjects 用户参与的项目，按首次贡献顺序
func (l *Ledger) GetUserParticipatedProjects(account common.Address) []uint64 {
	return append([]uint64{}, l.participatedIn[account]...)
}

// Owner 平台所有者
func (l *Ledger) Owner() common.Address {
	return l.access.Owner()
}

// PlatformWallet 平台钱包
func (l *Ledger) PlatformWallet() common.Address {
	return l.platformWallet
}

// PlatformFeeRate 平台手续费率（基点）
func (l *Ledger) PlatformFeeRate() uint64 {
	return l.feeRate
}

// PlatformConfig 平台配置快照
func (l *Ledger) PlatformConfig() PlatformConfig {
	return PlatformConfig{
		Owner:           l.access.Owner(),
		PlatformWallet:  l.platformWallet,
		PlatformFeeRate: l.feeRate,
	}
}

// Receive 拒绝未经 contribute 的直接转账
func (l *Ledger) Receive(ctx context.Context, from common.Address, amount *big.Int) error {
	return ErrDirectPayment
}
