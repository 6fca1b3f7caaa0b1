package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

var (
	ledgerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	owner       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	creator     = common.HexToAddress("0x0000000000000000000000000000000000000002")
	alice       = common.HexToAddress("0x0000000000000000000000000000000000000003")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000004")
	platform    = common.HexToAddress("0x0000000000000000000000000000000000000005")
	genesisTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

// milliEther 以千分之一 ether 为单位构造金额
func milliEther(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether/1000))
}

type transfer struct {
	from, to common.Address
	amount   *big.Int
}

// fakeBank 记录转账，可为收款方注册回调以模拟重入
type fakeBank struct {
	transfers []transfer
	hooks     map[common.Address]func(ctx context.Context, amount *big.Int) error
	fail      map[common.Address]error
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		hooks: make(map[common.Address]func(ctx context.Context, amount *big.Int) error),
		fail:  make(map[common.Address]error),
	}
}

func (b *fakeBank) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if err := b.fail[to]; err != nil {
		return err
	}
	b.transfers = append(b.transfers, transfer{from: from, to: to, amount: new(big.Int).Set(amount)})
	if hook := b.hooks[to]; hook != nil {
		if err := hook(ctx, amount); err != nil {
			b.transfers = b.transfers[:len(b.transfers)-1]
			return err
		}
	}
	return nil
}

func (b *fakeBank) received(to common.Address) *big.Int {
	total := new(big.Int)
	for _, t := range b.transfers {
		if t.to == to {
			total.Add(total, t.amount)
		}
	}
	return total
}

type fixture struct {
	ledger *Ledger
	bank   *fakeBank
	events []Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{bank: newFakeBank()}
	l, err := New(ledgerAddr, owner, platform, f.bank, WithEventSink(func(e Event) {
		f.events = append(f.events, e)
	}))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	f.ledger = l
	return f
}

func msgAt(sender common.Address, now time.Time) Msg {
	return Msg{Sender: sender, Now: now}
}

func payAt(sender common.Address, value *big.Int, now time.Time) Msg {
	return Msg{Sender: sender, Value: value, Now: now}
}

func (f *fixture) create(t *testing.T, goal *big.Int, days int64) uint64 {
	t.Helper()
	id, err := f.ledger.CreateProject(context.Background(), msgAt(creator, genesisTime), CreateProjectInput{
		Title:        "Test project",
		Description:  "Test description",
		GoalAmount:   goal,
		DurationDays: days,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return id
}

func (f *fixture) contribute(t *testing.T, id uint64, from common.Address, value *big.Int) {
	t.Helper()
	if err := f.ledger.Contribute(context.Background(), payAt(from, value, genesisTime.Add(time.Hour)), id); err != nil {
		t.Fatalf("contribute: %v", err)
	}
}

func (f *fixture) eventNames() []string {
	names := make([]string, len(f.events))
	for i, e := range f.events {
		names[i] = e.EventName()
	}
	return names
}

func TestNewRejectsZeroPlatformWallet(t *testing.T) {
	_, err := New(ledgerAddr, owner, common.Address{}, newFakeBank())
	if !errors.Is(err, ErrZeroPlatformWallet) {
		t.Fatalf("expected zero wallet error, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	f := newFixture(t)
	cfg := f.ledger.PlatformConfig()
	if cfg.Owner != owner {
		t.Fatalf("expected owner %s, got %s", owner, cfg.Owner)
	}
	if cfg.PlatformWallet != platform {
		t.Fatalf("expected platform wallet %s, got %s", platform, cfg.PlatformWallet)
	}
	if cfg.PlatformFeeRate != 250 {
		t.Fatalf("expected fee rate 250, got %d", cfg.PlatformFeeRate)
	}
}

func TestNewRejectsFeeRateAboveMax(t *testing.T) {
	_, err := New(ledgerAddr, owner, platform, newFakeBank(), WithFeeRate(1001))
	if !errors.Is(err, ErrFeeRateTooHigh) {
		t.Fatalf("expected fee rate error, got %v", err)
	}
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)

	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	if total := f.ledger.GetTotalProjects(); total != 1 {
		t.Fatalf("expected 1 project, got %d", total)
	}

	p, err := f.ledger.GetProject(id)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.Creator != creator {
		t.Fatalf("expected creator %s, got %s", creator, p.Creator)
	}
	if p.Status != StatusActive {
		t.Fatalf("expected active, got %s", p.Status)
	}
	if p.CurrentAmount.Sign() != 0 {
		t.Fatalf("expected zero current amount, got %s", p.CurrentAmount)
	}
	if p.GoalAmount.Cmp(milliEther(1000)) != 0 {
		t.Fatalf("expected goal 1 ether, got %s", p.GoalAmount)
	}
	if !p.Deadline.Equal(genesisTime.Add(30 * 24 * time.Hour)) {
		t.Fatalf("expected deadline 30 days out, got %s", p.Deadline)
	}
	if got := f.ledger.GetUserCreatedProjects(creator); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected created [1], got %v", got)
	}

	created, ok := f.events[0].(ProjectCreated)
	if !ok || created.ProjectID != 1 || created.Creator != creator {
		t.Fatalf("expected ProjectCreated(1, creator), got %#v", f.events[0])
	}
}

func TestCreateProjectValidation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateProjectInput
		err   error
	}{
		{
			name:  "empty title",
			input: CreateProjectInput{Title: "", Description: "d", GoalAmount: milliEther(1000), DurationDays: 30},
			err:   ErrTitleEmpty,
		},
		{
			name:  "empty description",
			input: CreateProjectInput{Title: "t", Description: "  ", GoalAmount: milliEther(1000), DurationDays: 30},
			err:   ErrDescriptionEmpty,
		},
		{
			name:  "goal too low",
			input: CreateProjectInput{Title: "t", Description: "d", GoalAmount: milliEther(50), DurationDays: 30},
			err:   ErrGoalTooLow,
		},
		{
			name:  "missing goal",
			input: CreateProjectInput{Title: "t", Description: "d", DurationDays: 30},
			err:   ErrGoalTooLow,
		},
		{
			name:  "duration too short",
			input: CreateProjectInput{Title: "t", Description: "d", GoalAmount: milliEther(1000), DurationDays: 0},
			err:   ErrDurationTooShort,
		},
		{
			name:  "duration too long",
			input: CreateProjectInput{Title: "t", Description: "d", GoalAmount: milliEther(1000), DurationDays: 100},
			err:   ErrDurationTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ledger.CreateProject(context.Background(), msgAt(creator, genesisTime), tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation kind, got %s", KindOf(err))
			}
			if f.ledger.GetTotalProjects() != 0 {
				t.Fatalf("expected no project to be stored")
			}
			if len(f.events) != 0 {
				t.Fatalf("expected no events, got %v", f.eventNames())
			}
		})
	}
}

func TestCreateProjectBoundaries(t *testing.T) {
	f := newFixture(t)
	f.create(t, MinGoalAmount, MinDurationDays)
	f.create(t, MinGoalAmount, MaxDurationDays)
	if total := f.ledger.GetTotalProjects(); total != 2 {
		t.Fatalf("expected 2 projects, got %d", total)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	f := newFixture(t)
	f.create(t, milliEther(1000), 30)

	for _, id := range []uint64{0, 2, 999} {
		_, err := f.ledger.GetProject(id)
		if !errors.Is(err, ErrProjectNotFound) {
			t.Fatalf("id %d: expected not found, got %v", id, err)
		}
		if KindOf(err) != KindNotFound {
			t.Fatalf("id %d: expected not found kind, got %s", id, KindOf(err))
		}
	}
}

func TestGetProjectReturnsCopy(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)

	p, _ := f.ledger.GetProject(id)
	p.CurrentAmount.SetInt64(42)
	p.GoalAmount.SetInt64(1)

	again, _ := f.ledger.GetProject(id)
	if again.CurrentAmount.Sign() != 0 || again.GoalAmount.Cmp(milliEther(1000)) != 0 {
		t.Fatalf("expected snapshot mutation not to leak into ledger")
	}
}

func TestProjectSuccessRate(t *testing.T) {
	f := newFixture(t)
	if rate := f.ledger.GetProjectSuccessRate(); rate != 0 {
		t.Fatalf("expected 0 with no projects, got %d", rate)
	}

	f.create(t, milliEther(1000), 30)
	f.create(t, milliEther(1000), 30)
	f.create(t, milliEther(1000), 30)

	f.contribute(t, 1, alice, milliEther(1000))
	if err := f.ledger.CancelProject(context.Background(), msgAt(creator, genesisTime), 2); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if rate := f.ledger.GetProjectSuccessRate(); rate != 33 {
		t.Fatalf("expected 33, got %d", rate)
	}

	if err := f.ledger.WithdrawFunds(context.Background(), msgAt(creator, genesisTime), 1); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if rate := f.ledger.GetProjectSuccessRate(); rate != 33 {
		t.Fatalf("expected withdrawn project to still count, got %d", rate)
	}
}

func TestDirectPaymentRejected(t *testing.T) {
	f := newFixture(t)
	err := f.ledger.Receive(context.Background(), alice, milliEther(1000))
	if !errors.Is(err, ErrDirectPayment) {
		t.Fatalf("expected direct payment error, got %v", err)
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation kind, got %s", KindOf(err))
	}
}

func TestKindOfWrappedError(t *testing.T) {
	err := errors.Join(errors.New("outer"), ErrNoContribution)
	if KindOf(err) != KindPayment {
		t.Fatalf("expected payment kind, got %s", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for plain error")
	}
	if ReasonOf(ErrNotOwner) != "Ownable: caller is not the owner" {
		t.Fatalf("unexpected reason %q", ReasonOf(ErrNotOwner))
	}
}

func TestAtomicRevertsOnPanic(t *testing.T) {
	f := newFixture(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = f.ledger.Atomic(func() error {
			f.create(t, milliEther(1000), 30)
			panic("boom")
		})
	}()

	if total := f.ledger.GetTotalProjects(); total != 0 {
		t.Fatalf("expected project creation reverted, got %d projects", total)
	}
	if len(f.events) != 0 {
		t.Fatalf("expected no published events, got %v", f.eventNames())
	}

	f.create(t, milliEther(1000), 30)
	if len(f.events) != 1 || f.events[0].EventName() != EventProjectCreated {
		t.Fatalf("expected ProjectCreated published after recovery, got %v", f.eventNames())
	}
}

func TestCreateProjectAcceptsWhitespaceTitle(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.CreateProject(context.Background(), msgAt(creator, genesisTime), CreateProjectInput{
		Title:        "   ",
		Description:  " ",
		GoalAmount:   milliEther(1000),
		DurationDays: 30,
	})
	if err != nil {
		t.Fatalf("expected whitespace title accepted, got %v", err)
	}
}
