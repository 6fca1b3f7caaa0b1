package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// assertConservation 所有贡献者余额之和等于项目当前金额
func assertConservation(t *testing.T, l *Ledger, id uint64) {
	t.Helper()
	contributors, err := l.GetProjectContributors(id)
	if err != nil {
		t.Fatalf("contributors: %v", err)
	}
	sum := new(big.Int)
	for _, c := range contributors {
		amount, err := l.GetUserContribution(id, c)
		if err != nil {
			t.Fatalf("user contribution: %v", err)
		}
		sum.Add(sum, amount)
	}
	p, _ := l.GetProject(id)
	if sum.Cmp(p.CurrentAmount) != 0 {
		t.Fatalf("expected contributions sum %s to equal current amount %s", sum, p.CurrentAmount)
	}
}

func TestContribute(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)

	f.contribute(t, id, alice, milliEther(500))

	p, _ := f.ledger.GetProject(id)
	if p.CurrentAmount.Cmp(milliEther(500)) != 0 {
		t.Fatalf("expected current 0.5 ether, got %s", p.CurrentAmount)
	}
	if p.ContributorsCount != 1 {
		t.Fatalf("expected 1 contributor, got %d", p.ContributorsCount)
	}
	amount, _ := f.ledger.GetUserContribution(id, alice)
	if amount.Cmp(milliEther(500)) != 0 {
		t.Fatalf("expected alice contribution 0.5 ether, got %s", amount)
	}

	made, ok := f.events[len(f.events)-1].(ContributionMade)
	if !ok {
		t.Fatalf("expected ContributionMade, got %#v", f.events[len(f.events)-1])
	}
	if made.ProjectID != id || made.Contributor != alice || made.Amount.Cmp(milliEther(500)) != 0 || made.Total.Cmp(milliEther(500)) != 0 {
		t.Fatalf("unexpected event %#v", made)
	}
}

func TestContributeScenario(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)

	f.contribute(t, id, alice, milliEther(300))
	f.contribute(t, id, bob, milliEther(400))
	assertConservation(t, f.ledger, id)

	p, _ := f.ledger.GetProject(id)
	if p.CurrentAmount.Cmp(milliEther(700)) != 0 {
		t.Fatalf("expected 0.7 ether, got %s", p.CurrentAmount)
	}
	if p.ContributorsCount != 2 {
		t.Fatalf("expected 2 contributors, got %d", p.ContributorsCount)
	}
	if p.Status != StatusActive {
		t.Fatalf("expected active, got %s", p.Status)
	}

	f.contribute(t, id, alice, milliEther(300))
	assertConservation(t, f.ledger, id)

	p, _ = f.ledger.GetProject(id)
	if p.CurrentAmount.Cmp(milliEther(1000)) != 0 {
		t.Fatalf("expected 1 ether, got %s", p.CurrentAmount)
	}
	if p.Status != StatusSuccessful {
		t.Fatalf("expected successful, got %s", p.Status)
	}
	if p.ContributorsCount != 2 {
		t.Fatalf("expected repeat contribution not to add a contributor, got %d", p.ContributorsCount)
	}

	contributors, _ := f.ledger.GetProjectContributors(id)
	if len(contributors) != 2 || contributors[0] != alice || contributors[1] != bob {
		t.Fatalf("expected [alice bob], got %v", contributors)
	}

	last := f.events[len(f.events)-1]
	success, ok := last.(ProjectSuccessful)
	if !ok || success.FinalAmount.Cmp(milliEther(1000)) != 0 {
		t.Fatalf("expected ProjectSuccessful with 1 ether, got %#v", last)
	}

	if err := f.ledger.WithdrawFunds(context.Background(), msgAt(creator, genesisTime), id); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := f.bank.received(platform); got.Cmp(milliEther(25)) != 0 {
		t.Fatalf("expected platform 0.025 ether, got %s", got)
	}
	if got := f.bank.received(creator); got.Cmp(milliEther(975)) != 0 {
		t.Fatalf("expected creator 0.975 ether, got %s", got)
	}
	p, _ = f.ledger.GetProject(id)
	if p.Status != StatusWithdrawn || !p.Withdrawn {
		t.Fatalf("expected withdrawn, got %s withdrawn=%v", p.Status, p.Withdrawn)
	}
}

func TestContributeOverGoalAcceptedInFull(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)

	f.contribute(t, id, alice, milliEther(1500))

	p, _ := f.ledger.GetProject(id)
	if p.CurrentAmount.Cmp(milliEther(1500)) != 0 {
		t.Fatalf("expected full 1.5 ether to be accepted, got %s", p.CurrentAmount)
	}
	if p.Status != StatusSuccessful {
		t.Fatalf("expected successful, got %s", p.Status)
	}

	err := f.ledger.Contribute(context.Background(), payAt(bob, milliEther(100), genesisTime), id)
	if !errors.Is(err, ErrProjectNotActive) {
		t.Fatalf("expected not active after success, got %v", err)
	}
}

func TestContributeRejections(t *testing.T) {
	tests := []struct {
		name   string
		sender common.Address
		value  *big.Int
		id     uint64
		at     time.Time
		err    error
		kind   Kind
	}{
		{name: "creator", sender: creator, value: milliEther(100), id: 1, at: genesisTime, err: ErrCreatorContribution, kind: KindAuthorization},
		{name: "creator large amount", sender: creator, value: milliEther(5000), id: 1, at: genesisTime, err: ErrCreatorContribution, kind: KindAuthorization},
		{name: "too low", sender: alice, value: milliEther(5), id: 1, at: genesisTime, err: ErrContributionTooLow, kind: KindValidation},
		{name: "no value", sender: alice, value: nil, id: 1, at: genesisTime, err: ErrContributionTooLow, kind: KindValidation},
		{name: "missing project", sender: alice, value: milliEther(100), id: 999, at: genesisTime, err: ErrProjectNotFound, kind: KindNotFound},
		{name: "after deadline", sender: alice, value: milliEther(100), id: 1, at: genesisTime.Add(31 * 24 * time.Hour), err: ErrDeadlinePassed, kind: KindState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.create(t, milliEther(1000), 30)
			before := len(f.events)

			err := f.ledger.Contribute(context.Background(), payAt(tt.sender, tt.value, tt.at), tt.id)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if KindOf(err) != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, KindOf(err))
			}
			if len(f.events) != before {
				t.Fatalf("expected no events on failure")
			}
			p, _ := f.ledger.GetProject(1)
			if p.CurrentAmount.Sign() != 0 || p.ContributorsCount != 0 {
				t.Fatalf("expected no state change, got current=%s count=%d", p.CurrentAmount, p.ContributorsCount)
			}
		})
	}
}

func TestContributeMinimumAccepted(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)
	f.contribute(t, id, alice, MinContribution)

	amount, _ := f.ledger.GetUserContribution(id, alice)
	if amount.Cmp(MinContribution) != 0 {
		t.Fatalf("expected minimum contribution to be accepted, got %s", amount)
	}
}

func TestContributeCancelledProject(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)
	if err := f.ledger.CancelProject(context.Background(), msgAt(creator, genesisTime), id); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	err := f.ledger.Contribute(context.Background(), payAt(alice, milliEther(100), genesisTime), id)
	if !errors.Is(err, ErrProjectNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
}

func TestUserContributionNonContributor(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)

	amount, err := f.ledger.GetUserContribution(id, bob)
	if err != nil {
		t.Fatalf("expected no error for non-contributor, got %v", err)
	}
	if amount.Sign() != 0 {
		t.Fatalf("expected 0, got %s", amount)
	}
}

func TestParticipationIndex(t *testing.T) {
	f := newFixture(t)
	f.create(t, milliEther(1000), 30)
	f.create(t, milliEther(1000), 30)

	f.contribute(t, 2, alice, milliEther(100))
	f.contribute(t, 1, alice, milliEther(100))
	f.contribute(t, 2, alice, milliEther(100))

	got := f.ledger.GetUserParticipatedProjects(alice)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Fatalf("expected [2 1], got %v", got)
	}
	if got := f.ledger.GetUserParticipatedProjects(bob); len(got) != 0 {
		t.Fatalf("expected no participation for bob, got %v", got)
	}

	created := f.ledger.GetUserCreatedProjects(creator)
	if len(created) != 2 || created[0] != 1 || created[1] != 2 {
		t.Fatalf("expected [1 2], got %v", created)
	}
}

func TestConservationAcrossManyContributions(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(100000), 30)

	accounts := []common.Address{alice, bob, common.HexToAddress("0x0000000000000000000000000000000000000a0a")}
	for i := 0; i < 30; i++ {
		f.contribute(t, id, accounts[i%len(accounts)], milliEther(int64(10+i)))
		assertConservation(t, f.ledger, id)
	}

	p, _ := f.ledger.GetProject(id)
	if p.ContributorsCount != uint64(len(accounts)) {
		t.Fatalf("expected %d contributors, got %d", len(accounts), p.ContributorsCount)
	}
}
