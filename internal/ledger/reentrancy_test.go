package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestWithdrawReentryRejected(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)
	f.contribute(t, id, alice, milliEther(1000))

	var nested error
	var observed ProjectStatus
	f.bank.hooks[creator] = func(ctx context.Context, amount *big.Int) error {
		p, _ := f.ledger.GetProject(id)
		observed = p.Status
		nested = f.ledger.WithdrawFunds(ctx, msgAt(creator, genesisTime), id)
		return nil
	}

	if err := f.ledger.WithdrawFunds(context.Background(), msgAt(creator, genesisTime), id); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !errors.Is(nested, ErrReentrantCall) || KindOf(nested) != KindState {
		t.Fatalf("expected reentrant call rejected, got %v", nested)
	}
	if observed != StatusWithdrawn {
		t.Fatalf("expected status written before transfer, observed %s", observed)
	}
	if got := f.bank.received(creator); got.Cmp(milliEther(975)) != 0 {
		t.Fatalf("expected creator paid once, got %s", got)
	}
}

func TestRefundReentryRejected(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 30)
	f.contribute(t, id, alice, milliEther(500))
	if err := f.ledger.CancelProject(context.Background(), msgAt(creator, genesisTime), id); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var nested error
	var balanceDuringTransfer *big.Int
	f.bank.hooks[alice] = func(ctx context.Context, amount *big.Int) error {
		balanceDuringTransfer, _ = f.ledger.GetUserContribution(id, alice)
		nested = f.ledger.RequestRefund(ctx, msgAt(alice, genesisTime), id)
		return nil
	}

	if err := f.ledger.RequestRefund(context.Background(), msgAt(alice, genesisTime), id); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !errors.Is(nested, ErrReentrantCall) {
		t.Fatalf("expected reentrant call rejected, got %v", nested)
	}
	if balanceDuringTransfer.Sign() != 0 {
		t.Fatalf("expected balance zeroed before transfer, got %s", balanceDuringTransfer)
	}
	if got := f.bank.received(alice); got.Cmp(milliEther(500)) != 0 {
		t.Fatalf("expected single refund, got %s", got)
	}
}

func TestCrossFunctionReentryRejected(t *testing.T) {
	f := newFixture(t)
	failed := f.create(t, milliEther(1000), 30)
	f.contribute(t, failed, alice, milliEther(500))
	if err := f.ledger.CancelProject(context.Background(), msgAt(creator, genesisTime), failed); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	funded := f.create(t, milliEther(1000), 30)
	f.contribute(t, funded, bob, milliEther(1000))

	var nested error
	f.bank.hooks[alice] = func(ctx context.Context, amount *big.Int) error {
		nested = f.ledger.WithdrawFunds(ctx, msgAt(creator, genesisTime), funded)
		return nil
	}

	if err := f.ledger.RequestRefund(context.Background(), msgAt(alice, genesisTime), failed); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !errors.Is(nested, ErrReentrantCall) {
		t.Fatalf("expected guarded withdraw to be rejected during refund, got %v", nested)
	}
	p, _ := f.ledger.GetProject(funded)
	if p.Status != StatusSuccessful {
		t.Fatalf("expected funded project untouched, got %s", p.Status)
	}
}

func TestHostileReceiverFailureRevertsOuterCall(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, milliEther(1000), 1)
	f.contribute(t, id, alice, milliEther(500))
	before := len(f.events)

	f.bank.hooks[alice] = func(ctx context.Context, amount *big.Int) error {
		return f.ledger.RequestRefund(ctx, msgAt(alice, genesisTime), id)
	}

	late := genesisTime.Add(48 * time.Hour)
	err := f.ledger.RequestRefund(context.Background(), msgAt(alice, late), id)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}

	p, _ := f.ledger.GetProject(id)
	if p.Status != StatusActive {
		t.Fatalf("expected lazy transition rolled back, got %s", p.Status)
	}
	amount, _ := f.ledger.GetUserContribution(id, alice)
	if amount.Cmp(milliEther(500)) != 0 {
		t.Fatalf("expected balance restored, got %s", amount)
	}
	if p.CurrentAmount.Cmp(milliEther(500)) != 0 {
		t.Fatalf("expected current amount restored, got %s", p.CurrentAmount)
	}
	if len(f.events) != before {
		t.Fatalf("expected no events from reverted call")
	}
}

func TestNestedUnguardedCallCommitsWithOuter(t *testing.T) {
	f := newFixture(t)
	failed := f.create(t, milliEther(1000), 30)
	f.contribute(t, failed, alice, milliEther(500))
	if err := f.ledger.CancelProject(context.Background(), msgAt(creator, genesisTime), failed); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	open := f.create(t, milliEther(1000), 30)

	f.bank.hooks[alice] = func(ctx context.Context, amount *big.Int) error {
		return f.ledger.Contribute(ctx, payAt(alice, milliEther(100), genesisTime), open)
	}

	if err := f.ledger.RequestRefund(context.Background(), msgAt(alice, genesisTime), failed); err != nil {
		t.Fatalf("refund: %v", err)
	}
	names := f.eventNames()
	tail := names[len(names)-2:]
	if tail[0] != EventContributionMade || tail[1] != EventRefundIssued {
		t.Fatalf("expected nested contribution published before refund, got %v", tail)
	}
	amount, _ := f.ledger.GetUserContribution(open, alice)
	if amount.Cmp(milliEther(100)) != 0 {
		t.Fatalf("expected nested contribution committed, got %s", amount)
	}
}
