package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"
)

// IsRefundEligible 退款资格判定：已失败，或仍在进行中但已过截止时间且未达目标
func IsRefundEligible(p Project, now time.Time) bool {
	switch p.Status {
	case StatusFailed:
		return true
	case StatusActive:
		return !now.Before(p.Deadline) && p.CurrentAmount.Cmp(p.GoalAmount) < 0
	default:
		return false
	}
}

// RequestRefund 投资者申请退款。满足资格时顺带完成 Active→Failed 的延迟转换
func (l *Ledger) RequestRefund(ctx context.Context, msg Msg, id uint64) error {
	return l.nonReentrant(func() error {
		return l.atomic(func() error {
			ps, err := l.projectAt(id)
			if err != nil {
				return err
			}
			if !IsRefundEligible(ps.Project, msg.Now) {
				return ErrRefundUnavailable
			}

			balance := ps.contributionOf(msg.Sender)
			if balance == nil || balance.Sign() == 0 {
				return ErrNoContribution
			}

			if ps.Status == StatusActive {
				l.setStatus(ps, StatusFailed)
				l.emit(ProjectFailed{ProjectID: id})
			}

			amount := new(big.Int).Set(balance)
			l.addAmount(balance, new(big.Int).Neg(amount))
			l.addAmount(ps.CurrentAmount, new(big.Int).Neg(amount))

			if err := l.bank.Transfer(ctx, l.address, msg.Sender, amount); err != nil {
				return fmt.Errorf("%w: refund: %v", ErrTransferFailed, err)
			}

			l.emit(RefundIssued{ProjectID: id, Contributor: msg.Sender, Amount: amount})
			return nil
		})
	})
}

// CancelProject 创建者取消进行中的项目，资金由投资者自行申请退款
func (l *Ledger) CancelProject(ctx context.Context, msg Msg, id uint64) error {
	return l.atomic(func() error {
		ps, err := l.projectAt(id)
		if err != nil {
			return err
		}
		if msg.Sender != ps.Creator {
			return ErrNotCreator
		}
		return l.fail(ps)
	})
}

// EmergencyFailProject 所有者紧急将项目标记为失败
func (l *Ledger) EmergencyFailProject(ctx context.Context, msg Msg, id uint64) error {
	return l.atomic(func() error {
		if err := l.access.OnlyOwner(msg.Sender); err != nil {
			return err
		}
		ps, err := l.projectAt(id)
		if err != nil {
			return err
		}
		return l.fail(ps)
	})
}

func (l *Ledger) fail(ps *projectState) error {
	if ps.Status != StatusActive {
		return ErrProjectNotActive
	}
	l.setStatus(ps, StatusFailed)
	l.emit(ProjectFailed{ProjectID: ps.ID})
	return nil
}
