package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Contribute 投资项目，金额为调用附带的 Value
func (l *Ledger) Contribute(ctx context.Context, msg Msg, id uint64) error {
	return l.atomic(func() error {
		ps, err := l.projectAt(id)
		if err != nil {
			return err
		}
		if ps.Status != StatusActive {
			return ErrProjectNotActive
		}
		if msg.Sender == ps.Creator {
			return ErrCreatorContribution
		}
		if !msg.Now.Before(ps.Deadline) {
			return ErrDeadlinePassed
		}
		if msg.Value == nil || msg.Value.Cmp(MinContribution) < 0 {
			return ErrContributionTooLow
		}

		amount := new(big.Int).Set(msg.Value)
		balance := ps.contributionOf(msg.Sender)
		if balance == nil {
			l.addContributor(ps, msg.Sender)
			balance = ps.contributionOf(msg.Sender)
		}
		l.addAmount(balance, amount)
		l.addAmount(ps.CurrentAmount, amount)

		l.emit(ContributionMade{
			ProjectID:   id,
			Contributor: msg.Sender,
			Amount:      amount,
			Total:       new(big.Int).Set(ps.CurrentAmount),
		})

		if ps.CurrentAmount.Cmp(ps.GoalAmount) >= 0 {
			l.setStatus(ps, StatusSuccessful)
			l.emit(ProjectSuccessful{ProjectID: id, FinalAmount: new(big.Int).Set(ps.CurrentAmount)})
		}
		return nil
	})
}

// addContributor 首次贡献时登记贡献者并更新参与索引
func (l *Ledger) addContributor(ps *projectState, account common.Address) {
	ps.slots[account] = len(ps.records)
	ps.records = append(ps.records, contributorRecord{account: account, amount: new(big.Int)})
	ps.ContributorsCount++
	l.participatedIn[account] = append(l.participatedIn[account], ps.ID)

	l.onRevert(func() {
		delete(ps.slots, account)
		ps.records = ps.records[:len(ps.records)-1]
		ps.ContributorsCount--
		joined := l.participatedIn[account]
		l.participatedIn[account] = joined[:len(joined)-1]
	})
}

// GetUserContribution 用户在项目中的未退还贡献额，从未贡献返回 0
func (l *Ledger) GetUserContribution(id uint64, account common.Address) (*big.Int, error) {
	ps, err := l.projectAt(id)
	if err != nil {
		return nil, err
	}
	if balance := ps.contributionOf(account); balance != nil {
		return new(big.Int).Set(balance), nil
	}
	return new(big.Int), nil
}

// GetProjectContributors 项目贡献者，按首次贡献顺序
func (l *Ledger) GetProjectContributors(id uint64) ([]common.Address, error) {
	ps, err := l.projectAt(id)
	if err != nil {
		return nil, err
	}
	contributors := make([]common.Address, len(ps.records))
	for i, rec := range ps.records {
		contributors[i] = rec.account
	}
	return contributors, nil
}
