package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// UpdatePlatformFeeRate 更新平台手续费率
func (l *Ledger) UpdatePlatformFeeRate(ctx context.Context, msg Msg, newRate uint64) error {
	return l.atomic(func() error {
		if err := l.access.OnlyOwner(msg.Sender); err != nil {
			return err
		}
		if newRate > MaxFeeRate {
			return ErrFeeRateTooHigh
		}

		oldRate := l.feeRate
		l.feeRate = newRate
		l.onRevert(func() { l.feeRate = oldRate })

		l.emit(PlatformFeeUpdated{OldRate: oldRate, NewRate: newRate})
		return nil
	})
}

// UpdatePlatformWallet 更新平台钱包
func (l *Ledger) UpdatePlatformWallet(ctx context.Context, msg Msg, wallet common.Address) error {
	return l.atomic(func() error {
		if err := l.access.OnlyOwner(msg.Sender); err != nil {
			return err
		}
		if wallet == (common.Address{}) {
			return ErrInvalidWallet
		}

		prev := l.platformWallet
		l.platformWallet = wallet
		l.onRevert(func() { l.platformWallet = prev })
		return nil
	})
}
