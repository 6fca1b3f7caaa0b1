package ledger

import (
	"context"
	"fmt"
	"math/big"
)

// SplitPayout 计算平台手续费和创建者所得，手续费向下取整
func SplitPayout(total *big.Int, feeRate uint64) (fee, creatorShare *big.Int, err error) {
	if feeRate > MaxFeeRate {
		return nil, nil, ErrFeeRateTooHigh
	}
	fee = new(big.Int).Mul(total, new(big.Int).SetUint64(feeRate))
	fee.Div(fee, new(big.Int).SetUint64(FeeDenominator))
	creatorShare = new(big.Int).Sub(total, fee)

	if new(big.Int).Add(fee, creatorShare).Cmp(total) != 0 || creatorShare.Sign() < 0 {
		return nil, nil, ErrSplitMismatch
	}
	return fee, creatorShare, nil
}

// WithdrawFunds 创建者提取成功项目的资金。状态先置为已提取再转账
func (l *Ledger) WithdrawFunds(ctx context.Context, msg Msg, id uint64) error {
	return l.nonReentrant(func() error {
		return l.atomic(func() error {
			ps, err := l.projectAt(id)
			if err != nil {
				return err
			}
			if msg.Sender != ps.Creator {
				return ErrNotCreator
			}
			if ps.Status != StatusSuccessful {
				return ErrNotSuccessful
			}

			fee, creatorShare, err := SplitPayout(ps.CurrentAmount, l.feeRate)
			if err != nil {
				return err
			}

			l.setStatus(ps, StatusWithdrawn)

			if fee.Sign() > 0 {
				if err := l.bank.Transfer(ctx, l.address, l.platformWallet, fee); err != nil {
					return fmt.Errorf("%w: platform fee: %v", ErrTransferFailed, err)
				}
			}
			if err := l.bank.Transfer(ctx, l.address, ps.Creator, creatorShare); err != nil {
				return fmt.Errorf("%w: creator share: %v", ErrTransferFailed, err)
			}

			l.emit(FundsWithdrawn{ProjectID: id, CreatorAmount: creatorShare, FeeAmount: fee})
			return nil
		})
	})
}
