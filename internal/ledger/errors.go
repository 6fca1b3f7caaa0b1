package ledger

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindState
	KindPayment
)

// String 返回错误类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindState:
		return "StateError"
	case KindPayment:
		return "PaymentError"
	default:
		return "UnknownError"
	}
}

// Error 账本错误，携带类别和原因
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func newError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// KindOf 提取错误类别，非账本错误返回 KindUnknown
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// ReasonOf 提取错误原因
func ReasonOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

var (
	ErrTitleEmpty          = newError(KindValidation, "Title cannot be empty")
	ErrDescriptionEmpty    = newError(KindValidation, "Description cannot be empty")
	ErrGoalTooLow          = newError(KindValidation, "Goal amount too low")
	ErrDurationTooShort    = newError(KindValidation, "Duration too short")
	ErrDurationTooLong     = newError(KindValidation, "Duration too long")
	ErrContributionTooLow  = newError(KindValidation, "Contribution amount too low")
	ErrFeeRateTooHigh      = newError(KindValidation, "Fee rate cannot exceed 10%")
	ErrInvalidWallet       = newError(KindValidation, "Invalid wallet address")
	ErrInvalidAddress      = newError(KindValidation, "Invalid address")
	ErrInvalidAmount       = newError(KindValidation, "Invalid amount")
	ErrZeroPlatformWallet  = newError(KindValidation, "Platform wallet cannot be zero address")
	ErrDirectPayment       = newError(KindValidation, "Direct payments not accepted. Use contribute function.")
	ErrProjectNotFound     = newError(KindNotFound, "Project does not exist")
	ErrCreatorContribution = newError(KindAuthorization, "Creator cannot contribute to own project")
	ErrNotCreator          = newError(KindAuthorization, "Only project creator can call this")
	ErrNotOwner            = newError(KindAuthorization, "Ownable: caller is not the owner")
	ErrProjectNotActive    = newError(KindState, "Project is not active")
	ErrNotSuccessful       = newError(KindState, "Project must be successful")
	ErrRefundUnavailable   = newError(KindState, "Refund not available")
	ErrDeadlinePassed      = newError(KindState, "Project deadline passed")
	ErrReentrantCall       = newError(KindState, "ReentrancyGuard: reentrant call")
	ErrNoContribution      = newError(KindPayment, "No contribution found")
	ErrTransferFailed      = newError(KindPayment, "Transfer failed")
	ErrInsufficientBalance = newError(KindPayment, "Insufficient balance")
	ErrSplitMismatch       = newError(KindState, "Fee split does not conserve funds")
)
