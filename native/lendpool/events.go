package lendpool

import (
	"strconv"

	"obsidian/core/types"
)

const (
	EventTypePoolInitialized = "lendpool.pool.initialized"
	EventTypeDeposited       = "lendpool.deposited"
	EventTypeBorrowed        = "lendpool.borrowed"
	EventTypeLiquidated      = "lendpool.liquidated"
)

// NewPoolInitializedEvent returns the canonical payload for pool creation.
func NewPoolInitializedEvent(p *Pool) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["authority"] = p.Authority.String()
	}
	return &types.Event{Type: EventTypePoolInitialized, Attributes: attrs}
}

// NewDepositedEvent returns the canonical payload emitted when collateral is
// deposited and a loan record created.
func NewDepositedEvent(l *Loan, amount uint64) *types.Event {
	attrs := loanAttributes(l)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeDeposited, Attributes: attrs}
}

// NewBorrowedEvent returns the canonical payload emitted on each borrow.
func NewBorrowedEvent(l *Loan, amount uint64) *types.Event {
	attrs := loanAttributes(l)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeBorrowed, Attributes: attrs}
}

// NewLiquidatedEvent returns the canonical payload emitted when a position is
// liquidated. The liquidator is recorded because it does not appear on the
// loan record itself.
func NewLiquidatedEvent(l *Loan, liquidator string) *types.Event {
	attrs := loanAttributes(l)
	attrs["liquidator"] = liquidator
	return &types.Event{Type: EventTypeLiquidated, Attributes: attrs}
}

func loanAttributes(l *Loan) map[string]string {
	attrs := make(map[string]string)
	if l == nil {
		return attrs
	}
	attrs["owner"] = l.Owner.String()
	attrs["collateral"] = strconv.FormatUint(l.CollateralAmount, 10)
	attrs["borrowed"] = strconv.FormatUint(l.Borrowed, 10)
	attrs["liquidated"] = strconv.FormatBool(l.Liquidated)
	return attrs
}
