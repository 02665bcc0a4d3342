package lendpool

import "obsidian/crypto"

// Pool is the singleton accounting record for the shared lending pool.
// Totals only ever grow; liquidations move custody without decrementing them,
// so both counters are monotone audit figures rather than live liquidity.
type Pool struct {
	// Authority is the identity that initialised the pool.
	Authority crypto.Address
	// TotalDeposits is the aggregate collateral ever deposited.
	TotalDeposits uint64
	// TotalBorrowed is the aggregate amount ever borrowed.
	TotalBorrowed uint64
}

// Clone returns a copy the caller may mutate freely.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Loan is one owner's collateralized borrowing position. Proof fields hold
// sealed opaque blobs recorded for off-chain audit; nothing on-chain ever
// interprets them.
type Loan struct {
	Owner            crypto.Address
	CollateralAmount uint64
	CollateralProof  []byte
	Borrowed         uint64
	LTVProof         []byte
	LiquidationProof []byte
	Liquidated       bool
	DepositTime      int64
}

// Clone returns a deep copy of the loan.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	clone.CollateralProof = append([]byte(nil), l.CollateralProof...)
	clone.LTVProof = append([]byte(nil), l.LTVProof...)
	clone.LiquidationProof = append([]byte(nil), l.LiquidationProof...)
	return &clone
}
