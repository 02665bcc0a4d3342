package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"obsidian/crypto"
	"obsidian/native/lendpool"
)

type storedPool struct {
	Authority     []byte
	TotalDeposits uint64
	TotalBorrowed uint64
}

type storedLoan struct {
	Owner            []byte
	CollateralAmount uint64
	CollateralProof  []byte
	Borrowed         uint64
	LTVProof         []byte
	LiquidationProof []byte
	Liquidated       bool
	DepositTime      uint64
}

func loanKey(owner crypto.Address) []byte {
	return storageKey(loanPrefix, owner.Bytes())
}

// GetPool loads the singleton lending pool, or nil before initialisation.
func (m *Manager) GetPool() (*lendpool.Pool, error) {
	raw, err := m.get(storageKey(lendPoolKeyBytes))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedPool
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	authority, err := addressFromBytes(stored.Authority)
	if err != nil {
		return nil, fmt.Errorf("state: pool authority: %w", err)
	}
	return &lendpool.Pool{
		Authority:     authority,
		TotalDeposits: stored.TotalDeposits,
		TotalBorrowed: stored.TotalBorrowed,
	}, nil
}

// PutPool stages the singleton lending pool.
func (m *Manager) PutPool(pool *lendpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	raw, err := rlp.EncodeToBytes(&storedPool{
		Authority:     pool.Authority.Bytes(),
		TotalDeposits: pool.TotalDeposits,
		TotalBorrowed: pool.TotalBorrowed,
	})
	if err != nil {
		return err
	}
	m.put(storageKey(lendPoolKeyBytes), raw)
	return nil
}

// GetLoan loads the loan record for owner, or nil when none exists.
func (m *Manager) GetLoan(owner crypto.Address) (*lendpool.Loan, error) {
	raw, err := m.get(loanKey(owner))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedLoan
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	loanOwner, err := addressFromBytes(stored.Owner)
	if err != nil {
		return nil, fmt.Errorf("state: loan owner: %w", err)
	}
	return &lendpool.Loan{
		Owner:            loanOwner,
		CollateralAmount: stored.CollateralAmount,
		CollateralProof:  stored.CollateralProof,
		Borrowed:         stored.Borrowed,
		LTVProof:         stored.LTVProof,
		LiquidationProof: stored.LiquidationProof,
		Liquidated:       stored.Liquidated,
		DepositTime:      int64(stored.DepositTime),
	}, nil
}

// PutLoan stages the loan record keyed by its owner.
func (m *Manager) PutLoan(loan *lendpool.Loan) error {
	if loan == nil {
		return fmt.Errorf("state: nil loan")
	}
	raw, err := rlp.EncodeToBytes(&storedLoan{
		Owner:            loan.Owner.Bytes(),
		CollateralAmount: loan.CollateralAmount,
		CollateralProof:  loan.CollateralProof,
		Borrowed:         loan.Borrowed,
		LTVProof:         loan.LTVProof,
		LiquidationProof: loan.LiquidationProof,
		Liquidated:       loan.Liquidated,
		DepositTime:      uint64(loan.DepositTime),
	})
	if err != nil {
		return err
	}
	m.put(loanKey(loan.Owner), raw)
	return nil
}

func addressFromBytes(raw []byte) (crypto.Address, error) {
	if len(raw) != 20 {
		return crypto.Address{}, fmt.Errorf("expected 20 address bytes, got %d", len(raw))
	}
	return crypto.NewAddress(crypto.ObsidianPrefix, raw), nil
}
