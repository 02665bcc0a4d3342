package lendpool

import (
	"errors"
	"math"
	"testing"

	"obsidian/core/events"
	"obsidian/core/types"
	"obsidian/crypto"
	nativecommon "obsidian/native/common"
)

type mockEngineState struct {
	pool     *Pool
	loans    map[string]*Loan
	accounts map[string]*types.Account
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		loans:    make(map[string]*Loan),
		accounts: make(map[string]*types.Account),
	}
}

func (m *mockEngineState) key(addr crypto.Address) string {
	return string(addr.Bytes())
}

func (m *mockEngineState) GetPool() (*Pool, error) { return m.pool, nil }

func (m *mockEngineState) PutPool(pool *Pool) error {
	m.pool = pool
	return nil
}

func (m *mockEngineState) GetLoan(owner crypto.Address) (*Loan, error) {
	if loan, ok := m.loans[m.key(owner)]; ok {
		return loan, nil
	}
	return nil, nil
}

func (m *mockEngineState) PutLoan(loan *Loan) error {
	if loan == nil {
		return nil
	}
	m.loans[m.key(loan.Owner)] = loan
	return nil
}

func (m *mockEngineState) GetAccount(addr crypto.Address) (*types.Account, error) {
	if acc, ok := m.accounts[m.key(addr)]; ok {
		return acc, nil
	}
	return nil, nil
}

func (m *mockEngineState) PutAccount(addr crypto.Address, account *types.Account) error {
	m.accounts[m.key(addr)] = account
	return nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.ObsidianPrefix, raw)
}

func newTestEngine(state *mockEngineState) *Engine {
	engine := NewEngine(nil)
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine
}

func TestInitializePoolOnce(t *testing.T) {
	authority := makeAddress(0x01)
	state := newMockEngineState()
	engine := newTestEngine(state)

	pool, err := engine.InitializePool(authority)
	if err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	if pool.TotalDeposits != 0 || pool.TotalBorrowed != 0 {
		t.Fatalf("expected zeroed totals, got %+v", pool)
	}
	if !pool.Authority.Equal(authority) {
		t.Fatalf("unexpected authority: %s", pool.Authority)
	}

	if _, err := engine.InitializePool(authority); !errors.Is(err, nativecommon.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on second initialize, got %v", err)
	}
}

func TestDepositCreatesLoanAndCreditsPool(t *testing.T) {
	authority := makeAddress(0x01)
	owner := makeAddress(0x02)

	state := newMockEngineState()
	state.accounts[state.key(owner)] = &types.Account{Balance: 1_500}
	engine := newTestEngine(state)
	if _, err := engine.InitializePool(authority); err != nil {
		t.Fatalf("initialize pool: %v", err)
	}

	loan, err := engine.Deposit(owner, 1_000, []byte{0x01})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if loan.CollateralAmount != 1_000 || loan.Borrowed != 0 || loan.Liquidated {
		t.Fatalf("unexpected loan: %+v", loan)
	}
	if state.pool.TotalDeposits != 1_000 {
		t.Fatalf("expected total deposits 1000, got %d", state.pool.TotalDeposits)
	}
	if got := state.accounts[state.key(owner)].Balance; got != 500 {
		t.Fatalf("expected owner balance 500, got %d", got)
	}
	if got := state.accounts[state.key(ModuleAddress)].Balance; got != 1_000 {
		t.Fatalf("expected pool custody 1000, got %d", got)
	}
	// The stored proof is sealed with the owner identity prepended.
	if len(loan.CollateralProof) != 21 {
		t.Fatalf("expected sealed proof of 21 bytes, got %d", len(loan.CollateralProof))
	}

	if _, err := engine.Deposit(owner, 100, []byte{0x02}); !errors.Is(err, nativecommon.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on second deposit, got %v", err)
	}
}

func TestDepositValidation(t *testing.T) {
	authority := makeAddress(0x01)
	owner := makeAddress(0x02)

	state := newMockEngineState()
	state.accounts[state.key(owner)] = &types.Account{Balance: 100}
	engine := newTestEngine(state)
	if _, err := engine.InitializePool(authority); err != nil {
		t.Fatalf("initialize pool: %v", err)
	}

	if _, err := engine.Deposit(owner, 0, []byte{0x01}); !errors.Is(err, nativecommon.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Deposit(owner, 10, nil); !errors.Is(err, nativecommon.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
	if state.pool.TotalDeposits != 0 {
		t.Fatalf("expected pool untouched after rejected deposits, got %d", state.pool.TotalDeposits)
	}
	if got := state.accounts[state.key(owner)].Balance; got != 100 {
		t.Fatalf("expected owner balance untouched, got %d", got)
	}
}

func TestBorrowLiquidateScenario(t *testing.T) {
	authority := makeAddress(0x01)
	owner := makeAddress(0x02)
	liquidator := makeAddress(0x03)

	state := newMockEngineState()
	state.accounts[state.key(owner)] = &types.Account{Balance: 1_000}
	// Pre-funded pool liquidity so the full collateral can be released even
	// after part of it was lent out.
	state.accounts[state.key(ModuleAddress)] = &types.Account{Balance: 400}
	engine := newTestEngine(state)

	recorder := &events.Recorder{}
	engine.SetEmitter(recorder)

	if _, err := engine.InitializePool(authority); err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	if _, err := engine.Deposit(owner, 1_000, []byte{0x01}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	loan, err := engine.Borrow(owner, 400, []byte{0x02})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if loan.Borrowed != 400 {
		t.Fatalf("expected borrowed 400, got %d", loan.Borrowed)
	}
	if state.pool.TotalBorrowed != 400 {
		t.Fatalf("expected pool borrowed 400, got %d", state.pool.TotalBorrowed)
	}
	if got := state.accounts[state.key(owner)].Balance; got != 400 {
		t.Fatalf("expected owner balance 400, got %d", got)
	}

	liquidated, err := engine.Liquidate(liquidator, owner, []byte{0x03})
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if !liquidated.Liquidated {
		t.Fatalf("expected liquidated flag set")
	}
	if got := state.accounts[state.key(liquidator)].Balance; got != 1_000 {
		t.Fatalf("expected liquidator to receive 1000, got %d", got)
	}

	// Terminal: no further borrow or liquidate.
	if _, err := engine.Borrow(owner, 1, []byte{0x04}); !errors.Is(err, nativecommon.ErrPositionLiquidated) {
		t.Fatalf("expected ErrPositionLiquidated on borrow, got %v", err)
	}
	if _, err := engine.Liquidate(liquidator, owner, []byte{0x05}); !errors.Is(err, nativecommon.ErrPositionLiquidated) {
		t.Fatalf("expected ErrPositionLiquidated on second liquidate, got %v", err)
	}
	if state.loans[state.key(owner)].Borrowed != 400 {
		t.Fatalf("expected borrowed unchanged after rejections")
	}

	wantEvents := []string{
		EventTypePoolInitialized,
		EventTypeDeposited,
		EventTypeBorrowed,
		EventTypeLiquidated,
	}
	got := recorder.Events()
	if len(got) != len(wantEvents) {
		t.Fatalf("expected %d events, got %d", len(wantEvents), len(got))
	}
	for i, evt := range got {
		if evt.EventType() != wantEvents[i] {
			t.Fatalf("event %d: got %s want %s", i, evt.EventType(), wantEvents[i])
		}
	}
}

func TestBorrowRequiresProofAndLoan(t *testing.T) {
	authority := makeAddress(0x01)
	owner := makeAddress(0x02)

	state := newMockEngineState()
	engine := newTestEngine(state)
	if _, err := engine.InitializePool(authority); err != nil {
		t.Fatalf("initialize pool: %v", err)
	}

	if _, err := engine.Borrow(owner, 10, nil); !errors.Is(err, nativecommon.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
	if _, err := engine.Borrow(owner, 10, []byte{0x01}); !errors.Is(err, nativecommon.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing loan, got %v", err)
	}
}

func TestDepositOverflowLeavesStateUntouched(t *testing.T) {
	authority := makeAddress(0x01)
	first := makeAddress(0x02)
	second := makeAddress(0x03)

	state := newMockEngineState()
	state.accounts[state.key(first)] = &types.Account{Balance: math.MaxUint64}
	state.accounts[state.key(second)] = &types.Account{Balance: 10}
	engine := newTestEngine(state)
	if _, err := engine.InitializePool(authority); err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	if _, err := engine.Deposit(first, math.MaxUint64, []byte{0x01}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := engine.Deposit(second, 1, []byte{0x02}); !errors.Is(err, nativecommon.ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
	if state.pool.TotalDeposits != math.MaxUint64 {
		t.Fatalf("expected total deposits unchanged, got %d", state.pool.TotalDeposits)
	}
	if got := state.accounts[state.key(second)].Balance; got != 10 {
		t.Fatalf("expected second depositor balance untouched, got %d", got)
	}
	if _, ok := state.loans[state.key(second)]; ok {
		t.Fatalf("expected no loan created for rejected deposit")
	}
}

func TestGuardBlocksMutation(t *testing.T) {
	authority := makeAddress(0x01)

	state := newMockEngineState()
	engine := newTestEngine(state)
	engine.SetPauses(stubPauseView{modules: map[string]bool{moduleName: true}})

	if _, err := engine.InitializePool(authority); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if state.pool != nil {
		t.Fatalf("expected no pool created while paused")
	}
}

type stubPauseView struct {
	modules map[string]bool
}

func (s stubPauseView) IsPaused(module string) bool {
	if s.modules == nil {
		return false
	}
	return s.modules[module]
}
