package lendpool

import (
	"errors"
	"time"

	"obsidian/core/events"
	"obsidian/core/types"
	"obsidian/crypto"
	nativecommon "obsidian/native/common"
	"obsidian/native/confidential"
)

var (
	errNilState           = errors.New("lendpool engine: state not configured")
	errPoolNotInitialized = errors.New("lendpool engine: pool not initialised")
)

const moduleName = "lendpool"

// ModuleAddress is the deterministic custody account holding pooled
// collateral. Deposits credit it; borrows, liquidations and auction
// settlements debit it.
var ModuleAddress = crypto.ModuleAddress(moduleName)

type engineState interface {
	GetPool() (*Pool, error)
	PutPool(*Pool) error
	GetLoan(owner crypto.Address) (*Loan, error)
	PutLoan(*Loan) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

type poolEvent struct {
	evt *types.Event
}

func (e poolEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e poolEvent) Event() *types.Event { return e.evt }

// Engine orchestrates the lending pool state transitions: one-shot pool
// initialisation, one loan per owner created by deposit, repeated borrows
// while the position is active, and a terminal liquidation. Amount arithmetic
// is checked; an overflow fails the whole operation and the node discards any
// staged writes, so no partial mutation survives.
type Engine struct {
	state         engineState
	moduleAddress crypto.Address
	sealer        confidential.Sealer
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	nowFn         func() int64
}

// NewEngine constructs a lending engine sealing proofs through the provided
// sealer. A nil sealer falls back to the placeholder prefix sealer.
func NewEngine(sealer confidential.Sealer) *Engine {
	if sealer == nil {
		sealer = confidential.PrefixSealer{}
	}
	return &Engine{
		moduleAddress: ModuleAddress,
		sealer:        sealer,
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses installs the governance pause view consulted before mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deposit timestamps. Primarily
// intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(poolEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InitializePool creates the singleton pool record with the caller as
// authority. A second initialisation fails.
func (e *Engine) InitializePool(authority crypto.Address) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	existing, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrAlreadyExists
	}
	pool := &Pool{Authority: authority}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	e.emit(NewPoolInitializedEvent(pool))
	return pool.Clone(), nil
}

// Deposit locks amount of the caller's balance as collateral and creates
// their loan record. The proof blob is sealed with the owner identity and
// stored for off-chain audit. One loan per owner: a second deposit fails.
func (e *Engine) Deposit(owner crypto.Address, amount uint64, proof []byte) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, nativecommon.ErrInvalidAmount
	}
	if len(proof) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	existing, err := e.state.GetLoan(owner)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrAlreadyExists
	}

	total, err := nativecommon.CheckedAdd(pool.TotalDeposits, amount)
	if err != nil {
		return nil, err
	}

	if err := e.transfer(owner, e.moduleAddress, amount); err != nil {
		return nil, err
	}

	loan := &Loan{
		Owner:            owner,
		CollateralAmount: amount,
		CollateralProof:  e.sealer.Seal(owner, proof),
		DepositTime:      e.now(),
	}
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	pool.TotalDeposits = total
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	e.emit(NewDepositedEvent(loan, amount))
	return loan.Clone(), nil
}

// Borrow draws amount from pool custody against the caller's collateral. The
// LTV proof is sealed and stored but never verified numerically; whether
// borrowed amounts should be bounded against collateral is an unresolved
// product decision and no ceiling is enforced here.
func (e *Engine) Borrow(owner crypto.Address, amount uint64, ltvProof []byte) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, nativecommon.ErrInvalidAmount
	}
	if len(ltvProof) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	loan, err := e.loadLoan(owner)
	if err != nil {
		return nil, err
	}
	if loan.Liquidated {
		return nil, nativecommon.ErrPositionLiquidated
	}

	borrowed, err := nativecommon.CheckedAdd(loan.Borrowed, amount)
	if err != nil {
		return nil, err
	}
	totalBorrowed, err := nativecommon.CheckedAdd(pool.TotalBorrowed, amount)
	if err != nil {
		return nil, err
	}

	if err := e.transfer(e.moduleAddress, owner, amount); err != nil {
		return nil, err
	}

	loan.Borrowed = borrowed
	loan.LTVProof = e.sealer.Seal(owner, ltvProof)
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	pool.TotalBorrowed = totalBorrowed
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	e.emit(NewBorrowedEvent(loan, amount))
	return loan.Clone(), nil
}

// Liquidate marks the owner's position as terminally liquidated and releases
// its collateral to the liquidator. Any caller may liquidate; the proof is
// sealed with the liquidator identity for off-chain audit. The proof write
// and flag flip are persisted before the custody transfer is attempted so a
// failed transfer aborts the whole operation rather than moving funds without
// a liquidation record.
func (e *Engine) Liquidate(liquidator, owner crypto.Address, proof []byte) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if len(proof) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}
	if _, err := e.ensurePool(); err != nil {
		return nil, err
	}
	loan, err := e.loadLoan(owner)
	if err != nil {
		return nil, err
	}
	if loan.Liquidated {
		return nil, nativecommon.ErrPositionLiquidated
	}

	loan.LiquidationProof = e.sealer.Seal(liquidator, proof)
	loan.Liquidated = true
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}

	if err := e.transfer(e.moduleAddress, liquidator, loan.CollateralAmount); err != nil {
		return nil, err
	}

	e.emit(NewLiquidatedEvent(loan, liquidator.String()))
	return loan.Clone(), nil
}

func (e *Engine) ensurePool() (*Pool, error) {
	pool, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errPoolNotInitialized
	}
	return pool, nil
}

func (e *Engine) loadLoan(owner crypto.Address) (*Loan, error) {
	loan, err := e.state.GetLoan(owner)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, nativecommon.ErrNotFound
	}
	return loan, nil
}

func (e *Engine) transfer(from, to crypto.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance < amount {
		return nativecommon.ErrInsufficientBalance
	}
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	newBalance, err := nativecommon.CheckedAdd(toAcc.Balance, amount)
	if err != nil {
		return err
	}
	fromAcc.Balance -= amount
	toAcc.Balance = newBalance
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	return acc, nil
}
