package auction

import (
	"errors"
	"time"

	"obsidian/core/events"
	"obsidian/core/types"
	"obsidian/crypto"
	nativecommon "obsidian/native/common"
	"obsidian/native/lendpool"
)

var errNilState = errors.New("auction engine: state not configured")

const moduleName = "auction"

type engineState interface {
	GetAuction(auctionID uint64) (*Auction, error)
	PutAuction(*Auction) error
	GetBid(auctionID uint64, bidder crypto.Address) (*Bid, error)
	PutBid(*Bid) error
	GetLoan(owner crypto.Address) (*lendpool.Loan, error)
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// Engine runs the sealed-bid liquidation auctions. Expiry checks are pure
// comparisons against the injected time source; nothing here schedules,
// blocks or retries. Settlement is trust-based: the caller asserts the
// winner and amount, and the engine records them without binding them to any
// stored bid. That gap is inherited from the source protocol and documented
// rather than fixed.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine creates an auction engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
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

// SetNowFunc overrides the time source used for expiry checks. Primarily
// intended for tests to pin deterministic timestamps.
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
	e.emitter.Emit(auctionEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// StartAuction opens a sealed-bid auction against positionOwner's loan. The
// loan must exist and must not already be liquidated; the auction id must be
// unused. Bidding opens immediately and runs for duration seconds.
func (e *Engine) StartAuction(auctionID uint64, positionOwner crypto.Address, collateralAmount, minimumBid, duration uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	loan, err := e.state.GetLoan(positionOwner)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, nativecommon.ErrNotFound
	}
	if loan.Liquidated {
		return nil, nativecommon.ErrPositionLiquidated
	}
	existing, err := e.state.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrAlreadyExists
	}

	a := &Auction{
		PositionOwner:    positionOwner,
		AuctionID:        auctionID,
		CollateralAmount: collateralAmount,
		MinimumBid:       minimumBid,
		StartTime:        e.now(),
		Duration:         duration,
	}
	if err := e.state.PutAuction(a); err != nil {
		return nil, err
	}
	e.emit(NewStartedEvent(a))
	return a.Clone(), nil
}

// SubmitBid stores the bidder's sealed bid. Both blobs must be non-empty and
// at most MaxBidBytes, the auction must be unsettled, and the bid must land
// strictly before StartTime+Duration. One bid per (auction, bidder); the
// stored bid is immutable.
func (e *Engine) SubmitBid(bidder crypto.Address, auctionID uint64, encryptedBid, bidProof []byte) (*Bid, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if len(encryptedBid) == 0 || len(bidProof) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}
	if len(encryptedBid) > MaxBidBytes || len(bidProof) > MaxBidBytes {
		return nil, nativecommon.ErrProofCapacity
	}
	a, err := e.loadAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if a.Settled {
		return nil, nativecommon.ErrAuctionSettled
	}
	now := e.now()
	if now >= a.ExpiresAt() {
		return nil, nativecommon.ErrAuctionExpired
	}
	existing, err := e.state.GetBid(auctionID, bidder)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrBidExists
	}

	bid := &Bid{
		Bidder:       bidder,
		AuctionID:    auctionID,
		EncryptedBid: append([]byte(nil), encryptedBid...),
		BidProof:     append([]byte(nil), bidProof...),
		Timestamp:    now,
	}
	if err := e.state.PutBid(bid); err != nil {
		return nil, err
	}
	e.emit(NewBidSubmittedEvent(bid))
	return bid.Clone(), nil
}

// SettleAuction records the externally determined winner and winning amount,
// flips the terminal settled flag, and releases the auctioned collateral
// from pool custody to the winner. Settlement is only accepted once the
// bidding window has fully elapsed.
func (e *Engine) SettleAuction(winner crypto.Address, auctionID, winningBid uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	a, err := e.loadAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if a.Settled {
		return nil, nativecommon.ErrAuctionSettled
	}
	if e.now() < a.ExpiresAt() {
		return nil, nativecommon.ErrAuctionNotExpired
	}

	a.Winner = winner
	a.WinningBid = winningBid
	a.Settled = true
	if err := e.state.PutAuction(a); err != nil {
		return nil, err
	}

	if err := e.transfer(lendpool.ModuleAddress, winner, a.CollateralAmount); err != nil {
		return nil, err
	}

	e.emit(NewSettledEvent(a))
	return a.Clone(), nil
}

func (e *Engine) loadAuction(auctionID uint64) (*Auction, error) {
	a, err := e.state.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nativecommon.ErrNotFound
	}
	return a, nil
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
