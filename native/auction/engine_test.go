package auction

import (
	"errors"
	"fmt"
	"testing"

	"obsidian/core/types"
	"obsidian/crypto"
	nativecommon "obsidian/native/common"
	"obsidian/native/lendpool"
)

type mockEngineState struct {
	auctions map[uint64]*Auction
	bids     map[string]*Bid
	loans    map[string]*lendpool.Loan
	accounts map[string]*types.Account
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		auctions: make(map[uint64]*Auction),
		bids:     make(map[string]*Bid),
		loans:    make(map[string]*lendpool.Loan),
		accounts: make(map[string]*types.Account),
	}
}

func (m *mockEngineState) addrKey(addr crypto.Address) string {
	return string(addr.Bytes())
}

func (m *mockEngineState) bidKey(auctionID uint64, bidder crypto.Address) string {
	return fmt.Sprintf("%d/%x", auctionID, bidder.Bytes())
}

func (m *mockEngineState) GetAuction(auctionID uint64) (*Auction, error) {
	if a, ok := m.auctions[auctionID]; ok {
		return a, nil
	}
	return nil, nil
}

func (m *mockEngineState) PutAuction(a *Auction) error {
	if a == nil {
		return nil
	}
	m.auctions[a.AuctionID] = a
	return nil
}

func (m *mockEngineState) GetBid(auctionID uint64, bidder crypto.Address) (*Bid, error) {
	if b, ok := m.bids[m.bidKey(auctionID, bidder)]; ok {
		return b, nil
	}
	return nil, nil
}

func (m *mockEngineState) PutBid(b *Bid) error {
	if b == nil {
		return nil
	}
	m.bids[m.bidKey(b.AuctionID, b.Bidder)] = b
	return nil
}

func (m *mockEngineState) GetLoan(owner crypto.Address) (*lendpool.Loan, error) {
	if loan, ok := m.loans[m.addrKey(owner)]; ok {
		return loan, nil
	}
	return nil, nil
}

func (m *mockEngineState) GetAccount(addr crypto.Address) (*types.Account, error) {
	if acc, ok := m.accounts[m.addrKey(addr)]; ok {
		return acc, nil
	}
	return nil, nil
}

func (m *mockEngineState) PutAccount(addr crypto.Address, account *types.Account) error {
	m.accounts[m.addrKey(addr)] = account
	return nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.ObsidianPrefix, raw)
}

// newTestEngine pins the clock to a mutable value so expiry boundaries can be
// probed second by second.
func newTestEngine(state *mockEngineState, now *int64) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return *now })
	return engine
}

func activeLoan(owner crypto.Address) *lendpool.Loan {
	return &lendpool.Loan{Owner: owner, CollateralAmount: 500}
}

func TestStartAuctionRequiresActiveLoan(t *testing.T) {
	owner := makeAddress(0x01)
	state := newMockEngineState()
	now := int64(1_000)
	engine := newTestEngine(state, &now)

	if _, err := engine.StartAuction(7, owner, 500, 10, 3_600); !errors.Is(err, nativecommon.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without a loan, got %v", err)
	}

	state.loans[state.addrKey(owner)] = &lendpool.Loan{Owner: owner, Liquidated: true}
	if _, err := engine.StartAuction(7, owner, 500, 10, 3_600); !errors.Is(err, nativecommon.ErrPositionLiquidated) {
		t.Fatalf("expected ErrPositionLiquidated, got %v", err)
	}

	state.loans[state.addrKey(owner)] = activeLoan(owner)
	a, err := engine.StartAuction(7, owner, 500, 10, 3_600)
	if err != nil {
		t.Fatalf("start auction: %v", err)
	}
	if a.StartTime != 1_000 || a.ExpiresAt() != 4_600 {
		t.Fatalf("unexpected auction window: start=%d expires=%d", a.StartTime, a.ExpiresAt())
	}

	if _, err := engine.StartAuction(7, owner, 500, 10, 3_600); !errors.Is(err, nativecommon.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for reused id, got %v", err)
	}
}

func TestSubmitBidSizeBounds(t *testing.T) {
	owner := makeAddress(0x01)
	bidder := makeAddress(0x02)
	state := newMockEngineState()
	state.loans[state.addrKey(owner)] = activeLoan(owner)

	now := int64(1_000)
	engine := newTestEngine(state, &now)
	if _, err := engine.StartAuction(7, owner, 500, 10, 3_600); err != nil {
		t.Fatalf("start auction: %v", err)
	}

	full := make([]byte, MaxBidBytes)
	over := make([]byte, MaxBidBytes+1)

	if _, err := engine.SubmitBid(bidder, 7, over, full); !errors.Is(err, nativecommon.ErrProofCapacity) {
		t.Fatalf("expected ErrProofCapacity for oversized bid, got %v", err)
	}
	if _, err := engine.SubmitBid(bidder, 7, full, over); !errors.Is(err, nativecommon.ErrProofCapacity) {
		t.Fatalf("expected ErrProofCapacity for oversized proof, got %v", err)
	}
	if got := len(state.bids); got != 0 {
		t.Fatalf("rejected bids were stored: %d", got)
	}

	bid, err := engine.SubmitBid(bidder, 7, full, full)
	if err != nil {
		t.Fatalf("bid at the size limit: %v", err)
	}
	if len(bid.EncryptedBid) != MaxBidBytes || len(bid.BidProof) != MaxBidBytes {
		t.Fatalf("unexpected stored blob sizes: %d %d", len(bid.EncryptedBid), len(bid.BidProof))
	}
}

func TestBidWindowBoundaries(t *testing.T) {
	owner := makeAddress(0x01)
	early := makeAddress(0x02)
	late := makeAddress(0x03)
	state := newMockEngineState()
	state.loans[state.addrKey(owner)] = activeLoan(owner)

	now := int64(1_000)
	engine := newTestEngine(state, &now)
	if _, err := engine.StartAuction(7, owner, 500, 10, 3_600); err != nil {
		t.Fatalf("start auction: %v", err)
	}

	if _, err := engine.SubmitBid(early, 7, nil, []byte{0x01}); !errors.Is(err, nativecommon.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for empty bid, got %v", err)
	}
	if _, err := engine.SubmitBid(early, 7, []byte{0x01}, nil); !errors.Is(err, nativecommon.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for empty proof, got %v", err)
	}

	now = 4_500
	bid, err := engine.SubmitBid(early, 7, []byte{0x01}, []byte{0x02})
	if err != nil {
		t.Fatalf("bid inside window: %v", err)
	}
	if bid.Timestamp != 4_500 {
		t.Fatalf("unexpected bid timestamp %d", bid.Timestamp)
	}

	// One bid per bidder, immutable.
	if _, err := engine.SubmitBid(early, 7, []byte{0x03}, []byte{0x04}); !errors.Is(err, nativecommon.ErrBidExists) {
		t.Fatalf("expected ErrBidExists, got %v", err)
	}

	// The last accepted second is expiry-1.
	now = 4_599
	if _, err := engine.SubmitBid(late, 7, []byte{0x01}, []byte{0x02}); err != nil {
		t.Fatalf("bid at expiry-1: %v", err)
	}
	state.bids = make(map[string]*Bid)
	now = 4_600
	if _, err := engine.SubmitBid(late, 7, []byte{0x01}, []byte{0x02}); !errors.Is(err, nativecommon.ErrAuctionExpired) {
		t.Fatalf("expected ErrAuctionExpired at boundary, got %v", err)
	}
	now = 4_700
	if _, err := engine.SubmitBid(late, 7, []byte{0x01}, []byte{0x02}); !errors.Is(err, nativecommon.ErrAuctionExpired) {
		t.Fatalf("expected ErrAuctionExpired past boundary, got %v", err)
	}
}

func TestSettleAuctionBoundariesAndTransfer(t *testing.T) {
	owner := makeAddress(0x01)
	winner := makeAddress(0x05)
	state := newMockEngineState()
	state.loans[state.addrKey(owner)] = activeLoan(owner)
	state.accounts[state.addrKey(lendpool.ModuleAddress)] = &types.Account{Balance: 500}

	now := int64(1_000)
	engine := newTestEngine(state, &now)
	if _, err := engine.StartAuction(7, owner, 500, 10, 3_600); err != nil {
		t.Fatalf("start auction: %v", err)
	}

	now = 4_599
	if _, err := engine.SettleAuction(winner, 7, 42); !errors.Is(err, nativecommon.ErrAuctionNotExpired) {
		t.Fatalf("expected ErrAuctionNotExpired before boundary, got %v", err)
	}

	now = 4_600
	a, err := engine.SettleAuction(winner, 7, 42)
	if err != nil {
		t.Fatalf("settle at boundary: %v", err)
	}
	if !a.Settled || a.WinningBid != 42 || !a.Winner.Equal(winner) {
		t.Fatalf("unexpected settled auction: %+v", a)
	}
	if got := state.accounts[state.addrKey(winner)].Balance; got != 500 {
		t.Fatalf("expected winner to receive 500, got %d", got)
	}
	if got := state.accounts[state.addrKey(lendpool.ModuleAddress)].Balance; got != 0 {
		t.Fatalf("expected pool custody drained, got %d", got)
	}

	// Terminal: second settlement and late bids both fail.
	if _, err := engine.SettleAuction(winner, 7, 43); !errors.Is(err, nativecommon.ErrAuctionSettled) {
		t.Fatalf("expected ErrAuctionSettled, got %v", err)
	}
	if _, err := engine.SubmitBid(makeAddress(0x06), 7, []byte{0x01}, []byte{0x02}); !errors.Is(err, nativecommon.ErrAuctionSettled) {
		t.Fatalf("expected ErrAuctionSettled for bid after settle, got %v", err)
	}
}

func TestSettleUnknownAuction(t *testing.T) {
	state := newMockEngineState()
	now := int64(0)
	engine := newTestEngine(state, &now)
	if _, err := engine.SettleAuction(makeAddress(0x01), 99, 1); !errors.Is(err, nativecommon.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
