package core

import (
	"sync"

	"obsidian/core/events"
	"obsidian/core/state"
	"obsidian/core/types"
	"obsidian/crypto"
	"obsidian/native/auction"
	nativecommon "obsidian/native/common"
	"obsidian/native/confidential"
	"obsidian/native/darkpool"
	"obsidian/native/lendpool"
	"obsidian/storage"
)

// Node is the central controller wiring the state manager and the native
// engines together. Every operation runs under one mutex, giving each call
// exclusive access to the records it touches, and is wrapped in
// commit-on-success / discard-on-error over the state overlay so a failed
// call leaves no partial writes behind.
type Node struct {
	db       storage.Database
	manager  *state.Manager
	lend     *lendpool.Engine
	dark     *darkpool.Engine
	auctions *auction.Engine
	recorder *events.Recorder
	staged   *stagedEmitter
	stateMu  sync.Mutex
}

// stagedEmitter buffers engine events until the surrounding operation commits,
// so a failed or unpersisted operation leaves no trace in the audit trail.
// Access is serialized by the node's state mutex.
type stagedEmitter struct {
	sink    events.Emitter
	pending []events.Event
}

func (s *stagedEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	s.pending = append(s.pending, evt)
}

func (s *stagedEmitter) flush() {
	for _, evt := range s.pending {
		s.sink.Emit(evt)
	}
	s.pending = nil
}

func (s *stagedEmitter) discard() {
	s.pending = nil
}

// NewNode constructs a node over the provided database and wires all three
// engines to a shared state manager and event recorder. A nil sealer falls
// back to the placeholder prefix sealer.
func NewNode(db storage.Database, sealer confidential.Sealer) *Node {
	manager := state.NewManager(db)
	recorder := &events.Recorder{}
	staged := &stagedEmitter{sink: recorder}

	lend := lendpool.NewEngine(sealer)
	lend.SetState(manager)
	lend.SetEmitter(staged)

	dark := darkpool.NewEngine()
	dark.SetState(manager)
	dark.SetEmitter(staged)

	auctions := auction.NewEngine()
	auctions.SetState(manager)
	auctions.SetEmitter(staged)

	return &Node{
		db:       db,
		manager:  manager,
		lend:     lend,
		dark:     dark,
		auctions: auctions,
		recorder: recorder,
		staged:   staged,
	}
}

// SetPauses installs the governance pause view on every engine.
func (n *Node) SetPauses(p nativecommon.PauseView) {
	n.lend.SetPauses(p)
	n.dark.SetPauses(p)
	n.auctions.SetPauses(p)
}

// SetNowFunc overrides the time source on every engine. Primarily intended
// for tests.
func (n *Node) SetNowFunc(now func() int64) {
	n.lend.SetNowFunc(now)
	n.dark.SetNowFunc(now)
	n.auctions.SetNowFunc(now)
}

// Events returns every event emitted so far, in emission order.
func (n *Node) Events() []events.Event {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.recorder.Events()
}

// ApplyGenesis credits the configured starting balances. Only addresses with
// no existing account are credited, so re-running it on a restarted node is a
// no-op for already-funded accounts.
func (n *Node) ApplyGenesis(alloc map[string]uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	for encoded, balance := range alloc {
		addr, err := crypto.DecodeAddress(encoded)
		if err != nil {
			n.manager.Discard()
			return err
		}
		existing, err := n.manager.GetAccount(addr)
		if err != nil {
			n.manager.Discard()
			return err
		}
		if existing != nil {
			continue
		}
		if err := n.manager.PutAccount(addr, &types.Account{Balance: balance}); err != nil {
			n.manager.Discard()
			return err
		}
	}
	return n.manager.Commit()
}

// withState runs fn under the state mutex, committing the overlay when fn
// succeeds and discarding it when fn fails. Engine events are staged and only
// reach the recorder once the overlay has durably committed.
func (n *Node) withState(fn func() error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if err := fn(); err != nil {
		n.manager.Discard()
		n.staged.discard()
		return err
	}
	if err := n.manager.Commit(); err != nil {
		n.manager.Discard()
		n.staged.discard()
		return err
	}
	n.staged.flush()
	return nil
}

// --- Lending pool ---

func (n *Node) LendInitializePool(authority crypto.Address) (*lendpool.Pool, error) {
	var pool *lendpool.Pool
	err := n.withState(func() error {
		var innerErr error
		pool, innerErr = n.lend.InitializePool(authority)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (n *Node) LendDeposit(owner crypto.Address, amount uint64, proof []byte) (*lendpool.Loan, error) {
	var loan *lendpool.Loan
	err := n.withState(func() error {
		var innerErr error
		loan, innerErr = n.lend.Deposit(owner, amount, proof)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (n *Node) LendBorrow(owner crypto.Address, amount uint64, ltvProof []byte) (*lendpool.Loan, error) {
	var loan *lendpool.Loan
	err := n.withState(func() error {
		var innerErr error
		loan, innerErr = n.lend.Borrow(owner, amount, ltvProof)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (n *Node) LendLiquidate(liquidator, owner crypto.Address, proof []byte) (*lendpool.Loan, error) {
	var loan *lendpool.Loan
	err := n.withState(func() error {
		var innerErr error
		loan, innerErr = n.lend.Liquidate(liquidator, owner, proof)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// LendGetPool returns the pool record, or nil before initialisation.
func (n *Node) LendGetPool() (*lendpool.Pool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	pool, err := n.manager.GetPool()
	if err != nil || pool == nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// LendGetLoan returns owner's loan record, or nil when none exists.
func (n *Node) LendGetLoan(owner crypto.Address) (*lendpool.Loan, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	loan, err := n.manager.GetLoan(owner)
	if err != nil || loan == nil {
		return nil, err
	}
	return loan.Clone(), nil
}

// GetAccount returns addr's custody account, or nil when it has never held a
// balance.
func (n *Node) GetAccount(addr crypto.Address) (*types.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.manager.GetAccount(addr)
}

// --- Dark pool ---

func (n *Node) DarkpoolInitialize(authority crypto.Address) (*darkpool.OrderBook, error) {
	var book *darkpool.OrderBook
	err := n.withState(func() error {
		var innerErr error
		book, innerErr = n.dark.InitializeDarkPool(authority)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (n *Node) DarkpoolCreateProofAccount(owner crypto.Address, orderID uint64) (*darkpool.ProofRecord, error) {
	var record *darkpool.ProofRecord
	err := n.withState(func() error {
		var innerErr error
		record, innerErr = n.dark.CreateProofAccount(owner, orderID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (n *Node) DarkpoolStoreProofChunk(caller crypto.Address, orderID uint64, chunk []byte, isOrderProof bool) (*darkpool.ProofRecord, error) {
	var record *darkpool.ProofRecord
	err := n.withState(func() error {
		var innerErr error
		record, innerErr = n.dark.StoreProofChunk(caller, orderID, chunk, isOrderProof)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (n *Node) DarkpoolSubmitOrder(owner crypto.Address, orderID uint64, payload []byte) (*darkpool.Order, error) {
	var order *darkpool.Order
	err := n.withState(func() error {
		var innerErr error
		order, innerErr = n.dark.SubmitEncryptedOrder(owner, orderID, payload)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (n *Node) DarkpoolMatchBatch(caller crypto.Address, batchID, settlementPrice uint64) (*darkpool.OrderBook, error) {
	var book *darkpool.OrderBook
	err := n.withState(func() error {
		var innerErr error
		book, innerErr = n.dark.MatchBatch(caller, batchID, settlementPrice)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DarkpoolGetOrderBook returns the order book, or nil before initialisation.
func (n *Node) DarkpoolGetOrderBook() (*darkpool.OrderBook, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	book, err := n.manager.GetOrderBook()
	if err != nil || book == nil {
		return nil, err
	}
	return book.Clone(), nil
}

// --- Auctions ---

func (n *Node) AuctionStart(auctionID uint64, positionOwner crypto.Address, collateralAmount, minimumBid, duration uint64) (*auction.Auction, error) {
	var a *auction.Auction
	err := n.withState(func() error {
		var innerErr error
		a, innerErr = n.auctions.StartAuction(auctionID, positionOwner, collateralAmount, minimumBid, duration)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (n *Node) AuctionSubmitBid(bidder crypto.Address, auctionID uint64, encryptedBid, bidProof []byte) (*auction.Bid, error) {
	var bid *auction.Bid
	err := n.withState(func() error {
		var innerErr error
		bid, innerErr = n.auctions.SubmitBid(bidder, auctionID, encryptedBid, bidProof)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (n *Node) AuctionSettle(winner crypto.Address, auctionID, winningBid uint64) (*auction.Auction, error) {
	var a *auction.Auction
	err := n.withState(func() error {
		var innerErr error
		a, innerErr = n.auctions.SettleAuction(winner, auctionID, winningBid)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AuctionGet returns the auction record, or nil when the id is unused.
func (n *Node) AuctionGet(auctionID uint64) (*auction.Auction, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	a, err := n.manager.GetAuction(auctionID)
	if err != nil || a == nil {
		return nil, err
	}
	return a.Clone(), nil
}
