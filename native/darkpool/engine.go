package darkpool

import (
	"errors"
	"time"

	"obsidian/core/events"
	"obsidian/core/types"
	"obsidian/crypto"
	nativecommon "obsidian/native/common"
)

var (
	errNilState           = errors.New("darkpool engine: state not configured")
	errBookNotInitialized = errors.New("darkpool engine: order book not initialised")
)

const moduleName = "darkpool"

type engineState interface {
	GetOrderBook() (*OrderBook, error)
	PutOrderBook(*OrderBook) error
	GetProofRecord(owner crypto.Address, orderID uint64) (*ProofRecord, error)
	PutProofRecord(*ProofRecord) error
	GetOrder(owner crypto.Address, orderID uint64) (*Order, error)
	PutOrder(*Order) error
}

type darkpoolEvent struct {
	evt *types.Event
}

func (e darkpoolEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e darkpoolEvent) Event() *types.Event { return e.evt }

// Engine manages the confidential order flow: proof records streamed in
// chunks, orders gated on proof presence, and the authority-only batch
// checkpoint. Payloads and proofs are opaque bytes end to end; the engine
// checks sizes and presence, never content.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine creates a dark pool engine with a no-op emitter.
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

// SetNowFunc overrides the time source used for order timestamps. Primarily
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
	e.emitter.Emit(darkpoolEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InitializeDarkPool creates the singleton order book with the caller as
// matching authority. A second initialisation fails.
func (e *Engine) InitializeDarkPool(authority crypto.Address) (*OrderBook, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	existing, err := e.state.GetOrderBook()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrAlreadyExists
	}
	book := &OrderBook{Authority: authority, NextBatchID: InitialBatchID}
	if err := e.state.PutOrderBook(book); err != nil {
		return nil, err
	}
	e.emit(NewInitializedEvent(book))
	return book.Clone(), nil
}

// CreateProofAccount creates the empty proof record for (owner, orderID).
// The record must not already exist.
func (e *Engine) CreateProofAccount(owner crypto.Address, orderID uint64) (*ProofRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	existing, err := e.state.GetProofRecord(owner, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrAlreadyExists
	}
	record := &ProofRecord{Owner: owner, OrderID: orderID}
	if err := e.state.PutProofRecord(record); err != nil {
		return nil, err
	}
	e.emit(NewProofCreatedEvent(record))
	return record.Clone(), nil
}

// StoreProofChunk appends chunk to the order-proof or compliance-proof buffer
// of the caller's record. Only the declared owner may append, and an append
// that would push the buffer past MaxProofBytes is rejected whole.
func (e *Engine) StoreProofChunk(caller crypto.Address, orderID uint64, chunk []byte, isOrderProof bool) (*ProofRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if len(chunk) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}
	record, err := e.state.GetProofRecord(caller, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nativecommon.ErrNotFound
	}
	if !record.Owner.Equal(caller) {
		return nil, nativecommon.ErrUnauthorized
	}

	target := record.OrderProof
	if !isOrderProof {
		target = record.ComplianceProof
	}
	if len(target)+len(chunk) > MaxProofBytes {
		return nil, nativecommon.ErrProofCapacity
	}
	target = append(target, chunk...)
	if isOrderProof {
		record.OrderProof = target
	} else {
		record.ComplianceProof = target
	}

	if err := e.state.PutProofRecord(record); err != nil {
		return nil, err
	}
	e.emit(NewProofChunkEvent(record, len(chunk), isOrderProof))
	return record.Clone(), nil
}

// SubmitEncryptedOrder records a confidential order for (owner, orderID).
// The payload must be non-empty and the owner's proof record must already
// hold a non-empty order proof: the gate is presence, establishing the
// proof-before-order causal link, not a cryptographic check.
func (e *Engine) SubmitEncryptedOrder(owner crypto.Address, orderID uint64, payload []byte) (*Order, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}
	if len(payload) > MaxPayloadBytes {
		return nil, nativecommon.ErrProofCapacity
	}

	book, err := e.ensureOrderBook()
	if err != nil {
		return nil, err
	}
	record, err := e.state.GetProofRecord(owner, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Owner.Equal(owner) {
		return nil, nativecommon.ErrUnauthorized
	}
	if len(record.OrderProof) == 0 {
		return nil, nativecommon.ErrInvalidProof
	}
	existing, err := e.state.GetOrder(owner, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nativecommon.ErrAlreadyExists
	}

	totalOrders, err := nativecommon.CheckedAdd(book.TotalOrders, 1)
	if err != nil {
		return nil, err
	}

	order := &Order{
		Owner:            owner,
		OrderID:          orderID,
		EncryptedPayload: append([]byte(nil), payload...),
		Timestamp:        e.now(),
	}
	if err := e.state.PutOrder(order); err != nil {
		return nil, err
	}
	book.TotalOrders = totalOrders
	if err := e.state.PutOrderBook(book); err != nil {
		return nil, err
	}

	e.emit(NewOrderSubmittedEvent(order, book.TotalOrders))
	return order.Clone(), nil
}

// MatchBatch checkpoints that the authority processed batchID at
// settlementPrice and advances the batch counter. It deliberately selects no
// orders and verifies nothing about the price: matching is an off-chain,
// trusted responsibility and this call is its audit record.
func (e *Engine) MatchBatch(caller crypto.Address, batchID, settlementPrice uint64) (*OrderBook, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	book, err := e.ensureOrderBook()
	if err != nil {
		return nil, err
	}
	if !caller.Equal(book.Authority) {
		return nil, nativecommon.ErrUnauthorized
	}
	next, err := nativecommon.CheckedAdd(batchID, 1)
	if err != nil {
		return nil, err
	}
	book.NextBatchID = next
	if err := e.state.PutOrderBook(book); err != nil {
		return nil, err
	}
	e.emit(NewBatchMatchedEvent(batchID, settlementPrice, book.NextBatchID))
	return book.Clone(), nil
}

func (e *Engine) ensureOrderBook() (*OrderBook, error) {
	book, err := e.state.GetOrderBook()
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errBookNotInitialized
	}
	return book, nil
}
