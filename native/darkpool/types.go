package darkpool

import "obsidian/crypto"

const (
	// MaxProofBytes is the fixed capacity of each proof buffer. Proofs larger
	// than one transport message are streamed in chunks, but the total may
	// never exceed the capacity declared at creation.
	MaxProofBytes = 2048
	// MaxPayloadBytes bounds the encrypted order payload, matching the record
	// size budgeted for it.
	MaxPayloadBytes = 512
	// InitialBatchID is the first batch identifier an order book hands out.
	InitialBatchID = 1
)

// OrderBook is the singleton registry for the dark pool. TotalOrders grows by
// exactly one per accepted order; NextBatchID advances by one per authority
// matching call.
type OrderBook struct {
	Authority   crypto.Address
	TotalOrders uint64
	NextBatchID uint64
}

// Clone returns a copy the caller may mutate freely.
func (b *OrderBook) Clone() *OrderBook {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// ProofRecord holds the streamed proof buffers for one (owner, order id)
// pair. Buffers grow append-only for the record's lifetime; there is no
// truncation or delete.
type ProofRecord struct {
	Owner           crypto.Address
	OrderID         uint64
	OrderProof      []byte
	ComplianceProof []byte
}

// Clone returns a deep copy of the record.
func (p *ProofRecord) Clone() *ProofRecord {
	if p == nil {
		return nil
	}
	clone := *p
	clone.OrderProof = append([]byte(nil), p.OrderProof...)
	clone.ComplianceProof = append([]byte(nil), p.ComplianceProof...)
	return &clone
}

// Order is a confidential trade intent. The payload stays opaque; submission
// only proves that an order proof existed first. The gating ProofRecord is
// referenced implicitly: both records are keyed by the same (Owner, OrderID)
// pair, so the proof reference needs no stored field. BatchID stays zero
// until an off-chain settlement assigns the order to a batch.
type Order struct {
	Owner            crypto.Address
	OrderID          uint64
	EncryptedPayload []byte
	Timestamp        int64
	Settled          bool
	BatchID          uint64
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.EncryptedPayload = append([]byte(nil), o.EncryptedPayload...)
	return &clone
}
