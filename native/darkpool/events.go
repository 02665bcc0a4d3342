package darkpool

import (
	"strconv"

	"obsidian/core/types"
)

const (
	EventTypeInitialized    = "darkpool.initialized"
	EventTypeProofCreated   = "darkpool.proof.created"
	EventTypeProofChunk     = "darkpool.proof.chunk"
	EventTypeOrderSubmitted = "darkpool.order.submitted"
	EventTypeBatchMatched   = "darkpool.batch.matched"
)

// NewInitializedEvent returns the canonical payload for order book creation.
func NewInitializedEvent(b *OrderBook) *types.Event {
	attrs := make(map[string]string)
	if b != nil {
		attrs["authority"] = b.Authority.String()
		attrs["nextBatchId"] = strconv.FormatUint(b.NextBatchID, 10)
	}
	return &types.Event{Type: EventTypeInitialized, Attributes: attrs}
}

// NewProofCreatedEvent returns the payload emitted when an empty proof record
// is created.
func NewProofCreatedEvent(p *ProofRecord) *types.Event {
	return &types.Event{Type: EventTypeProofCreated, Attributes: proofAttributes(p)}
}

// NewProofChunkEvent returns the payload emitted per accepted chunk append.
func NewProofChunkEvent(p *ProofRecord, chunkLen int, isOrderProof bool) *types.Event {
	attrs := proofAttributes(p)
	attrs["chunkBytes"] = strconv.Itoa(chunkLen)
	attrs["orderProof"] = strconv.FormatBool(isOrderProof)
	return &types.Event{Type: EventTypeProofChunk, Attributes: attrs}
}

// NewOrderSubmittedEvent returns the payload emitted when an encrypted order
// is accepted into the book.
func NewOrderSubmittedEvent(o *Order, totalOrders uint64) *types.Event {
	attrs := make(map[string]string)
	if o != nil {
		attrs["owner"] = o.Owner.String()
		attrs["orderId"] = strconv.FormatUint(o.OrderID, 10)
		attrs["payloadBytes"] = strconv.Itoa(len(o.EncryptedPayload))
	}
	attrs["totalOrders"] = strconv.FormatUint(totalOrders, 10)
	return &types.Event{Type: EventTypeOrderSubmitted, Attributes: attrs}
}

// NewBatchMatchedEvent returns the payload emitted when the authority stamps
// a settlement price onto a batch. This event is the only durable record of
// the price: the matcher is a commitment log, not a matching engine.
func NewBatchMatchedEvent(batchID, settlementPrice, nextBatchID uint64) *types.Event {
	return &types.Event{Type: EventTypeBatchMatched, Attributes: map[string]string{
		"batchId":         strconv.FormatUint(batchID, 10),
		"settlementPrice": strconv.FormatUint(settlementPrice, 10),
		"nextBatchId":     strconv.FormatUint(nextBatchID, 10),
	}}
}

func proofAttributes(p *ProofRecord) map[string]string {
	attrs := make(map[string]string)
	if p == nil {
		return attrs
	}
	attrs["owner"] = p.Owner.String()
	attrs["orderId"] = strconv.FormatUint(p.OrderID, 10)
	attrs["orderProofBytes"] = strconv.Itoa(len(p.OrderProof))
	attrs["complianceProofBytes"] = strconv.Itoa(len(p.ComplianceProof))
	return attrs
}
