package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"obsidian/crypto"
	"obsidian/native/darkpool"
)

type storedOrderBook struct {
	Authority   []byte
	TotalOrders uint64
	NextBatchID uint64
}

type storedProofRecord struct {
	Owner           []byte
	OrderID         uint64
	OrderProof      []byte
	ComplianceProof []byte
}

type storedOrder struct {
	Owner            []byte
	OrderID          uint64
	EncryptedPayload []byte
	Timestamp        uint64
	Settled          bool
	BatchID          uint64
}

func proofKey(owner crypto.Address, orderID uint64) []byte {
	return storageKey(proofPrefix, owner.Bytes(), uint64Bytes(orderID))
}

func orderKey(owner crypto.Address, orderID uint64) []byte {
	return storageKey(orderPrefix, owner.Bytes(), uint64Bytes(orderID))
}

// GetOrderBook loads the singleton dark pool registry, or nil before
// initialisation.
func (m *Manager) GetOrderBook() (*darkpool.OrderBook, error) {
	raw, err := m.get(storageKey(orderBookKeyBytes))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedOrderBook
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	authority, err := addressFromBytes(stored.Authority)
	if err != nil {
		return nil, fmt.Errorf("state: order book authority: %w", err)
	}
	return &darkpool.OrderBook{
		Authority:   authority,
		TotalOrders: stored.TotalOrders,
		NextBatchID: stored.NextBatchID,
	}, nil
}

// PutOrderBook stages the singleton dark pool registry.
func (m *Manager) PutOrderBook(book *darkpool.OrderBook) error {
	if book == nil {
		return fmt.Errorf("state: nil order book")
	}
	raw, err := rlp.EncodeToBytes(&storedOrderBook{
		Authority:   book.Authority.Bytes(),
		TotalOrders: book.TotalOrders,
		NextBatchID: book.NextBatchID,
	})
	if err != nil {
		return err
	}
	m.put(storageKey(orderBookKeyBytes), raw)
	return nil
}

// GetProofRecord loads the proof record for (owner, orderID), or nil when it
// was never created.
func (m *Manager) GetProofRecord(owner crypto.Address, orderID uint64) (*darkpool.ProofRecord, error) {
	raw, err := m.get(proofKey(owner, orderID))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedProofRecord
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	recordOwner, err := addressFromBytes(stored.Owner)
	if err != nil {
		return nil, fmt.Errorf("state: proof record owner: %w", err)
	}
	return &darkpool.ProofRecord{
		Owner:           recordOwner,
		OrderID:         stored.OrderID,
		OrderProof:      stored.OrderProof,
		ComplianceProof: stored.ComplianceProof,
	}, nil
}

// PutProofRecord stages the proof record keyed by (owner, orderID).
func (m *Manager) PutProofRecord(record *darkpool.ProofRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil proof record")
	}
	raw, err := rlp.EncodeToBytes(&storedProofRecord{
		Owner:           record.Owner.Bytes(),
		OrderID:         record.OrderID,
		OrderProof:      record.OrderProof,
		ComplianceProof: record.ComplianceProof,
	})
	if err != nil {
		return err
	}
	m.put(proofKey(record.Owner, record.OrderID), raw)
	return nil
}

// GetOrder loads the encrypted order for (owner, orderID), or nil when none
// was submitted.
func (m *Manager) GetOrder(owner crypto.Address, orderID uint64) (*darkpool.Order, error) {
	raw, err := m.get(orderKey(owner, orderID))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedOrder
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	orderOwner, err := addressFromBytes(stored.Owner)
	if err != nil {
		return nil, fmt.Errorf("state: order owner: %w", err)
	}
	return &darkpool.Order{
		Owner:            orderOwner,
		OrderID:          stored.OrderID,
		EncryptedPayload: stored.EncryptedPayload,
		Timestamp:        int64(stored.Timestamp),
		Settled:          stored.Settled,
		BatchID:          stored.BatchID,
	}, nil
}

// PutOrder stages the encrypted order keyed by (owner, orderID).
func (m *Manager) PutOrder(order *darkpool.Order) error {
	if order == nil {
		return fmt.Errorf("state: nil order")
	}
	raw, err := rlp.EncodeToBytes(&storedOrder{
		Owner:            order.Owner.Bytes(),
		OrderID:          order.OrderID,
		EncryptedPayload: order.EncryptedPayload,
		Timestamp:        uint64(order.Timestamp),
		Settled:          order.Settled,
		BatchID:          order.BatchID,
	})
	if err != nil {
		return err
	}
	m.put(orderKey(order.Owner, order.OrderID), raw)
	return nil
}
