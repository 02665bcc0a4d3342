package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"obsidian/crypto"
	"obsidian/native/auction"
)

type storedAuction struct {
	PositionOwner    []byte
	AuctionID        uint64
	CollateralAmount uint64
	MinimumBid       uint64
	StartTime        uint64
	Duration         uint64
	Settled          bool
	Winner           []byte
	WinningBid       uint64
}

type storedBid struct {
	Bidder       []byte
	AuctionID    uint64
	EncryptedBid []byte
	BidProof     []byte
	Timestamp    uint64
}

func auctionKey(auctionID uint64) []byte {
	return storageKey(auctionPrefix, uint64Bytes(auctionID))
}

func bidKey(auctionID uint64, bidder crypto.Address) []byte {
	return storageKey(bidPrefix, uint64Bytes(auctionID), bidder.Bytes())
}

// GetAuction loads the auction record, or nil when the id is unused.
func (m *Manager) GetAuction(auctionID uint64) (*auction.Auction, error) {
	raw, err := m.get(auctionKey(auctionID))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedAuction
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	owner, err := addressFromBytes(stored.PositionOwner)
	if err != nil {
		return nil, fmt.Errorf("state: auction owner: %w", err)
	}
	out := &auction.Auction{
		PositionOwner:    owner,
		AuctionID:        stored.AuctionID,
		CollateralAmount: stored.CollateralAmount,
		MinimumBid:       stored.MinimumBid,
		StartTime:        int64(stored.StartTime),
		Duration:         stored.Duration,
		Settled:          stored.Settled,
		WinningBid:       stored.WinningBid,
	}
	// The winner stays zero until settlement records one.
	if len(stored.Winner) == 20 {
		out.Winner = crypto.NewAddress(crypto.ObsidianPrefix, stored.Winner)
	}
	return out, nil
}

// PutAuction stages the auction record keyed by its id.
func (m *Manager) PutAuction(a *auction.Auction) error {
	if a == nil {
		return fmt.Errorf("state: nil auction")
	}
	stored := &storedAuction{
		PositionOwner:    a.PositionOwner.Bytes(),
		AuctionID:        a.AuctionID,
		CollateralAmount: a.CollateralAmount,
		MinimumBid:       a.MinimumBid,
		StartTime:        uint64(a.StartTime),
		Duration:         a.Duration,
		Settled:          a.Settled,
		Winner:           a.Winner.Bytes(),
		WinningBid:       a.WinningBid,
	}
	raw, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	m.put(auctionKey(a.AuctionID), raw)
	return nil
}

// GetBid loads the sealed bid for (auctionID, bidder), or nil when none was
// submitted.
func (m *Manager) GetBid(auctionID uint64, bidder crypto.Address) (*auction.Bid, error) {
	raw, err := m.get(bidKey(auctionID, bidder))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedBid
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	bidAddr, err := addressFromBytes(stored.Bidder)
	if err != nil {
		return nil, fmt.Errorf("state: bidder: %w", err)
	}
	return &auction.Bid{
		Bidder:       bidAddr,
		AuctionID:    stored.AuctionID,
		EncryptedBid: stored.EncryptedBid,
		BidProof:     stored.BidProof,
		Timestamp:    int64(stored.Timestamp),
	}, nil
}

// PutBid stages the sealed bid keyed by (auctionID, bidder).
func (m *Manager) PutBid(b *auction.Bid) error {
	if b == nil {
		return fmt.Errorf("state: nil bid")
	}
	raw, err := rlp.EncodeToBytes(&storedBid{
		Bidder:       b.Bidder.Bytes(),
		AuctionID:    b.AuctionID,
		EncryptedBid: b.EncryptedBid,
		BidProof:     b.BidProof,
		Timestamp:    uint64(b.Timestamp),
	})
	if err != nil {
		return err
	}
	m.put(bidKey(b.AuctionID, b.Bidder), raw)
	return nil
}
