package auction

import "obsidian/crypto"

// MaxBidBytes is the fixed record budget for each sealed bid blob. Both the
// encrypted bid and its proof are capped at this size on submission.
const MaxBidBytes = 512

// Auction is a sealed-bid liquidation auction against one collateralized
// position. Bids are accepted strictly before StartTime+Duration; settlement
// is accepted at or after it, exactly once.
type Auction struct {
	PositionOwner    crypto.Address
	AuctionID        uint64
	CollateralAmount uint64
	MinimumBid       uint64
	StartTime        int64
	Duration         uint64
	Settled          bool
	Winner           crypto.Address
	WinningBid       uint64
}

// Clone returns a copy the caller may mutate freely.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// ExpiresAt returns the first instant at which bidding is closed and
// settlement is allowed.
func (a *Auction) ExpiresAt() int64 {
	return a.StartTime + int64(a.Duration)
}

// Bid is one bidder's sealed bid. Both blobs are opaque; bids are never
// compared or ranked on-chain, and a bid is immutable once stored.
type Bid struct {
	Bidder       crypto.Address
	AuctionID    uint64
	EncryptedBid []byte
	BidProof     []byte
	Timestamp    int64
}

// Clone returns a deep copy of the bid.
func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	clone := *b
	clone.EncryptedBid = append([]byte(nil), b.EncryptedBid...)
	clone.BidProof = append([]byte(nil), b.BidProof...)
	return &clone
}
