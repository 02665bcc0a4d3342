package auction

import (
	"strconv"

	"obsidian/core/types"
)

const (
	EventTypeStarted      = "auction.started"
	EventTypeBidSubmitted = "auction.bid.submitted"
	EventTypeSettled      = "auction.settled"
)

// NewStartedEvent returns the canonical payload for auction creation.
func NewStartedEvent(a *Auction) *types.Event {
	attrs := auctionAttributes(a)
	if a != nil {
		attrs["minimumBid"] = strconv.FormatUint(a.MinimumBid, 10)
		attrs["startTime"] = strconv.FormatInt(a.StartTime, 10)
		attrs["duration"] = strconv.FormatUint(a.Duration, 10)
	}
	return &types.Event{Type: EventTypeStarted, Attributes: attrs}
}

// NewBidSubmittedEvent returns the payload emitted per accepted sealed bid.
// Only the bidder identity and sizes are exposed; bid contents stay opaque.
func NewBidSubmittedEvent(b *Bid) *types.Event {
	attrs := make(map[string]string)
	if b != nil {
		attrs["auctionId"] = strconv.FormatUint(b.AuctionID, 10)
		attrs["bidder"] = b.Bidder.String()
		attrs["bidBytes"] = strconv.Itoa(len(b.EncryptedBid))
		attrs["timestamp"] = strconv.FormatInt(b.Timestamp, 10)
	}
	return &types.Event{Type: EventTypeBidSubmitted, Attributes: attrs}
}

// NewSettledEvent returns the payload emitted when an auction settles. The
// winner and amount are externally asserted, so this event is their durable
// audit record.
func NewSettledEvent(a *Auction) *types.Event {
	attrs := auctionAttributes(a)
	if a != nil {
		attrs["winner"] = a.Winner.String()
		attrs["winningBid"] = strconv.FormatUint(a.WinningBid, 10)
	}
	return &types.Event{Type: EventTypeSettled, Attributes: attrs}
}

func auctionAttributes(a *Auction) map[string]string {
	attrs := make(map[string]string)
	if a == nil {
		return attrs
	}
	attrs["auctionId"] = strconv.FormatUint(a.AuctionID, 10)
	attrs["positionOwner"] = a.PositionOwner.String()
	attrs["collateral"] = strconv.FormatUint(a.CollateralAmount, 10)
	attrs["settled"] = strconv.FormatBool(a.Settled)
	return attrs
}
