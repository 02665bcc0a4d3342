package common

import "errors"

// Shared validation error taxonomy for the native modules. Every mutating
// operation rejects invalid transitions with one of these sentinels before any
// state is touched; the node layer discards staged writes whenever one is
// returned. The source protocol exposed a few of these under two names
// (PositionLiquidated/AlreadyLiquidated, AuctionSettled/AlreadySettled); they
// are unified here.
var (
	// ErrInvalidAmount rejects non-positive token amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidProof rejects an empty proof or payload blob where one is
	// required. Blobs are opaque; only presence is checked.
	ErrInvalidProof = errors.New("proof data cannot be empty")
	// ErrPositionLiquidated rejects borrow or liquidate calls against a loan
	// whose liquidated flag is already set. Liquidation is terminal.
	ErrPositionLiquidated = errors.New("position already liquidated")
	// ErrUnauthorized rejects a caller whose identity does not match the
	// stored authority or owner of the record being mutated.
	ErrUnauthorized = errors.New("unauthorized caller")
	// ErrAuctionSettled rejects bids or repeated settlement against a settled
	// auction. Settlement is terminal.
	ErrAuctionSettled = errors.New("auction already settled")
	// ErrAuctionExpired rejects bids submitted at or after the auction expiry.
	ErrAuctionExpired = errors.New("auction bidding period has expired")
	// ErrAuctionNotExpired rejects settlement before the auction expiry.
	ErrAuctionNotExpired = errors.New("cannot settle auction before expiration")
	// ErrArithmeticOverflow rejects any checked u64 addition that would wrap.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrAlreadyExists rejects creation of a record whose key is taken
	// (second deposit for an owner, duplicate proof account, order or bid).
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotFound is returned when an operation names a record that was never
	// created.
	ErrNotFound = errors.New("record not found")
	// ErrProofCapacity rejects proof chunk appends that would push a buffer
	// past its fixed capacity.
	ErrProofCapacity = errors.New("proof buffer capacity exceeded")
	// ErrBidExists rejects a second bid from the same bidder on one auction.
	ErrBidExists = errors.New("bid already submitted for this auction")
	// ErrInsufficientBalance rejects custody transfers the funding account
	// cannot cover.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
