package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"

	"obsidian/crypto"
	"obsidian/native/auction"
	"obsidian/native/darkpool"
	"obsidian/native/lendpool"
)

// PoolResult summarises the lending pool for RPC consumers.
type PoolResult struct {
	Authority     string `json:"authority"`
	TotalDeposits uint64 `json:"totalDeposits"`
	TotalBorrowed uint64 `json:"totalBorrowed"`
}

func newPoolResult(pool *lendpool.Pool) *PoolResult {
	if pool == nil {
		return nil
	}
	return &PoolResult{
		Authority:     pool.Authority.String(),
		TotalDeposits: pool.TotalDeposits,
		TotalBorrowed: pool.TotalBorrowed,
	}
}

// LoanResult reflects a collateralized position. Proof blobs are base64.
type LoanResult struct {
	Owner            string `json:"owner"`
	CollateralAmount uint64 `json:"collateralAmount"`
	CollateralProof  []byte `json:"collateralProof,omitempty"`
	Borrowed         uint64 `json:"borrowed"`
	LTVProof         []byte `json:"ltvProof,omitempty"`
	LiquidationProof []byte `json:"liquidationProof,omitempty"`
	Liquidated       bool   `json:"liquidated"`
	DepositTime      int64  `json:"depositTime"`
}

func newLoanResult(loan *lendpool.Loan) *LoanResult {
	if loan == nil {
		return nil
	}
	return &LoanResult{
		Owner:            loan.Owner.String(),
		CollateralAmount: loan.CollateralAmount,
		CollateralProof:  loan.CollateralProof,
		Borrowed:         loan.Borrowed,
		LTVProof:         loan.LTVProof,
		LiquidationProof: loan.LiquidationProof,
		Liquidated:       loan.Liquidated,
		DepositTime:      loan.DepositTime,
	}
}

// OrderBookResult summarises the dark pool registry.
type OrderBookResult struct {
	Authority   string `json:"authority"`
	TotalOrders uint64 `json:"totalOrders"`
	NextBatchID uint64 `json:"nextBatchId"`
}

func newOrderBookResult(book *darkpool.OrderBook) *OrderBookResult {
	if book == nil {
		return nil
	}
	return &OrderBookResult{
		Authority:   book.Authority.String(),
		TotalOrders: book.TotalOrders,
		NextBatchID: book.NextBatchID,
	}
}

// ProofRecordResult reflects the streamed proof buffers; only their lengths
// are reported because the contents are opaque ciphertext.
type ProofRecordResult struct {
	Owner              string `json:"owner"`
	OrderID            uint64 `json:"orderId"`
	OrderProofBytes    int    `json:"orderProofBytes"`
	ComplianceProofLen int    `json:"complianceProofBytes"`
}

func newProofRecordResult(record *darkpool.ProofRecord) *ProofRecordResult {
	if record == nil {
		return nil
	}
	return &ProofRecordResult{
		Owner:              record.Owner.String(),
		OrderID:            record.OrderID,
		OrderProofBytes:    len(record.OrderProof),
		ComplianceProofLen: len(record.ComplianceProof),
	}
}

// OrderResult reflects a stored confidential order.
type OrderResult struct {
	Owner     string `json:"owner"`
	OrderID   uint64 `json:"orderId"`
	Timestamp int64  `json:"timestamp"`
	Settled   bool   `json:"settled"`
	BatchID   uint64 `json:"batchId"`
}

func newOrderResult(order *darkpool.Order) *OrderResult {
	if order == nil {
		return nil
	}
	return &OrderResult{
		Owner:     order.Owner.String(),
		OrderID:   order.OrderID,
		Timestamp: order.Timestamp,
		Settled:   order.Settled,
		BatchID:   order.BatchID,
	}
}

// AuctionResult reflects a sealed-bid auction record.
type AuctionResult struct {
	PositionOwner    string `json:"positionOwner"`
	AuctionID        uint64 `json:"auctionId"`
	CollateralAmount uint64 `json:"collateralAmount"`
	MinimumBid       uint64 `json:"minimumBid"`
	StartTime        int64  `json:"startTime"`
	Duration         uint64 `json:"duration"`
	ExpiresAt        int64  `json:"expiresAt"`
	Settled          bool   `json:"settled"`
	Winner           string `json:"winner,omitempty"`
	WinningBid       uint64 `json:"winningBid"`
}

func newAuctionResult(a *auction.Auction) *AuctionResult {
	if a == nil {
		return nil
	}
	result := &AuctionResult{
		PositionOwner:    a.PositionOwner.String(),
		AuctionID:        a.AuctionID,
		CollateralAmount: a.CollateralAmount,
		MinimumBid:       a.MinimumBid,
		StartTime:        a.StartTime,
		Duration:         a.Duration,
		ExpiresAt:        a.ExpiresAt(),
		Settled:          a.Settled,
		WinningBid:       a.WinningBid,
	}
	if !a.Winner.IsZero() {
		result.Winner = a.Winner.String()
	}
	return result
}

// BidResult acknowledges a stored sealed bid.
type BidResult struct {
	Bidder    string `json:"bidder"`
	AuctionID uint64 `json:"auctionId"`
	Timestamp int64  `json:"timestamp"`
}

func newBidResult(bid *auction.Bid) *BidResult {
	if bid == nil {
		return nil
	}
	return &BidResult{
		Bidder:    bid.Bidder.String(),
		AuctionID: bid.AuctionID,
		Timestamp: bid.Timestamp,
	}
}

// decodeSingleParam unmarshals the one expected positional parameter into
// target, writing the error response itself on failure.
func decodeSingleParam(w http.ResponseWriter, req *RPCRequest, target interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected one parameter object", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], target); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter", err.Error())
		return false
	}
	return true
}

func decodeAddressParam(w http.ResponseWriter, req *RPCRequest, field, value string) (crypto.Address, bool) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid %s address", field), err.Error())
		return crypto.Address{}, false
	}
	return addr, true
}
