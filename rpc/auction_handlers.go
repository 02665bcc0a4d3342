package rpc

import "net/http"

type auctionStartParams struct {
	AuctionID        uint64 `json:"auctionId"`
	PositionOwner    string `json:"positionOwner"`
	CollateralAmount uint64 `json:"collateralAmount"`
	MinimumBid       uint64 `json:"minimumBid"`
	Duration         uint64 `json:"duration"`
}

type auctionBidParams struct {
	Bidder       string `json:"bidder"`
	AuctionID    uint64 `json:"auctionId"`
	EncryptedBid []byte `json:"encryptedBid"`
	BidProof     []byte `json:"bidProof"`
}

type auctionSettleParams struct {
	Winner     string `json:"winner"`
	AuctionID  uint64 `json:"auctionId"`
	WinningBid uint64 `json:"winningBid"`
}

type auctionGetParams struct {
	AuctionID uint64 `json:"auctionId"`
}

func (s *Server) handleAuctionStart(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionStartParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, ok := decodeAddressParam(w, req, "positionOwner", params.PositionOwner)
	if !ok {
		return
	}
	a, err := s.node.AuctionStart(params.AuctionID, owner, params.CollateralAmount, params.MinimumBid, params.Duration)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newAuctionResult(a))
}

func (s *Server) handleAuctionSubmitBid(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionBidParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	bidder, ok := decodeAddressParam(w, req, "bidder", params.Bidder)
	if !ok {
		return
	}
	bid, err := s.node.AuctionSubmitBid(bidder, params.AuctionID, params.EncryptedBid, params.BidProof)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newBidResult(bid))
}

func (s *Server) handleAuctionSettle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionSettleParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	winner, ok := decodeAddressParam(w, req, "winner", params.Winner)
	if !ok {
		return
	}
	a, err := s.node.AuctionSettle(winner, params.AuctionID, params.WinningBid)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newAuctionResult(a))
}

func (s *Server) handleAuctionGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionGetParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	a, err := s.node.AuctionGet(params.AuctionID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "auction not found", nil)
		return
	}
	writeResult(w, req.ID, newAuctionResult(a))
}
