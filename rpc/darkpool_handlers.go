package rpc

import "net/http"

type darkpoolInitializeParams struct {
	Authority string `json:"authority"`
}

type darkpoolProofAccountParams struct {
	Owner   string `json:"owner"`
	OrderID uint64 `json:"orderId"`
}

type darkpoolProofChunkParams struct {
	Caller       string `json:"caller"`
	OrderID      uint64 `json:"orderId"`
	Chunk        []byte `json:"chunk"`
	IsOrderProof bool   `json:"isOrderProof"`
}

type darkpoolSubmitOrderParams struct {
	Owner   string `json:"owner"`
	OrderID uint64 `json:"orderId"`
	Payload []byte `json:"payload"`
}

type darkpoolMatchBatchParams struct {
	Caller          string `json:"caller"`
	BatchID         uint64 `json:"batchId"`
	SettlementPrice uint64 `json:"settlementPrice"`
}

func (s *Server) handleDarkpoolInitialize(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params darkpoolInitializeParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	authority, ok := decodeAddressParam(w, req, "authority", params.Authority)
	if !ok {
		return
	}
	book, err := s.node.DarkpoolInitialize(authority)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderBookResult(book))
}

func (s *Server) handleDarkpoolCreateProofAccount(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params darkpoolProofAccountParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, ok := decodeAddressParam(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	record, err := s.node.DarkpoolCreateProofAccount(owner, params.OrderID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newProofRecordResult(record))
}

func (s *Server) handleDarkpoolStoreProofChunk(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params darkpoolProofChunkParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, ok := decodeAddressParam(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	record, err := s.node.DarkpoolStoreProofChunk(caller, params.OrderID, params.Chunk, params.IsOrderProof)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newProofRecordResult(record))
}

func (s *Server) handleDarkpoolSubmitOrder(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params darkpoolSubmitOrderParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, ok := decodeAddressParam(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	order, err := s.node.DarkpoolSubmitOrder(owner, params.OrderID, params.Payload)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderResult(order))
}

func (s *Server) handleDarkpoolMatchBatch(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params darkpoolMatchBatchParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, ok := decodeAddressParam(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	book, err := s.node.DarkpoolMatchBatch(caller, params.BatchID, params.SettlementPrice)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderBookResult(book))
}

func (s *Server) handleDarkpoolGetOrderBook(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	book, err := s.node.DarkpoolGetOrderBook()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "dark pool not initialised", nil)
		return
	}
	writeResult(w, req.ID, newOrderBookResult(book))
}
