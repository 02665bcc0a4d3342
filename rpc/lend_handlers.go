package rpc

import "net/http"

type lendInitializeParams struct {
	Authority string `json:"authority"`
}

type lendDepositParams struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
	Proof  []byte `json:"proof"`
}

type lendBorrowParams struct {
	Owner    string `json:"owner"`
	Amount   uint64 `json:"amount"`
	LTVProof []byte `json:"ltvProof"`
}

type lendLiquidateParams struct {
	Liquidator string `json:"liquidator"`
	Owner      string `json:"owner"`
	Proof      []byte `json:"proof"`
}

type lendGetLoanParams struct {
	Owner string `json:"owner"`
}

func (s *Server) handleLendInitializePool(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lendInitializeParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	authority, ok := decodeAddressParam(w, req, "authority", params.Authority)
	if !ok {
		return
	}
	pool, err := s.node.LendInitializePool(authority)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newPoolResult(pool))
}

func (s *Server) handleLendDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lendDepositParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, ok := decodeAddressParam(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	loan, err := s.node.LendDeposit(owner, params.Amount, params.Proof)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newLoanResult(loan))
}

func (s *Server) handleLendBorrow(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lendBorrowParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, ok := decodeAddressParam(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	loan, err := s.node.LendBorrow(owner, params.Amount, params.LTVProof)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newLoanResult(loan))
}

func (s *Server) handleLendLiquidate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lendLiquidateParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	liquidator, ok := decodeAddressParam(w, req, "liquidator", params.Liquidator)
	if !ok {
		return
	}
	owner, ok := decodeAddressParam(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	loan, err := s.node.LendLiquidate(liquidator, owner, params.Proof)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newLoanResult(loan))
}

func (s *Server) handleLendGetPool(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	pool, err := s.node.LendGetPool()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if pool == nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "pool not initialised", nil)
		return
	}
	writeResult(w, req.ID, newPoolResult(pool))
}

func (s *Server) handleLendGetLoan(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lendGetLoanParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, ok := decodeAddressParam(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	loan, err := s.node.LendGetLoan(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if loan == nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "loan not found", nil)
		return
	}
	writeResult(w, req.ID, newLoanResult(loan))
}
