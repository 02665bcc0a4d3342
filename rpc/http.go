package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"obsidian/core"
	nativecommon "obsidian/native/common"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

var requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "obsidian_rpc_requests_total",
	Help: "JSON-RPC requests served, by method and outcome.",
}, []string{"method", "outcome"})

type Server struct {
	node *core.Node
}

func NewServer(node *core.Node) *Server {
	return &Server{node: node}
}

// Router returns the HTTP routes: the JSON-RPC endpoint at / and prometheus
// metrics at /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/", s.handle)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting JSON-RPC server on %s\n", addr)
	return http.ListenAndServe(addr, s.Router())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps engine sentinels to JSON-RPC error codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, nativecommon.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, nativecommon.ErrInvalidAmount),
		errors.Is(err, nativecommon.ErrInvalidProof),
		errors.Is(err, nativecommon.ErrProofCapacity),
		errors.Is(err, nativecommon.ErrArithmeticOverflow):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, nativecommon.ErrNotFound):
		writeError(w, http.StatusNotFound, id, codeServerError, err.Error(), nil)
	case errors.Is(err, nativecommon.ErrAlreadyExists),
		errors.Is(err, nativecommon.ErrBidExists),
		errors.Is(err, nativecommon.ErrPositionLiquidated),
		errors.Is(err, nativecommon.ErrAuctionSettled),
		errors.Is(err, nativecommon.ErrAuctionExpired),
		errors.Is(err, nativecommon.ErrAuctionNotExpired),
		errors.Is(err, nativecommon.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, id, codeServerError, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "failed to read request body", err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.route(recorder, r, &req)

	outcome := "ok"
	if recorder.status >= http.StatusBadRequest {
		outcome = "error"
	}
	requestCounter.WithLabelValues(req.Method, outcome).Inc()
}

func (s *Server) route(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "lend_initializePool":
		s.handleLendInitializePool(w, r, req)
	case "lend_deposit":
		s.handleLendDeposit(w, r, req)
	case "lend_borrow":
		s.handleLendBorrow(w, r, req)
	case "lend_liquidate":
		s.handleLendLiquidate(w, r, req)
	case "lend_getPool":
		s.handleLendGetPool(w, r, req)
	case "lend_getLoan":
		s.handleLendGetLoan(w, r, req)
	case "darkpool_initialize":
		s.handleDarkpoolInitialize(w, r, req)
	case "darkpool_createProofAccount":
		s.handleDarkpoolCreateProofAccount(w, r, req)
	case "darkpool_storeProofChunk":
		s.handleDarkpoolStoreProofChunk(w, r, req)
	case "darkpool_submitOrder":
		s.handleDarkpoolSubmitOrder(w, r, req)
	case "darkpool_matchBatch":
		s.handleDarkpoolMatchBatch(w, r, req)
	case "darkpool_getOrderBook":
		s.handleDarkpoolGetOrderBook(w, r, req)
	case "auction_start":
		s.handleAuctionStart(w, r, req)
	case "auction_submitBid":
		s.handleAuctionSubmitBid(w, r, req)
	case "auction_settle":
		s.handleAuctionSettle(w, r, req)
	case "auction_get":
		s.handleAuctionGet(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
