package rpc

import (
	"encoding/json"
	"net/http"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError        = -32700
	codeInvalidRequest    = -32600
	codeMethodNotFound    = -32601
	codeInvalidParams     = -32602
	codeUnauthorized      = -32001
	codeServerError       = -32000
	codeTransactionFailed = -32002
	codeNotFound          = -32004
	codeDuplicateTx       = -32010
	codeRateLimited       = -32020
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// AccountInfo is the getAccountInfo result. Data holds the encoded bytes and
// the encoding name.
type AccountInfo struct {
	Lamports   uint64    `json:"lamports"`
	Owner      string    `json:"owner"`
	Executable bool      `json:"executable"`
	Data       [2]string `json:"data"`
	Space      int       `json:"space"`
}

// SendResult is returned by sendTransaction on commit.
type SendResult struct {
	Signature string   `json:"signature"`
	Logs      []string `json:"logs"`
	Events    []Event  `json:"events,omitempty"`
}

type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// TransactionFailure is the data of a codeTransactionFailed error.
type TransactionFailure struct {
	Instruction *int     `json:"instruction,omitempty"`
	Name        string   `json:"name,omitempty"`
	Code        *uint32  `json:"code,omitempty"`
	Custom      bool     `json:"custom,omitempty"`
	Logs        []string `json:"logs,omitempty"`
}

// Trade is the decoded view of an open escrow record.
type Trade struct {
	Address      string `json:"address"`
	Maker        string `json:"maker"`
	OfferAccount string `json:"offerAccount"`
	OfferAmount  uint64 `json:"offerAmount"`
	TradeMint    string `json:"tradeMint"`
	TradeAmount  uint64 `json:"tradeAmount"`
	BumpSeed     uint8  `json:"bumpSeed"`
	Custodian    string `json:"custodian"`
	ProgramID    string `json:"programId"`
	Lamports     uint64 `json:"lamports"`
}

// TokenAccount is the decoded view of a token ledger account.
type TokenAccount struct {
	Address  string `json:"address"`
	Mint     string `json:"mint"`
	Owner    string `json:"owner"`
	Amount   uint64 `json:"amount"`
	Decimals uint8  `json:"decimals"`
	UIAmount string `json:"uiAmount"`
	State    string `json:"state"`
}

// EscrowConfig describes the escrow program served by the node.
type EscrowConfig struct {
	ProgramID           string `json:"programId"`
	FeeBeneficiary      string `json:"feeBeneficiary"`
	FeeBps              uint32 `json:"feeBps"`
	TokenProgramID      string `json:"tokenProgramId"`
	AssociatedProgramID string `json:"associatedProgramId"`
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
	raw, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, id, codeServerError, "failed to encode result", err.Error())
		return
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: raw}
	_ = json.NewEncoder(w).Encode(resp)
}
