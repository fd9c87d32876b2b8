package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	trerrors "trader/core/errors"
	"trader/core/runtime"
	"trader/core/state"
	"trader/core/types"
	"trader/crypto"
	"trader/native/escrow"
	"trader/native/token"
	"trader/observability"
)

// Backend is the ledger the server exposes. *runtime.Runtime implements it.
type Backend interface {
	GetAccount(key solana.PublicKey) (*types.Account, error)
	Rent() runtime.Rent
	Airdrop(ctx context.Context, to solana.PublicKey, lamports uint64) (solana.Signature, error)
	Process(ctx context.Context, tx *types.Transaction) (*runtime.Result, error)
}

// Config captures the dependencies required to construct the server.
type Config struct {
	Backend         Backend
	EscrowProgramID solana.PublicKey
	EscrowParams    escrow.Params
	// AuthToken, when set, guards sendTransaction and requestAirdrop.
	AuthToken string
	RateLimit RateLimit
	Logger    *slog.Logger
}

// Server serves JSON-RPC 2.0 over HTTP.
type Server struct {
	backend   Backend
	programID solana.PublicKey
	params    escrow.Params
	authToken string
	limiter   *RateLimiter
	logger    *slog.Logger
	router    http.Handler
}

type handlerFunc func(r *http.Request, req *RPCRequest) (interface{}, *rpcFailure)

// rpcFailure pairs a JSON-RPC error with its HTTP status.
type rpcFailure struct {
	status int
	err    RPCError
}

func fail(status, code int, message string, data interface{}) *rpcFailure {
	return &rpcFailure{status: status, err: RPCError{Code: code, Message: message, Data: data}}
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		backend:   cfg.Backend,
		programID: cfg.EscrowProgramID,
		params:    cfg.EscrowParams,
		authToken: cfg.AuthToken,
		limiter:   NewRateLimiter(cfg.RateLimit, logger),
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(RequestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.With(s.limiter.Middleware).Post("/", s.handle)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"getAccountInfo":                    s.handleGetAccountInfo,
		"getBalance":                        s.handleGetBalance,
		"getMinimumBalanceForRentExemption": s.handleGetMinimumBalance,
		"requestAirdrop":                    s.authed(s.handleRequestAirdrop),
		"sendTransaction":                   s.authed(s.handleSendTransaction),
		"getTrade":                          s.handleGetTrade,
		"getTokenAccount":                   s.handleGetTokenAccount,
		"getEscrowConfig":                   s.handleGetEscrowConfig,
	}
}

func (s *Server) authed(next handlerFunc) handlerFunc {
	return func(r *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
		if authErr := checkBearer(r, s.authToken); authErr != nil {
			return nil, &rpcFailure{status: http.StatusUnauthorized, err: *authErr}
		}
		return next(r, req)
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
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

	handler, ok := s.methods()[req.Method]
	if !ok {
		observability.ModuleMetrics().Observe("unknown", strconv.Itoa(codeMethodNotFound), time.Since(start))
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	result, failure := handler(r, req)
	if failure != nil {
		observability.ModuleMetrics().Observe(req.Method, strconv.Itoa(failure.err.Code), time.Since(start))
		s.logger.Info("rpc request failed",
			"method", req.Method,
			"code", failure.err.Code,
			"error", failure.err.Message,
			"request_id", requestIDFrom(r.Context()))
		writeError(w, failure.status, req.ID, failure.err.Code, failure.err.Message, failure.err.Data)
		return
	}
	observability.ModuleMetrics().Observe(req.Method, "", time.Since(start))
	writeResult(w, req.ID, result)
}

func paramString(req *RPCRequest, idx int, name string) (string, *rpcFailure) {
	if len(req.Params) <= idx {
		return "", fail(http.StatusBadRequest, codeInvalidParams, name+" parameter required", nil)
	}
	var value string
	if err := json.Unmarshal(req.Params[idx], &value); err != nil {
		return "", fail(http.StatusBadRequest, codeInvalidParams, "invalid "+name+" parameter", err.Error())
	}
	return value, nil
}

func paramUint(req *RPCRequest, idx int, name string) (uint64, *rpcFailure) {
	if len(req.Params) <= idx {
		return 0, fail(http.StatusBadRequest, codeInvalidParams, name+" parameter required", nil)
	}
	var value uint64
	if err := json.Unmarshal(req.Params[idx], &value); err != nil {
		return 0, fail(http.StatusBadRequest, codeInvalidParams, "invalid "+name+" parameter", err.Error())
	}
	return value, nil
}

func paramAddress(req *RPCRequest, idx int) (solana.PublicKey, *rpcFailure) {
	raw, failure := paramString(req, idx, "address")
	if failure != nil {
		return solana.PublicKey{}, failure
	}
	key, err := crypto.ParseAddress(raw)
	if err != nil {
		return solana.PublicKey{}, fail(http.StatusBadRequest, codeInvalidParams, "failed to decode address", err.Error())
	}
	return key, nil
}

func (s *Server) loadAccount(key solana.PublicKey) (*types.Account, *rpcFailure) {
	account, err := s.backend.GetAccount(key)
	if err != nil {
		return nil, fail(http.StatusInternalServerError, codeServerError, "failed to load account", err.Error())
	}
	return account, nil
}

func (s *Server) handleGetAccountInfo(_ *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	key, failure := paramAddress(req, 0)
	if failure != nil {
		return nil, failure
	}
	encoding := "base64"
	if len(req.Params) > 1 {
		var opts struct {
			Encoding string `json:"encoding"`
		}
		if err := json.Unmarshal(req.Params[1], &opts); err != nil {
			return nil, fail(http.StatusBadRequest, codeInvalidParams, "invalid options parameter", err.Error())
		}
		if opts.Encoding != "" {
			encoding = opts.Encoding
		}
	}
	if encoding != "base64" && encoding != "base58" {
		return nil, fail(http.StatusBadRequest, codeInvalidParams, "unsupported encoding", encoding)
	}
	account, failure := s.loadAccount(key)
	if failure != nil {
		return nil, failure
	}
	if !account.Exists() {
		return nil, nil
	}
	data := base64.StdEncoding.EncodeToString(account.Data)
	if encoding == "base58" {
		data = base58.Encode(account.Data)
	}
	return &AccountInfo{
		Lamports:   account.Lamports,
		Owner:      account.Owner.String(),
		Executable: account.Executable,
		Data:       [2]string{data, encoding},
		Space:      len(account.Data),
	}, nil
}

func (s *Server) handleGetBalance(_ *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	key, failure := paramAddress(req, 0)
	if failure != nil {
		return nil, failure
	}
	account, failure := s.loadAccount(key)
	if failure != nil {
		return nil, failure
	}
	if account == nil {
		return uint64(0), nil
	}
	return account.Lamports, nil
}

func (s *Server) handleGetMinimumBalance(_ *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	size, failure := paramUint(req, 0, "size")
	if failure != nil {
		return nil, failure
	}
	if size > 10<<20 {
		return nil, fail(http.StatusBadRequest, codeInvalidParams, "size too large", size)
	}
	return s.backend.Rent().MinimumBalance(int(size)), nil
}

func (s *Server) handleRequestAirdrop(r *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	key, failure := paramAddress(req, 0)
	if failure != nil {
		return nil, failure
	}
	lamports, failure := paramUint(req, 1, "lamports")
	if failure != nil {
		return nil, failure
	}
	sig, err := s.backend.Airdrop(r.Context(), key, lamports)
	switch {
	case errors.Is(err, runtime.ErrAirdropDisabled):
		return nil, fail(http.StatusForbidden, codeServerError, "airdrop disabled", nil)
	case errors.Is(err, runtime.ErrInvalidAirdrop):
		return nil, fail(http.StatusBadRequest, codeInvalidParams, err.Error(), nil)
	case err != nil:
		return nil, fail(http.StatusInternalServerError, codeServerError, "airdrop failed", err.Error())
	}
	return sig.String(), nil
}

func (s *Server) handleSendTransaction(r *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	encoded, failure := paramString(req, 0, "transaction")
	if failure != nil {
		return nil, failure
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fail(http.StatusBadRequest, codeInvalidParams, "transaction must be base64", err.Error())
	}
	tx := &types.Transaction{}
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fail(http.StatusBadRequest, codeInvalidParams, "invalid transaction format", err.Error())
	}
	res, err := s.backend.Process(r.Context(), tx)
	if err != nil {
		return nil, transactionFailure(err, res)
	}
	out := &SendResult{Signature: res.Signature.String(), Logs: res.Logs}
	for _, evt := range res.Events {
		payload := evt.Event()
		if payload == nil {
			continue
		}
		out.Events = append(out.Events, Event{Type: payload.Type, Attributes: payload.Attributes})
	}
	return out, nil
}

func transactionFailure(err error, res *runtime.Result) *rpcFailure {
	switch {
	case errors.Is(err, state.ErrAlreadyProcessed):
		return fail(http.StatusConflict, codeDuplicateTx, "transaction has already been processed", nil)
	case errors.Is(err, types.ErrInvalidSignature), errors.Is(err, types.ErrSignatureMismatch),
		errors.Is(err, runtime.ErrUnsigned), errors.Is(err, runtime.ErrEmptyTransaction):
		return fail(http.StatusBadRequest, codeInvalidParams, err.Error(), nil)
	}
	data := &TransactionFailure{}
	if res != nil {
		data.Logs = res.Logs
	}
	var ixErr *runtime.InstructionError
	if errors.As(err, &ixErr) {
		index := ixErr.Index
		data.Instruction = &index
	}
	if name, code, custom, ok := trerrors.Describe(err); ok {
		data.Name = name
		data.Code = &code
		data.Custom = custom
	}
	return fail(http.StatusOK, codeTransactionFailed, "transaction failed: "+err.Error(), data)
}

func (s *Server) handleGetTrade(_ *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	key, failure := paramAddress(req, 0)
	if failure != nil {
		return nil, failure
	}
	account, failure := s.loadAccount(key)
	if failure != nil {
		return nil, failure
	}
	if account == nil || !account.Owner.Equals(s.programID) {
		return nil, fail(http.StatusOK, codeNotFound, "trade not found", key.String())
	}
	rec, err := escrow.UnpackRecord(account.Data)
	if err != nil || !rec.Initialized {
		return nil, fail(http.StatusOK, codeNotFound, "trade not found", key.String())
	}
	custodian, err := escrow.AuthorityFor(key, rec.BumpSeed, rec.ProgramID)
	if err != nil {
		return nil, fail(http.StatusInternalServerError, codeServerError, "record holds an invalid bump", err.Error())
	}
	return &Trade{
		Address:      key.String(),
		Maker:        rec.Authority.String(),
		OfferAccount: rec.OfferAccount.String(),
		OfferAmount:  rec.OfferAmount,
		TradeMint:    rec.TradeMint.String(),
		TradeAmount:  rec.TradeAmount,
		BumpSeed:     rec.BumpSeed,
		Custodian:    custodian.String(),
		ProgramID:    rec.ProgramID.String(),
		Lamports:     account.Lamports,
	}, nil
}

func (s *Server) handleGetTokenAccount(_ *http.Request, req *RPCRequest) (interface{}, *rpcFailure) {
	key, failure := paramAddress(req, 0)
	if failure != nil {
		return nil, failure
	}
	account, failure := s.loadAccount(key)
	if failure != nil {
		return nil, failure
	}
	if account == nil || !account.Owner.Equals(s.params.TokenProgramID) {
		return nil, fail(http.StatusOK, codeNotFound, "token account not found", key.String())
	}
	acc, err := token.UnpackAccount(account.Data)
	if err != nil || !acc.IsInitialized() {
		return nil, fail(http.StatusOK, codeNotFound, "token account not found", key.String())
	}
	var decimals uint8
	if mintAccount, failure := s.loadAccount(acc.Mint); failure == nil && mintAccount != nil {
		if mint, err := token.UnpackMint(mintAccount.Data); err == nil {
			decimals = mint.Decimals
		}
	}
	stateName := "initialized"
	if acc.State == token.StateFrozen {
		stateName = "frozen"
	}
	return &TokenAccount{
		Address:  key.String(),
		Mint:     acc.Mint.String(),
		Owner:    acc.Owner.String(),
		Amount:   acc.Amount,
		Decimals: decimals,
		UIAmount: token.FormatAmount(acc.Amount, decimals),
		State:    stateName,
	}, nil
}

func (s *Server) handleGetEscrowConfig(_ *http.Request, _ *RPCRequest) (interface{}, *rpcFailure) {
	return &EscrowConfig{
		ProgramID:           s.programID.String(),
		FeeBeneficiary:      s.params.FeeBeneficiary.String(),
		FeeBps:              s.params.FeeBps,
		TokenProgramID:      s.params.TokenProgramID.String(),
		AssociatedProgramID: s.params.AssociatedProgramID.String(),
	}, nil
}
