package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"trader/core/types"
	"trader/rpc"
)

const (
	jsonRPCVersion = "2.0"
	defaultRPCID   = 1
	// codeTransactionFailed mirrors the server's program failure code.
	codeTransactionFailed = -32002
	codeNotFound          = -32004
)

// Client wraps a JSON-RPC endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	authToken  string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for RPC calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithAuthToken sets the bearer token attached to every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = strings.TrimSpace(token)
	}
}

// New returns a client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a JSON-RPC error returned by the node. Failure is set when a
// transaction was executed and rejected by a program.
type Error struct {
	Code    int
	Message string
	Failure *rpc.TransactionFailure
}

func (e *Error) Error() string {
	if e.Failure != nil && e.Failure.Name != "" {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Failure.Name)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is the node's not found error.
func IsNotFound(err error) bool {
	rpcErr, ok := err.(*Error)
	return ok && rpcErr.Code == codeNotFound
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc,omitempty"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	payload := rpcRequest{
		JSONRPC: jsonRPCVersion,
		ID:      defaultRPCID,
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client: encode rpc payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: rpc call failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("client: read rpc response: %w", err)
	}
	var decoded rpcResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("client: rpc error status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("client: decode rpc response: %w", err)
	}
	if decoded.Error != nil {
		rpcErr := &Error{Code: decoded.Error.Code, Message: decoded.Error.Message}
		if decoded.Error.Code == codeTransactionFailed && len(decoded.Error.Data) > 0 {
			failure := &rpc.TransactionFailure{}
			if json.Unmarshal(decoded.Error.Data, failure) == nil {
				rpcErr.Failure = failure
			}
		}
		return rpcErr
	}
	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("client: decode rpc result: %w", err)
	}
	return nil
}

// GetAccount implements Ledger. A missing account yields nil.
func (c *Client) GetAccount(ctx context.Context, key solana.PublicKey) (*types.Account, error) {
	var info *rpc.AccountInfo
	if err := c.call(ctx, "getAccountInfo", []interface{}{key.String(), map[string]string{"encoding": "base64"}}, &info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	owner, err := solana.PublicKeyFromBase58(info.Owner)
	if err != nil {
		return nil, fmt.Errorf("client: account owner: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(info.Data[0])
	if err != nil {
		return nil, fmt.Errorf("client: account data: %w", err)
	}
	return &types.Account{Lamports: info.Lamports, Owner: owner, Executable: info.Executable, Data: data}, nil
}

// GetBalance returns the lamports held by key.
func (c *Client) GetBalance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := c.call(ctx, "getBalance", []interface{}{key.String()}, &lamports)
	return lamports, err
}

// MinimumBalance implements Ledger.
func (c *Client) MinimumBalance(ctx context.Context, size int) (uint64, error) {
	var lamports uint64
	err := c.call(ctx, "getMinimumBalanceForRentExemption", []interface{}{size}, &lamports)
	return lamports, err
}

// RequestAirdrop asks a development node to credit key.
func (c *Client) RequestAirdrop(ctx context.Context, key solana.PublicKey, lamports uint64) (solana.Signature, error) {
	var sig string
	if err := c.call(ctx, "requestAirdrop", []interface{}{key.String(), lamports}, &sig); err != nil {
		return solana.Signature{}, err
	}
	return solana.SignatureFromBase58(sig)
}

// Send implements Ledger.
func (c *Client) Send(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var result rpc.SendResult
	if err := c.call(ctx, "sendTransaction", []interface{}{base64.StdEncoding.EncodeToString(raw)}, &result); err != nil {
		return nil, err
	}
	sig, err := solana.SignatureFromBase58(result.Signature)
	if err != nil {
		return nil, fmt.Errorf("client: signature: %w", err)
	}
	return &Receipt{Signature: sig, Logs: result.Logs}, nil
}

// GetTrade returns the decoded open trade at record.
func (c *Client) GetTrade(ctx context.Context, record solana.PublicKey) (*rpc.Trade, error) {
	var trade rpc.Trade
	if err := c.call(ctx, "getTrade", []interface{}{record.String()}, &trade); err != nil {
		return nil, err
	}
	return &trade, nil
}

// GetTokenAccount returns the decoded token account at key.
func (c *Client) GetTokenAccount(ctx context.Context, key solana.PublicKey) (*rpc.TokenAccount, error) {
	var acc rpc.TokenAccount
	if err := c.call(ctx, "getTokenAccount", []interface{}{key.String()}, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetEscrowConfig returns the node's escrow program settings.
func (c *Client) GetEscrowConfig(ctx context.Context) (*rpc.EscrowConfig, error) {
	var cfg rpc.EscrowConfig
	if err := c.call(ctx, "getEscrowConfig", []interface{}{}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
