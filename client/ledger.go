package client

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"trader/core/runtime"
	"trader/core/types"
)

// Receipt describes a committed transaction.
type Receipt struct {
	Signature solana.Signature
	Logs      []string
}

// Ledger is what the trade workflow needs from a node. *Client talks to a
// remote node over JSON-RPC; Local drives an in-process runtime.
type Ledger interface {
	// GetAccount returns nil for a missing account.
	GetAccount(ctx context.Context, key solana.PublicKey) (*types.Account, error)
	MinimumBalance(ctx context.Context, size int) (uint64, error)
	Send(ctx context.Context, tx *types.Transaction) (*Receipt, error)
}

var (
	_ Ledger = (*Client)(nil)
	_ Ledger = Local{}
)

// Local adapts a runtime to Ledger.
type Local struct {
	Runtime *runtime.Runtime
}

func (l Local) GetAccount(_ context.Context, key solana.PublicKey) (*types.Account, error) {
	account, err := l.Runtime.GetAccount(key)
	if err != nil || !account.Exists() {
		return nil, err
	}
	return account, nil
}

func (l Local) MinimumBalance(_ context.Context, size int) (uint64, error) {
	return l.Runtime.Rent().MinimumBalance(size), nil
}

func (l Local) Send(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	res, err := l.Runtime.Process(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &Receipt{Signature: res.Signature, Logs: res.Logs}, nil
}
