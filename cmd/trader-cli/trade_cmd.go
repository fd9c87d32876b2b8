package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"trader/native/token"
)

type marketOutput struct {
	MintA  string `json:"mintA"`
	MintB  string `json:"mintB"`
	MakerA string `json:"makerA"`
	MakerB string `json:"makerB"`
	TakerA string `json:"takerA"`
	TakerB string `json:"takerB"`
}

func runSetupCommand(e *env, args []string) int {
	fs := newFlagSet("setup", e.stderr)
	makerKey := fs.String("maker-key", "", "maker keypair file")
	takerKey := fs.String("taker-key", "", "taker keypair file")
	offer := fs.String("offer", "10.0", "units of asset A given to the maker")
	takerFunds := fs.String("taker-funds", "3.0", "units of asset B given to the taker")
	decimals := fs.Uint("decimals", 9, "decimals of both mints")
	if code := parseFlags(fs, args, e.stderr); code != exitOK {
		return code
	}
	if *makerKey == "" || *takerKey == "" {
		return usageError(e.stderr, "--maker-key and --taker-key are required")
	}
	if *decimals > 18 {
		return usageError(e.stderr, "--decimals must be at most 18")
	}
	offerUnits, err := token.ParseAmount(*offer, uint8(*decimals))
	if err != nil {
		return usageError(e.stderr, "--offer: %v", err)
	}
	fundUnits, err := token.ParseAmount(*takerFunds, uint8(*decimals))
	if err != nil {
		return usageError(e.stderr, "--taker-funds: %v", err)
	}

	payer, err := e.loadKey("")
	if err != nil {
		return printError(e.stderr, err)
	}
	maker, err := e.loadKey(*makerKey)
	if err != nil {
		return printError(e.stderr, err)
	}
	taker, err := e.loadKey(*takerKey)
	if err != nil {
		return printError(e.stderr, err)
	}
	ctx, cancel := commandContext()
	defer cancel()
	trader, err := e.trader(ctx, payer)
	if err != nil {
		return printError(e.stderr, err)
	}
	m, err := trader.SetupAccounts(ctx, maker.PublicKey(), taker.PublicKey(), uint8(*decimals), offerUnits, fundUnits)
	if err != nil {
		return printError(e.stderr, err)
	}
	return printJSON(e.stdout, marketOutput{
		MintA:  m.MintA.String(),
		MintB:  m.MintB.String(),
		MakerA: m.MakerA.String(),
		MakerB: m.MakerB.String(),
		TakerA: m.TakerA.String(),
		TakerB: m.TakerB.String(),
	})
}

// mintDecimals reads the decimals of mint from the node.
func (e *env) mintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	account, err := e.rpc.GetAccount(ctx, mint)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, fmt.Errorf("mint %s not found", mint)
	}
	decoded, err := token.UnpackMint(account.Data)
	if err != nil {
		return 0, fmt.Errorf("mint %s: %w", mint, err)
	}
	return decoded.Decimals, nil
}

type createTradeOutput struct {
	Record    string   `json:"record"`
	Custodian string   `json:"custodian"`
	Signature string   `json:"signature"`
	Logs      []string `json:"logs,omitempty"`
}

func runCreateTradeCommand(e *env, args []string) int {
	fs := newFlagSet("create-trade", e.stderr)
	makerKey := fs.String("maker-key", "", "maker keypair file (default: the payer keypair)")
	offerAccount := fs.String("offer-account", "", "token account to lock")
	tradeMint := fs.String("trade-mint", "", "mint of the asset asked in return")
	amount := fs.String("amount", "", "units of the trade mint asked, e.g. 2.0")
	if code := parseFlags(fs, args, e.stderr); code != exitOK {
		return code
	}
	offer, err := parseAddressFlag("offer-account", *offerAccount)
	if err != nil {
		return usageError(e.stderr, "%v", err)
	}
	mint, err := parseAddressFlag("trade-mint", *tradeMint)
	if err != nil {
		return usageError(e.stderr, "%v", err)
	}
	if *amount == "" {
		return usageError(e.stderr, "--amount is required")
	}

	payer, err := e.loadKey("")
	if err != nil {
		return printError(e.stderr, err)
	}
	maker := payer
	if *makerKey != "" {
		if maker, err = e.loadKey(*makerKey); err != nil {
			return printError(e.stderr, err)
		}
	}
	ctx, cancel := commandContext()
	defer cancel()
	decimals, err := e.mintDecimals(ctx, mint)
	if err != nil {
		return printError(e.stderr, err)
	}
	units, err := token.ParseAmount(*amount, decimals)
	if err != nil {
		return usageError(e.stderr, "--amount: %v", err)
	}
	trader, err := e.trader(ctx, payer)
	if err != nil {
		return printError(e.stderr, err)
	}
	open, err := trader.CreateTrade(ctx, maker, offer, mint, units)
	if err != nil {
		return printError(e.stderr, err)
	}
	return printJSON(e.stdout, createTradeOutput{
		Record:    open.Record.String(),
		Custodian: open.Custodian.String(),
		Signature: open.Receipt.Signature.String(),
		Logs:      open.Receipt.Logs,
	})
}

type makeTradeOutput struct {
	Signature string   `json:"signature"`
	Logs      []string `json:"logs,omitempty"`
}

func runMakeTradeCommand(e *env, args []string) int {
	fs := newFlagSet("make-trade", e.stderr)
	takerKey := fs.String("taker-key", "", "taker keypair file (default: the payer keypair)")
	record := fs.String("record", "", "trade record address")
	if code := parseFlags(fs, args, e.stderr); code != exitOK {
		return code
	}
	recordKey, err := parseAddressFlag("record", *record)
	if err != nil {
		return usageError(e.stderr, "%v", err)
	}
	payer, err := e.loadKey("")
	if err != nil {
		return printError(e.stderr, err)
	}
	taker := payer
	if *takerKey != "" {
		if taker, err = e.loadKey(*takerKey); err != nil {
			return printError(e.stderr, err)
		}
	}
	ctx, cancel := commandContext()
	defer cancel()
	trader, err := e.trader(ctx, payer)
	if err != nil {
		return printError(e.stderr, err)
	}
	receipt, err := trader.MakeTrade(ctx, taker, recordKey)
	if err != nil {
		return printError(e.stderr, err)
	}
	return printJSON(e.stdout, makeTradeOutput{Signature: receipt.Signature.String(), Logs: receipt.Logs})
}

func runShowTradeCommand(e *env, args []string) int {
	fs := newFlagSet("show-trade", e.stderr)
	record := fs.String("record", "", "trade record address")
	if code := parseFlags(fs, args, e.stderr); code != exitOK {
		return code
	}
	recordKey, err := parseAddressFlag("record", *record)
	if err != nil {
		return usageError(e.stderr, "%v", err)
	}
	ctx, cancel := commandContext()
	defer cancel()
	trade, err := e.rpc.GetTrade(ctx, recordKey)
	if err != nil {
		return printError(e.stderr, err)
	}
	return printJSON(e.stdout, trade)
}
