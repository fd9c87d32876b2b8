package main

import (
	"errors"
	"fmt"
	"os"

	"trader/crypto"
)

func runKeygenCommand(e *env, args []string) int {
	fs := newFlagSet("keygen", e.stderr)
	outfile := fs.String("outfile", "", "keypair file to write (default: the configured keypair)")
	force := fs.Bool("force", false, "overwrite an existing file")
	if code := parseFlags(fs, args, e.stderr); code != exitOK {
		return code
	}
	path := *outfile
	if path == "" {
		path = e.cfg.KeypairPath
	}
	if path == "" {
		return usageError(e.stderr, "--outfile is required")
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return printError(e.stderr, fmt.Errorf("%s already exists, use --force to overwrite", path))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return printError(e.stderr, err)
	}
	key, err := crypto.GenerateKeypair()
	if err != nil {
		return printError(e.stderr, err)
	}
	if err := crypto.SaveKeygenFile(path, key); err != nil {
		return printError(e.stderr, err)
	}
	fmt.Fprintf(e.stdout, "Wrote new keypair to %s\n", path)
	fmt.Fprintf(e.stdout, "pubkey: %s\n", key.PublicKey())
	return exitOK
}

func runAirdropCommand(e *env, args []string) int {
	fs := newFlagSet("airdrop", e.stderr)
	to := fs.String("to", "", "recipient address (default: the payer keypair)")
	lamports := fs.Uint64("lamports", 0, "lamports to request")
	if code := parseFlags(fs, args, e.stderr); code != exitOK {
		return code
	}
	if *lamports == 0 {
		return usageError(e.stderr, "--lamports must be positive")
	}
	recipient := *to
	if recipient == "" {
		key, err := e.loadKey("")
		if err != nil {
			return printError(e.stderr, err)
		}
		recipient = key.PublicKey().String()
	}
	addr, err := parseAddressFlag("to", recipient)
	if err != nil {
		return usageError(e.stderr, "%v", err)
	}
	ctx, cancel := commandContext()
	defer cancel()
	sig, err := e.rpc.RequestAirdrop(ctx, addr, *lamports)
	if err != nil {
		return printError(e.stderr, err)
	}
	balance, err := e.rpc.GetBalance(ctx, addr)
	if err != nil {
		return printError(e.stderr, err)
	}
	fmt.Fprintf(e.stdout, "Signature: %s\n", sig)
	fmt.Fprintf(e.stdout, "Balance: %d lamports\n", balance)
	return exitOK
}
