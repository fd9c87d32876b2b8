package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"trader/client"
	"trader/config"
	"trader/crypto"
	"trader/native/escrow"
	"trader/observability/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	authTokenEnv   = "TRADER_RPC_TOKEN"
	commandTimeout = 2 * time.Minute
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage() string {
	return strings.Join([]string{
		"Usage: trader-cli [--config path] [--url endpoint] [--keypair path] [--verbose] <command> [flags]",
		"",
		"Commands:",
		"  keygen        create a keypair file",
		"  airdrop       request lamports from a development node",
		"  setup         create two mints and fund a maker and a taker",
		"  create-trade  lock a token account in a new trade",
		"  make-trade    settle an open trade as the taker",
		"  show-trade    print an open trade",
	}, "\n")
}

// env carries the global settings shared by every command.
type env struct {
	cfg    config.ClientConfig
	logger *slog.Logger
	rpc    *client.Client
	stdout io.Writer
	stderr io.Writer
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yml"
	}
	return filepath.Join(dir, "trader", "config.yml")
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trader-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath(), "client configuration file")
	url := fs.String("url", "", "JSON-RPC endpoint (overrides the configuration)")
	keypair := fs.String("keypair", "", "payer keypair file (overrides the configuration)")
	verbose := fs.Bool("verbose", false, "log debug output to stderr")
	fs.Usage = func() { fmt.Fprintln(stderr, usage()) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, usage())
		return exitUsage
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load %s: %v\n", *configPath, err)
		return exitFailure
	}
	if *url != "" {
		cfg.JSONRPCURL = *url
	}
	if *keypair != "" {
		cfg.KeypairPath = *keypair
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	e := &env{
		cfg:    cfg,
		logger: logging.SetupWithOptions("trader-cli", "", logging.Options{Level: level, Output: stderr}),
		rpc:    client.New(cfg.JSONRPCURL, client.WithAuthToken(os.Getenv(authTokenEnv))),
		stdout: stdout,
		stderr: stderr,
	}

	switch rest[0] {
	case "keygen":
		return runKeygenCommand(e, rest[1:])
	case "airdrop":
		return runAirdropCommand(e, rest[1:])
	case "setup":
		return runSetupCommand(e, rest[1:])
	case "create-trade":
		return runCreateTradeCommand(e, rest[1:])
	case "make-trade":
		return runMakeTradeCommand(e, rest[1:])
	case "show-trade":
		return runShowTradeCommand(e, rest[1:])
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", rest[0])
		fmt.Fprintln(stderr, usage())
		return exitUsage
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags returns exitOK when the command may proceed.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer) int {
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return exitUsage
	}
	return exitOK
}

func usageError(stderr io.Writer, format string, args ...any) int {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return exitUsage
}

func printError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var rpcErr *client.Error
	if errors.As(err, &rpcErr) && rpcErr.Failure != nil {
		for _, line := range rpcErr.Failure.Logs {
			fmt.Fprintf(stderr, "  log: %s\n", line)
		}
	}
	return exitFailure
}

func printJSON(stdout io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitFailure
	}
	return exitOK
}

func (e *env) loadKey(path string) (solana.PrivateKey, error) {
	if path == "" {
		path = e.cfg.KeypairPath
	}
	key, err := crypto.LoadKeygenFile(path)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded keypair", logging.MaskField("keypair_path", path), slog.String("address", key.PublicKey().String()))
	return key, nil
}

func parseAddressFlag(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := crypto.ParseAddress(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}

// trader builds the workflow helper for payer using the node's escrow
// settings. A program_id in the configuration must match the node.
func (e *env) trader(ctx context.Context, payer solana.PrivateKey) (*client.Trader, error) {
	remote, err := e.rpc.GetEscrowConfig(ctx)
	if err != nil {
		return nil, err
	}
	programID, err := crypto.ParseAddress(remote.ProgramID)
	if err != nil {
		return nil, err
	}
	if e.cfg.ProgramID != "" && e.cfg.ProgramID != remote.ProgramID {
		return nil, fmt.Errorf("configured program %s, node serves %s", e.cfg.ProgramID, remote.ProgramID)
	}
	params := escrow.Params{FeeBps: remote.FeeBps}
	for _, field := range []struct {
		dst   *solana.PublicKey
		value string
	}{
		{&params.FeeBeneficiary, remote.FeeBeneficiary},
		{&params.TokenProgramID, remote.TokenProgramID},
		{&params.AssociatedProgramID, remote.AssociatedProgramID},
	} {
		if *field.dst, err = crypto.ParseAddress(field.value); err != nil {
			return nil, err
		}
	}
	return client.NewTrader(e.rpc, payer, programID, params), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}
