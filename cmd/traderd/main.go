package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trader/config"
	"trader/core/events"
	"trader/core/genesis"
	"trader/core/runtime"
	"trader/core/state"
	"trader/native/common"
	"trader/native/escrow"
	"trader/native/token"
	"trader/observability/logging"
	"trader/rpc"
	"trader/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "traderd: %v\n", err)
		os.Exit(1)
	}
}

// node is the assembled ledger: storage, runtime with the genesis programs,
// and the RPC server in front of it.
type node struct {
	db     storage.Database
	rt     *runtime.Runtime
	server *rpc.Server
}

func openDatabase(dataDir string) (storage.Database, error) {
	if strings.TrimSpace(dataDir) == "" {
		return storage.NewMemDB(), nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLevelDB(dataDir)
}

func newNode(cfg *config.Config, logger *slog.Logger) (*node, error) {
	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, fmt.Errorf("escrow program id: %w", err)
	}
	params, err := cfg.EscrowParams()
	if err != nil {
		return nil, err
	}
	db, err := openDatabase(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	st := state.NewManager(db)

	if path := strings.TrimSpace(cfg.GenesisFile); path != "" {
		spec, err := genesis.LoadSpec(path)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := genesis.ApplyAlloc(st, spec); err != nil {
			db.Close()
			return nil, err
		}
	}

	rt := runtime.New(st,
		runtime.WithRent(cfg.RuntimeRent()),
		runtime.WithAirdrop(cfg.EnableAirdrop),
		runtime.WithEmitter(events.Fanout{token.MetricsEmitter{}, escrow.MetricsEmitter{}}),
		runtime.WithLogger(logger))
	pauses := common.NewPauseSet(cfg.PausedModules...)
	if _, err := genesis.RegisterPrograms(rt, programID, params, escrow.WithPauses(pauses)); err != nil {
		db.Close()
		return nil, err
	}

	server := rpc.NewServer(rpc.Config{
		Backend:         rt,
		EscrowProgramID: programID,
		EscrowParams:    params,
		AuthToken:       cfg.AuthToken,
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: float64(cfg.RateLimit.RequestsPerMinute),
			Burst:             cfg.RateLimit.Burst,
			TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
		},
		Logger: logger,
	})
	logger.Info("node ready",
		slog.String("escrow_program", programID.String()),
		slog.String("fee_beneficiary", params.FeeBeneficiary.String()),
		slog.Uint64("fee_bps", uint64(params.FeeBps)),
		slog.Bool("airdrop", cfg.EnableAirdrop),
		slog.Any("paused", cfg.PausedModules),
		logging.MaskField("auth_token", cfg.AuthToken),
		slog.Bool("trust_proxy_headers", cfg.RateLimit.TrustProxyHeaders))
	return &node{db: db, rt: rt, server: server}, nil
}

func (n *node) Close() {
	n.db.Close()
}

// run serves until ctx is cancelled. ready, when set, receives the bound
// address once the listener is open.
func run(ctx context.Context, configPath string, stdout io.Writer, ready func(addr string)) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.SetupWithOptions("traderd", cfg.LogEnv, logging.Options{
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
		Level:     logging.ParseLevel(cfg.LogLevel),
		Output:    stdout,
	})

	n, err := newNode(cfg, logger)
	if err != nil {
		return err
	}
	defer n.Close()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           n.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()
	logger.Info("rpc listening", slog.String("address", listener.Addr().String()))
	if ready != nil {
		ready(listener.Addr().String())
	}

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
