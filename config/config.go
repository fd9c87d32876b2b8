package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"

	"trader/core/runtime"
	"trader/crypto"
	"trader/native/escrow"
)

const (
	DefaultListenAddress = "127.0.0.1:8899"
	defaultProgramKey    = "escrow-program.json"
)

// Config is the node configuration.
type Config struct {
	ListenAddress        string   `toml:"ListenAddress"`
	// DataDir holds the leveldb state. Empty keeps state in memory.
	DataDir              string   `toml:"DataDir"`
	// GenesisFile optionally funds addresses on first start.
	GenesisFile          string   `toml:"GenesisFile"`
	EscrowProgramKeyPath string   `toml:"EscrowProgramKeyPath"`
	EscrowProgramID      string   `toml:"EscrowProgramID"`
	FeeBeneficiary       string   `toml:"FeeBeneficiary"`
	FeeBps               uint32   `toml:"FeeBps"`
	EnableAirdrop        bool     `toml:"EnableAirdrop"`
	PausedModules        []string `toml:"PausedModules"`
	AuthToken            string   `toml:"AuthToken"`
	ShutdownTimeoutSecs  int      `toml:"ShutdownTimeoutSecs"`

	LogEnv       string `toml:"LogEnv"`
	LogLevel     string `toml:"LogLevel"`
	LogFile      string `toml:"LogFile"`
	LogMaxSizeMB int    `toml:"LogMaxSizeMB"`

	Rent      Rent      `toml:"rent"`
	RateLimit RateLimit `toml:"rate_limit"`
}

// Load loads the configuration from the given path, writing a default file
// (and a fresh escrow program keypair) when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("FeeBps") {
		cfg.FeeBps = escrow.DefaultFeeBps
	}
	cfg.applyDefaults()

	if strings.TrimSpace(cfg.EscrowProgramID) == "" {
		if err := ensureProgramKey(path, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if strings.TrimSpace(c.FeeBeneficiary) == "" {
		c.FeeBeneficiary = escrow.DefaultFeeBeneficiary.String()
	}
	if c.ShutdownTimeoutSecs <= 0 {
		c.ShutdownTimeoutSecs = 10
	}
	if c.LogEnv == "" {
		c.LogEnv = "dev"
	}
	if c.Rent == (Rent{}) {
		c.Rent = defaultRent()
	}
	if c.RateLimit.RequestsPerMinute == 0 && c.RateLimit.Burst == 0 {
		trust := c.RateLimit.TrustProxyHeaders
		c.RateLimit = defaultRateLimit()
		c.RateLimit.TrustProxyHeaders = trust
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
}

func ensureProgramKey(configPath string, cfg *Config) error {
	keyPath := cfg.EscrowProgramKeyPath
	if keyPath == "" {
		keyPath = filepath.Join(filepath.Dir(configPath), defaultProgramKey)
	}
	key, _, err := crypto.EnsureKeygenFile(keyPath)
	if err != nil {
		return err
	}
	cfg.EscrowProgramKeyPath = keyPath
	cfg.EscrowProgramID = key.PublicKey().String()
	return persist(configPath, cfg)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{FeeBps: escrow.DefaultFeeBps, EnableAirdrop: true}
	cfg.applyDefaults()
	if err := ensureProgramKey(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ProgramID parses EscrowProgramID.
func (c *Config) ProgramID() (solana.PublicKey, error) {
	return crypto.ParseAddress(c.EscrowProgramID)
}

// EscrowParams builds the escrow program parameters.
func (c *Config) EscrowParams() (escrow.Params, error) {
	beneficiary, err := crypto.ParseAddress(c.FeeBeneficiary)
	if err != nil {
		return escrow.Params{}, fmt.Errorf("FeeBeneficiary: %w", err)
	}
	params := escrow.DefaultParams()
	params.FeeBeneficiary = beneficiary
	params.FeeBps = c.FeeBps
	return params, params.Validate()
}

// RuntimeRent converts the rent section.
func (c *Config) RuntimeRent() runtime.Rent {
	return runtime.Rent{LamportsPerByteYear: c.Rent.LamportsPerByteYear, ExemptionThreshold: c.Rent.ExemptionThreshold}
}

// ShutdownTimeout is the grace period for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}
