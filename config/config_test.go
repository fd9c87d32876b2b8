package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trader/crypto"
	"trader/native/escrow"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ListenAddress != DefaultListenAddress {
		t.Fatalf("unexpected listen address: %s", cfg.ListenAddress)
	}
	if cfg.FeeBps != escrow.DefaultFeeBps {
		t.Fatalf("unexpected fee bps: %d", cfg.FeeBps)
	}
	key, err := crypto.LoadKeygenFile(filepath.Join(dir, defaultProgramKey))
	if err != nil {
		t.Fatalf("program key not written: %v", err)
	}
	if key.PublicKey().String() != cfg.EscrowProgramID {
		t.Fatalf("program id %s does not match key %s", cfg.EscrowProgramID, key.PublicKey())
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if again.EscrowProgramID != cfg.EscrowProgramID {
		t.Fatalf("program id changed across loads: %s != %s", again.EscrowProgramID, cfg.EscrowProgramID)
	}
}

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `ListenAddress = "0.0.0.0:9000"
DataDir = "./data"
EscrowProgramID = "8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX"
FeeBps = 0
EnableAirdrop = true
PausedModules = ["escrow"]
LogEnv = "prod"
LogFile = "./node.log"

[rent]
LamportsPerByteYear = 10
ExemptionThreshold = 1.5

[rate_limit]
RequestsPerMinute = 60
Burst = 5
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.FeeBps != 0 {
		t.Fatalf("explicit zero fee was overridden: %d", cfg.FeeBps)
	}
	if cfg.FeeBeneficiary != escrow.DefaultFeeBeneficiary.String() {
		t.Fatalf("unexpected beneficiary: %s", cfg.FeeBeneficiary)
	}
	if cfg.RuntimeRent().MinimumBalance(0) != 1920 {
		t.Fatalf("unexpected rent: %+v", cfg.Rent)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 || cfg.RateLimit.Burst != 5 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if len(cfg.PausedModules) != 1 || cfg.PausedModules[0] != "escrow" {
		t.Fatalf("unexpected paused modules: %v", cfg.PausedModules)
	}
	params, err := cfg.EscrowParams()
	if err != nil {
		t.Fatalf("escrow params: %v", err)
	}
	if params.FeeBps != 0 || params.FeeBeneficiary != escrow.DefaultFeeBeneficiary {
		t.Fatalf("unexpected params: %+v", params)
	}
	if _, err := os.Stat(filepath.Join(dir, defaultProgramKey)); !os.IsNotExist(err) {
		t.Fatalf("program key generated although EscrowProgramID was set")
	}
}

func TestLoadRateLimitTrustsProxyOnlyWhenSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RateLimit.TrustProxyHeaders {
		t.Fatalf("proxy headers trusted by default")
	}

	path = filepath.Join(dir, "proxied.toml")
	contents := "EscrowProgramID = \"8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX\"\n\n[rate_limit]\nTrustProxyHeaders = true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := defaultRateLimit()
	want.TrustProxyHeaders = true
	if cfg.RateLimit != want {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ValidatorKey = \"abc\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "ValidatorKey") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{EscrowProgramID: escrow.DefaultFeeBeneficiary.String(), FeeBps: escrow.DefaultFeeBps}
		cfg.applyDefaults()
		return cfg
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := map[string]func(*Config){
		"bad program id":  func(c *Config) { c.EscrowProgramID = "zzz" },
		"bad beneficiary": func(c *Config) { c.FeeBeneficiary = "0x00" },
		"fee too high":    func(c *Config) { c.FeeBps = escrow.MaxFeeBps + 1 },
		"zero rent":       func(c *Config) { c.Rent.LamportsPerByteYear = 0 },
		"negative burst":  func(c *Config) { c.RateLimit.Burst = -1 },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadClient(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("load missing client config: %v", err)
	}
	if cfg.JSONRPCURL != "http://"+DefaultListenAddress {
		t.Fatalf("unexpected default url: %s", cfg.JSONRPCURL)
	}

	contents := "json_rpc_url: http://node:8899\nkeypair_path: /keys/id.json\nprogram_id: 8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write client config: %v", err)
	}
	cfg, err = LoadClient(path)
	if err != nil {
		t.Fatalf("load client config: %v", err)
	}
	if cfg.JSONRPCURL != "http://node:8899" || cfg.KeypairPath != "/keys/id.json" {
		t.Fatalf("unexpected client config: %+v", cfg)
	}

	out := filepath.Join(dir, "nested", "saved.yml")
	if err := SaveClient(out, cfg); err != nil {
		t.Fatalf("save client config: %v", err)
	}
	saved, err := LoadClient(out)
	if err != nil {
		t.Fatalf("reload saved config: %v", err)
	}
	if saved != cfg {
		t.Fatalf("saved config differs: %+v != %+v", saved, cfg)
	}
}
