package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the CLI configuration, kept in YAML.
type ClientConfig struct {
	JSONRPCURL  string `yaml:"json_rpc_url"`
	KeypairPath string `yaml:"keypair_path"`
	ProgramID   string `yaml:"program_id"`
}

// DefaultClientConfig points at a local node and the keypair under the
// user's config directory.
func DefaultClientConfig() ClientConfig {
	cfg := ClientConfig{JSONRPCURL: "http://" + DefaultListenAddress}
	if dir, err := os.UserConfigDir(); err == nil {
		cfg.KeypairPath = filepath.Join(dir, "trader", "id.json")
	}
	return cfg
}

// LoadClient reads path. A missing file yields DefaultClientConfig and empty
// fields in an existing file fall back to their defaults.
func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	var file ClientConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, err
	}
	if file.JSONRPCURL != "" {
		cfg.JSONRPCURL = file.JSONRPCURL
	}
	if file.KeypairPath != "" {
		cfg.KeypairPath = file.KeypairPath
	}
	cfg.ProgramID = file.ProgramID
	return cfg, nil
}

// SaveClient writes cfg to path.
func SaveClient(path string, cfg ClientConfig) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
