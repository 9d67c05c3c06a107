package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"streamvault/core"
	"streamvault/crypto"
)

// GenesisAllocEntry funds one account with an opening balance on first boot.
// Address is bech32 (svt prefix); Amount is a decimal integer string.
type GenesisAllocEntry struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

type GenesisConfig struct {
	Alloc []GenesisAllocEntry `toml:"Alloc"`
}

type Config struct {
	RPCAddress       string        `toml:"RPCAddress"`
	DataDir          string        `toml:"DataDir"`
	NetworkName      string        `toml:"NetworkName"`
	RPCRatePerMinute float64       `toml:"RPCRatePerMinute"`
	RPCRateBurst     int           `toml:"RPCRateBurst"`
	Genesis          GenesisConfig `toml:"Genesis"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./streamvault-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "streamvault-local"
	}
	if cfg.RPCRatePerMinute <= 0 {
		cfg.RPCRatePerMinute = 600
	}
	if cfg.RPCRateBurst <= 0 {
		cfg.RPCRateBurst = 20
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// GenesisAllocs parses the configured allocation entries into the node's
// genesis representation.
func (c *Config) GenesisAllocs() ([]core.GenesisAlloc, error) {
	allocs := make([]core.GenesisAlloc, 0, len(c.Genesis.Alloc))
	for i, entry := range c.Genesis.Alloc {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(entry.Address))
		if err != nil {
			return nil, fmt.Errorf("genesis alloc %d: %w", i, err)
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(entry.Amount), 10)
		if !ok {
			return nil, fmt.Errorf("genesis alloc %d: invalid amount %q", i, entry.Amount)
		}
		var addr20 [20]byte
		copy(addr20[:], addr.Bytes())
		allocs = append(allocs, core.GenesisAlloc{
			Address: addr20,
			Token:   strings.TrimSpace(entry.Token),
			Amount:  amount,
		})
	}
	return allocs, nil
}
