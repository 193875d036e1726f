package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"twine/crypto"
)

// GenesisAccount funds one ledger account at bootstrap time. Balance is a
// decimal string so arbitrarily large amounts survive the TOML round trip.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

// Config describes one marketplace deployment: where state lives and the
// parameters of the one-time config-singleton initialization.
type Config struct {
	DataDir            string           `toml:"DataDir"`
	NetworkName        string           `toml:"NetworkName"`
	PurchaseFee        string           `toml:"PurchaseFee"`
	Authority          string           `toml:"Authority"`
	SecondaryAuthority string           `toml:"SecondaryAuthority"`
	FeeAccount         string           `toml:"FeeAccount"`
	GenesisAccounts    []GenesisAccount `toml:"GenesisAccounts"`
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

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "twine-local"
	}
	if cfg.GenesisAccounts == nil {
		cfg.GenesisAccounts = []GenesisAccount{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every address parses and every amount is a
// non-negative decimal.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir is required")
	}
	if _, err := c.Fee(); err != nil {
		return err
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"Authority", c.Authority},
		{"SecondaryAuthority", c.SecondaryAuthority},
		{"FeeAccount", c.FeeAccount},
	} {
		if strings.TrimSpace(field.value) == "" {
			if field.name == "SecondaryAuthority" {
				continue
			}
			return fmt.Errorf("%s is required", field.name)
		}
		if _, err := crypto.DecodeAddress(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	for i, acct := range c.GenesisAccounts {
		if _, err := crypto.DecodeAddress(acct.Address); err != nil {
			return fmt.Errorf("GenesisAccounts[%d].Address: %w", i, err)
		}
		if _, err := parseAmount(acct.Balance); err != nil {
			return fmt.Errorf("GenesisAccounts[%d].Balance: %w", i, err)
		}
	}
	return nil
}

// Fee parses the configured per-purchase fee.
func (c *Config) Fee() (*big.Int, error) {
	fee, err := parseAmount(c.PurchaseFee)
	if err != nil {
		return nil, fmt.Errorf("PurchaseFee: %w", err)
	}
	return fee, nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative, got %q", value)
	}
	return amount, nil
}

// createDefault creates and saves a default configuration file. The default
// authority is a freshly generated key so a local deployment works out of
// the box; real deployments overwrite these fields.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	addr := key.PubKey().Address().String()

	cfg := &Config{
		DataDir:         "./twine-data",
		NetworkName:     "twine-local",
		PurchaseFee:     "10000",
		Authority:       addr,
		FeeAccount:      addr,
		GenesisAccounts: []GenesisAccount{},
	}

	if err := persist(path, cfg); err != nil {
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
