package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"twine/config"
	"twine/core/state"
	"twine/crypto"
	"twine/native/marketplace"
	"twine/observability/logging"
	"twine/observability/metrics"
	"twine/storage"
)

// twine bootstraps and inspects a marketplace ledger database. Transaction
// scheduling, replication, and transport belong to the hosting execution
// engine; this binary only prepares state the engine will run against.
func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("TWINE_ENV"))
	logger := logging.Setup("twine", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.String("dataDir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	engine := marketplace.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(metrics.NewEventCounter(prometheus.DefaultRegisterer, nil))

	if err := bootstrap(logger, cfg, manager, engine); err != nil {
		logger.Error("Bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Marketplace state ready",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
	)
}

func bootstrap(logger *slog.Logger, cfg *config.Config, manager *state.Manager, engine *marketplace.Engine) error {
	authority, err := crypto.DecodeAddress(cfg.Authority)
	if err != nil {
		return fmt.Errorf("authority: %w", err)
	}
	feeAccount, err := crypto.DecodeAddress(cfg.FeeAccount)
	if err != nil {
		return fmt.Errorf("fee account: %w", err)
	}
	var secondary [20]byte
	if strings.TrimSpace(cfg.SecondaryAuthority) != "" {
		decoded, err := crypto.DecodeAddress(cfg.SecondaryAuthority)
		if err != nil {
			return fmt.Errorf("secondary authority: %w", err)
		}
		secondary = decoded.Array()
	}
	fee, err := cfg.Fee()
	if err != nil {
		return err
	}

	_, err = engine.Initialize(authority.Array(), fee, authority.Array(), secondary, feeAccount.Array())
	switch {
	case err == nil:
		logger.Info("Config singleton initialized", slog.String("fee", fee.String()))
	case errors.Is(err, marketplace.ErrAlreadyExists):
		logger.Info("Config singleton already initialized, leaving untouched")
	default:
		return err
	}

	for _, acct := range cfg.GenesisAccounts {
		addr, err := crypto.DecodeAddress(acct.Address)
		if err != nil {
			return fmt.Errorf("genesis account %s: %w", acct.Address, err)
		}
		account, err := manager.GetAccount(addr.Bytes())
		if err != nil {
			return err
		}
		if account.Balance.Sign() > 0 || account.Nonce > 0 {
			// Already funded on a previous run; genesis funding is one-shot.
			continue
		}
		balance, ok := new(big.Int).SetString(strings.TrimSpace(acct.Balance), 10)
		if !ok || balance.Sign() < 0 {
			return fmt.Errorf("genesis account %s: invalid balance %q", acct.Address, acct.Balance)
		}
		account.Balance = balance
		if err := manager.PutAccount(addr.Bytes(), account); err != nil {
			return err
		}
		logger.Info("Funded genesis account",
			slog.String("address", acct.Address),
			slog.String("balance", balance.String()),
		)
	}
	return nil
}
