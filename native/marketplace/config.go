package marketplace

import (
	"fmt"
	"math/big"
)

// Initialize creates the program-wide config singleton. The caller becomes
// the immutable creator. A second call finds the record already present and
// fails without touching it.
func (e *Engine) Initialize(caller [20]byte, fee *big.Int, authority, secondary, feeAccount [20]byte) (*Config, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if !validPrice(fee) {
		return nil, fmt.Errorf("%w: fee must be non-negative", ErrInvalidInput)
	}
	if authority == ([20]byte{}) {
		return nil, fmt.Errorf("%w: authority required", ErrInvalidInput)
	}
	if feeAccount == ([20]byte{}) {
		return nil, fmt.Errorf("%w: fee account required", ErrInvalidInput)
	}
	if existing, ok := e.state.ConfigGet(); ok && existing != nil && existing.Initialized {
		return nil, fmt.Errorf("%w: config singleton", ErrAlreadyExists)
	}
	cfg := &Config{
		Fee:                cloneBigInt(fee),
		Creator:            caller,
		Authority:          authority,
		SecondaryAuthority: secondary,
		FeeAccount:         feeAccount,
		Version:            0,
		Initialized:        true,
	}
	if err := e.state.ConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(NewConfigInitializedEvent(cfg))
	return cfg.Clone(), nil
}

// ChangeFeeAccount replaces the fee-collection target. Only the config
// authority may invoke it; every other field is left untouched.
func (e *Engine) ChangeFeeAccount(caller, newTarget [20]byte) (*Config, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Authority {
		return nil, fmt.Errorf("%w: config authority required", ErrUnauthorized)
	}
	if newTarget == ([20]byte{}) {
		return nil, fmt.Errorf("%w: fee account required", ErrInvalidInput)
	}
	version, err := addQuantity(cfg.Version, 1)
	if err != nil {
		return nil, err
	}
	cfg.FeeAccount = newTarget
	cfg.Version = version
	if err := e.state.ConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(NewFeeAccountChangedEvent(cfg))
	return cfg.Clone(), nil
}
