package types

import "math/big"

// Account is the ledger-side view of a funds account. The marketplace core
// only ever moves Balance; Nonce exists so a hosting execution engine can
// layer replay protection on top without another lookup.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}
