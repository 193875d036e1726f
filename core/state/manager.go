package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"twine/core/types"
	"twine/storage"
)

var (
	accountPrefix = []byte("account:")
	kvPrefix      = []byte("kv:")
)

// Manager persists ledger records in a key-value database. Every storage key
// is keccak256-hashed together with a record-type prefix, so logical keys of
// different record types can never collide, and values are canonical RLP.
type Manager struct {
	db storage.Database
}

// NewManager creates a manager backed by the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) store(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func prefixedKey(prefix, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

// --- Accounts ---

// storedAccount is the RLP shape of a funds account. The balance rides in a
// uint256 so the encoding stays fixed-width friendly; conversion to big.Int
// happens at the API boundary.
type storedAccount struct {
	Nonce   uint64
	Balance *uint256.Int
}

func accountKey(addr []byte) []byte {
	return prefixedKey(accountPrefix, addr)
}

// GetAccount reconstructs the account stored under the provided address. A
// missing account materialises as a zero-balance account, matching ledger
// semantics where every address exists implicitly.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if len(addr) == 0 {
		return nil, fmt.Errorf("address must not be empty")
	}
	stored := new(storedAccount)
	ok, err := m.load(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	account := &types.Account{Balance: uint256.NewInt(0).ToBig()}
	if ok {
		account.Nonce = stored.Nonce
		if stored.Balance != nil {
			account.Balance = stored.Balance.ToBig()
		}
	}
	return account, nil
}

// PutAccount persists the provided account state under the supplied address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if len(addr) == 0 {
		return fmt.Errorf("address must not be empty")
	}
	if account == nil {
		return fmt.Errorf("nil account")
	}
	balance := uint256.NewInt(0)
	if account.Balance != nil {
		if account.Balance.Sign() < 0 {
			return fmt.Errorf("negative balance")
		}
		converted, overflow := uint256.FromBig(account.Balance)
		if overflow {
			return fmt.Errorf("balance overflow")
		}
		balance = converted
	}
	return m.store(accountKey(addr), &storedAccount{Nonce: account.Nonce, Balance: balance})
}

// --- Generic KV ---

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before hitting the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.store(prefixedKey(kvPrefix, key), value)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	return m.load(prefixedKey(kvPrefix, key), out)
}

// KVDelete removes the value stored under the supplied key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(prefixedKey(kvPrefix, key))
}
