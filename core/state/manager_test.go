package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"twine/core/types"
)

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x40)

	// A missing account materialises as a zero account.
	account, err := manager.GetAccount(addr[:])
	require.NoError(t, err)
	require.Equal(t, uint64(0), account.Nonce)
	require.Zero(t, account.Balance.Sign())

	account.Nonce = 3
	account.Balance = big.NewInt(10_000_000)
	require.NoError(t, manager.PutAccount(addr[:], account))

	loaded, err := manager.GetAccount(addr[:])
	require.NoError(t, err)
	require.Equal(t, uint64(3), loaded.Nonce)
	require.Equal(t, int64(10_000_000), loaded.Balance.Int64())
}

func TestAccountRejectsInvalidBalances(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x40)

	err := manager.PutAccount(addr[:], &types.Account{Balance: big.NewInt(-1)})
	require.Error(t, err)

	overflow := new(big.Int).Lsh(big.NewInt(1), 256)
	err = manager.PutAccount(addr[:], &types.Account{Balance: overflow})
	require.Error(t, err)

	_, err = manager.GetAccount(nil)
	require.Error(t, err)
	require.Error(t, manager.PutAccount(nil, &types.Account{}))
	require.Error(t, manager.PutAccount(addr[:], nil))
}

func TestKVRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	type payload struct {
		Label string
		Count uint64
	}
	in := &payload{Label: "checkpoint", Count: 9}
	require.NoError(t, manager.KVPut([]byte("status/head"), in))

	out := new(payload)
	ok, err := manager.KVGet([]byte("status/head"), out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, out)

	ok, err = manager.KVGet([]byte("status/missing"), out)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.KVDelete([]byte("status/head")))
	ok, err = manager.KVGet([]byte("status/head"), new(payload))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = manager.KVGet(nil, out)
	require.Error(t, err)
	require.Error(t, manager.KVPut(nil, in))
}
