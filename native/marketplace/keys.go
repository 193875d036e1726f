package marketplace

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Record keys are pure functions of a type tag, an owning identity, and a
// numeric id, so any party can compute any record's location without a
// lookup table. A creation-time collision on the derived key doubles as the
// "already exists" check.
var (
	storeKeyTag        = []byte("store")
	productKeyTag      = []byte("product")
	snapshotMetaKeyTag = []byte("product_snapshot_meta")
	snapshotKeyTag     = []byte("product_snapshot")
	ticketKeyTag       = []byte("purchase_ticket")
	redemptionKeyTag   = []byte("redemption")
	ticketTakerKeyTag  = []byte("ticket_taker")
	escrowKeyTag       = []byte("purchase_escrow")
)

func deriveKey(parts ...[]byte) [32]byte {
	var buf []byte
	for _, part := range parts {
		buf = append(buf, part...)
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(buf))
	return out
}

func beUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// StoreKey derives the storage key for the store (creator, id).
func StoreKey(creator [20]byte, id uint64) [32]byte {
	return deriveKey(storeKeyTag, creator[:], beUint64(id))
}

// ProductKey derives the storage key for the product (creator, id).
func ProductKey(creator [20]byte, id uint64) [32]byte {
	return deriveKey(productKeyTag, creator[:], beUint64(id))
}

// SnapshotMetaKey derives the key binding one purchase attempt
// (product, buyer, nonce) to its snapshot and ticket.
func SnapshotMetaKey(product [32]byte, buyer [20]byte, nonce uint64) [32]byte {
	return deriveKey(snapshotMetaKeyTag, product[:], buyer[:], beUint64(nonce))
}

// SnapshotKey derives the storage key of the product snapshot referenced by
// the given snapshot metadata key.
func SnapshotKey(meta [32]byte) [32]byte {
	return deriveKey(snapshotKeyTag, meta[:])
}

// TicketKey derives the storage key for a purchase ticket. Tickets are keyed
// by snapshot metadata, redeeming authority, and a caller-chosen nonce so a
// transfer under a new authority lands on a fresh key.
func TicketKey(meta [32]byte, authority [20]byte, nonce uint64) [32]byte {
	return deriveKey(ticketKeyTag, meta[:], authority[:], beUint64(nonce))
}

// RedemptionKey derives the storage key for one settlement attempt against a
// ticket.
func RedemptionKey(ticket [32]byte, nonce uint64) [32]byte {
	return deriveKey(redemptionKeyTag, ticket[:], beUint64(nonce))
}

// TicketTakerKey derives the storage key of the authorization binding taker
// to the store or product record at entity.
func TicketTakerKey(entity [32]byte, taker [20]byte) [32]byte {
	return deriveKey(ticketTakerKeyTag, entity[:], taker[:])
}

// EscrowAddress derives the address of the funds account exclusively owned
// by the given ticket. The account is an ordinary ledger account; ownership
// is purely a matter of which operations are allowed to move its balance.
func EscrowAddress(ticket [32]byte) [20]byte {
	hash := deriveKey(escrowKeyTag, ticket[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}
