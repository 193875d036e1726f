package marketplace

import "errors"

// The error taxonomy reported by the engine. Every operation validates fully
// against these before its first state mutation, so a failed call never
// leaves partial effects. Callers distinguish the classes with errors.Is.
var (
	// ErrNotInitialized is returned when an operation runs before Initialize.
	ErrNotInitialized = errors.New("marketplace: config not initialized")
	// ErrUnauthorized is returned when the caller is not the required
	// authority, secondary authority, or enabled ticket taker.
	ErrUnauthorized = errors.New("marketplace: unauthorized caller")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("marketplace: record not found")
	// ErrAlreadyExists is returned on key collisions: duplicate store or
	// product ids, reused purchase or redemption nonces, re-initialization.
	ErrAlreadyExists = errors.New("marketplace: record already exists")
	// ErrInsufficientInventory is returned when a purchase asks for more
	// units than the product has left.
	ErrInsufficientInventory = errors.New("marketplace: insufficient inventory")
	// ErrInsufficientQuantity is returned when a redeem, transfer, or cancel
	// quantity exceeds the ticket's remaining quantity.
	ErrInsufficientQuantity = errors.New("marketplace: insufficient ticket quantity")
	// ErrPriceMismatch is returned when the buyer's expected price is stale.
	ErrPriceMismatch = errors.New("marketplace: price mismatch")
	// ErrInsufficientFunds is returned when a balance cannot cover a
	// required transfer.
	ErrInsufficientFunds = errors.New("marketplace: insufficient funds")
	// ErrAmountOverflow is returned when a counter or amount would overflow
	// its representable range.
	ErrAmountOverflow = errors.New("marketplace: amount overflow")
	// ErrInvalidState is returned when an operation targets a record in an
	// incompatible lifecycle state, e.g. settling an already-settled
	// redemption.
	ErrInvalidState = errors.New("marketplace: invalid state")
	// ErrInvalidInput is returned for malformed arguments: zero quantities,
	// nil or negative amounts, unknown enum values.
	ErrInvalidInput = errors.New("marketplace: invalid input")
)
