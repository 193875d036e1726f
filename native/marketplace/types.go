package marketplace

import "math/big"

// Status is the lifecycle flag carried by stores and products. Only active
// products can be purchased; the catalog otherwise treats the value as
// caller-owned metadata.
type Status uint8

const (
	StatusActive Status = iota
	StatusInactive
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// RedemptionMode selects how a purchase settles: immediately at buy time, or
// later through the two-phase ticket/redemption protocol.
type RedemptionMode uint8

const (
	RedeemImmediate RedemptionMode = iota
	RedeemTicketed
)

// Valid reports whether the mode value is within the supported range.
func (m RedemptionMode) Valid() bool {
	switch m {
	case RedeemImmediate, RedeemTicketed:
		return true
	default:
		return false
	}
}

// Config is the program-wide singleton holding the flat per-purchase fee and
// the privileged identities. Created once by Initialize, mutated only by
// ChangeFeeAccount.
type Config struct {
	Fee                *big.Int
	Creator            [20]byte
	Authority          [20]byte
	SecondaryAuthority [20]byte
	FeeAccount         [20]byte
	Version            uint64
	Initialized        bool
}

// Clone returns a deep copy of the config so callers can safely mutate the
// copy without affecting the stored instance.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Fee = cloneBigInt(c.Fee)
	return &clone
}

// Store is a named catalog container owned by a creator. The (Creator, ID)
// pair is immutable and determines the record's storage key.
type Store struct {
	ID                 uint64
	Status             Status
	Creator            [20]byte
	Authority          [20]byte
	SecondaryAuthority [20]byte
	Name               string
	Description        string
	Data               []byte
	ProductCount       uint64
}

// Clone returns a deep copy of the store record.
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Data = append([]byte(nil), s.Data...)
	return &clone
}

// Product is a purchasable catalog entry. Store is the owning store's record
// key; the zero value marks a lone product. Revision is bumped on every
// update so snapshots can record exactly which edition they captured.
// UsableSnapshot points at the most recent purchase snapshot and stays zero
// until the first purchase settles.
type Product struct {
	ID                 uint64
	Store              [32]byte
	Status             Status
	Creator            [20]byte
	Authority          [20]byte
	SecondaryAuthority [20]byte
	Price              *big.Int
	Inventory          uint64
	Mode               RedemptionMode
	PayTo              [20]byte
	Name               string
	Description        string
	Data               []byte
	Revision           uint64
	UsableSnapshot     [32]byte
}

// Clone returns a deep copy of the product record.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Price = cloneBigInt(p.Price)
	clone.Data = append([]byte(nil), p.Data...)
	return &clone
}

// IsLone reports whether the product belongs to no store.
func (p *Product) IsLone() bool {
	return p == nil || p.Store == ([32]byte{})
}

// SnapshotMeta binds one purchase attempt, identified by (product, buyer,
// nonce), to the snapshot and ticket it produced. Its storage key doubles as
// the nonce-collision guard: a second purchase with the same triple lands on
// the same key and is rejected.
type SnapshotMeta struct {
	Product  [32]byte
	Buyer    [20]byte
	Nonce    uint64
	Snapshot [32]byte
	Ticket   [32]byte
}

// ProductSnapshot is an immutable copy of the product's fields at the moment
// of purchase, stored independently so later catalog edits never change what
// a buyer was shown. TakenAt is the engine clock at purchase time.
type ProductSnapshot struct {
	Product Product
	TakenAt int64
}

// Clone returns a deep copy of the snapshot record.
func (s *ProductSnapshot) Clone() *ProductSnapshot {
	if s == nil {
		return nil
	}
	clone := ProductSnapshot{Product: *s.Product.Clone(), TakenAt: s.TakenAt}
	return &clone
}

// PurchaseTicket is the buyer's claim on purchased-but-not-fully-redeemed
// quantity. Escrow is the address of the funds account exclusively owned by
// this ticket. The quantity fields satisfy the conservation invariant:
// Redeemed + PendingRedemption + Remaining only moves between the three
// buckets, shrinking solely through settlement, refund, or transfer-out.
type PurchaseTicket struct {
	Product           [32]byte
	Meta              [32]byte
	Snapshot          [32]byte
	Buyer             [20]byte
	PayTo             [20]byte
	Authority         [20]byte
	Nonce             uint64
	Escrow            [20]byte
	Price             *big.Int
	Redeemed          uint64
	PendingRedemption uint64
	Remaining         uint64
}

// Clone returns a deep copy of the ticket record.
func (t *PurchaseTicket) Clone() *PurchaseTicket {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Price = cloneBigInt(t.Price)
	return &clone
}

// RedemptionStatus tracks the two-phase settlement state machine. A pending
// redemption either settles (record kept for audit) or is cancelled (record
// removed, quantity returned to the ticket).
type RedemptionStatus uint8

const (
	RedemptionPending RedemptionStatus = iota
	RedemptionSettled
)

// Valid reports whether the status value is within the supported range.
func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionSettled:
		return true
	default:
		return false
	}
}

// Redemption records one in-flight settlement attempt against a ticket.
// Price is captured from the ticket at initiation so a later catalog price
// change cannot alter what settles.
type Redemption struct {
	Nonce       uint64
	Ticket      [32]byte
	Quantity    uint64
	Price       *big.Int
	Status      RedemptionStatus
	TakenBy     [20]byte
	InitiatedAt int64
	ClosedAt    int64
}

// Clone returns a deep copy of the redemption record.
func (r *Redemption) Clone() *Redemption {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Price = cloneBigInt(r.Price)
	return &clone
}

// TakerEntity discriminates what a ticket taker authorization is scoped to.
type TakerEntity uint8

const (
	TakerEntityStore TakerEntity = iota
	TakerEntityProduct
)

// Valid reports whether the entity discriminator is within the supported
// range.
func (e TakerEntity) Valid() bool {
	switch e {
	case TakerEntityStore, TakerEntityProduct:
		return true
	default:
		return false
	}
}

// TicketTaker authorizes an identity to settle redemptions for a store or a
// single product. Disabling keeps the record around with DisabledAt set, so
// revocations stay auditable.
type TicketTaker struct {
	Taker        [20]byte
	Entity       [32]byte
	EntityType   TakerEntity
	AuthorizedBy [20]byte
	EnabledAt    int64
	DisabledAt   int64
}

// Enabled reports whether the authorization is currently usable.
func (t *TicketTaker) Enabled() bool {
	return t != nil && t.DisabledAt == 0
}

// Clone returns a copy of the ticket taker record.
func (t *TicketTaker) Clone() *TicketTaker {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
