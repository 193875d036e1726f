package state

import (
	"fmt"
	"math/big"

	"twine/native/marketplace"
)

// Storage for the marketplace record types. Each record is persisted as an
// RLP-friendly storedX wrapper under a keccak-hashed, type-prefixed key; the
// logical [32]byte record keys are the deterministic derivations exported by
// the marketplace package, so every participant can compute any record's
// location offline.
var (
	marketConfigKeyBytes  = []byte("marketplace/config")
	marketStorePrefix     = []byte("marketplace/store:")
	marketProductPrefix   = []byte("marketplace/product:")
	marketSnapshotPrefix  = []byte("marketplace/snapshot:")
	marketSnapMetaPrefix  = []byte("marketplace/snapshot-meta:")
	marketTicketPrefix    = []byte("marketplace/ticket:")
	marketRedemptionPrefx = []byte("marketplace/redemption:")
	marketTakerPrefix     = []byte("marketplace/ticket-taker:")
)

func marketConfigKey() []byte {
	return prefixedKey(marketConfigKeyBytes, nil)
}

func marketRecordKey(prefix []byte, id [32]byte) []byte {
	return prefixedKey(prefix, id[:])
}

func bigFromInt64(v int64) *big.Int {
	return big.NewInt(v)
}

func int64FromBig(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

// --- Config singleton ---

type storedMarketConfig struct {
	Fee                *big.Int
	Creator            [20]byte
	Authority          [20]byte
	SecondaryAuthority [20]byte
	FeeAccount         [20]byte
	Version            uint64
	Initialized        bool
}

// ConfigGet loads the marketplace config singleton.
func (m *Manager) ConfigGet() (*marketplace.Config, bool) {
	stored := new(storedMarketConfig)
	ok, err := m.load(marketConfigKey(), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.Config{
		Fee:                cloneOrZero(stored.Fee),
		Creator:            stored.Creator,
		Authority:          stored.Authority,
		SecondaryAuthority: stored.SecondaryAuthority,
		FeeAccount:         stored.FeeAccount,
		Version:            stored.Version,
		Initialized:        stored.Initialized,
	}, true
}

// ConfigPut persists the marketplace config singleton.
func (m *Manager) ConfigPut(cfg *marketplace.Config) error {
	if cfg == nil {
		return fmt.Errorf("marketplace config: nil value")
	}
	return m.store(marketConfigKey(), &storedMarketConfig{
		Fee:                cloneOrZero(cfg.Fee),
		Creator:            cfg.Creator,
		Authority:          cfg.Authority,
		SecondaryAuthority: cfg.SecondaryAuthority,
		FeeAccount:         cfg.FeeAccount,
		Version:            cfg.Version,
		Initialized:        cfg.Initialized,
	})
}

// --- Stores ---

type storedStore struct {
	ID                 uint64
	Status             uint8
	Creator            [20]byte
	Authority          [20]byte
	SecondaryAuthority [20]byte
	Name               string
	Description        string
	Data               []byte
	ProductCount       uint64
}

// StoreGet loads the store record at the given derived key.
func (m *Manager) StoreGet(id [32]byte) (*marketplace.Store, bool) {
	stored := new(storedStore)
	ok, err := m.load(marketRecordKey(marketStorePrefix, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.Store{
		ID:                 stored.ID,
		Status:             marketplace.Status(stored.Status),
		Creator:            stored.Creator,
		Authority:          stored.Authority,
		SecondaryAuthority: stored.SecondaryAuthority,
		Name:               stored.Name,
		Description:        stored.Description,
		Data:               append([]byte(nil), stored.Data...),
		ProductCount:       stored.ProductCount,
	}, true
}

// StorePut persists the store record under its derived key.
func (m *Manager) StorePut(store *marketplace.Store) error {
	if store == nil {
		return fmt.Errorf("marketplace store: nil value")
	}
	key := marketplace.StoreKey(store.Creator, store.ID)
	return m.store(marketRecordKey(marketStorePrefix, key), &storedStore{
		ID:                 store.ID,
		Status:             uint8(store.Status),
		Creator:            store.Creator,
		Authority:          store.Authority,
		SecondaryAuthority: store.SecondaryAuthority,
		Name:               store.Name,
		Description:        store.Description,
		Data:               append([]byte(nil), store.Data...),
		ProductCount:       store.ProductCount,
	})
}

// --- Products ---

type storedProduct struct {
	ID                 uint64
	Store              [32]byte
	Status             uint8
	Creator            [20]byte
	Authority          [20]byte
	SecondaryAuthority [20]byte
	Price              *big.Int
	Inventory          uint64
	Mode               uint8
	PayTo              [20]byte
	Name               string
	Description        string
	Data               []byte
	Revision           uint64
	UsableSnapshot     [32]byte
}

func newStoredProduct(p *marketplace.Product) *storedProduct {
	return &storedProduct{
		ID:                 p.ID,
		Store:              p.Store,
		Status:             uint8(p.Status),
		Creator:            p.Creator,
		Authority:          p.Authority,
		SecondaryAuthority: p.SecondaryAuthority,
		Price:              cloneOrZero(p.Price),
		Inventory:          p.Inventory,
		Mode:               uint8(p.Mode),
		PayTo:              p.PayTo,
		Name:               p.Name,
		Description:        p.Description,
		Data:               append([]byte(nil), p.Data...),
		Revision:           p.Revision,
		UsableSnapshot:     p.UsableSnapshot,
	}
}

func (s *storedProduct) toProduct() *marketplace.Product {
	return &marketplace.Product{
		ID:                 s.ID,
		Store:              s.Store,
		Status:             marketplace.Status(s.Status),
		Creator:            s.Creator,
		Authority:          s.Authority,
		SecondaryAuthority: s.SecondaryAuthority,
		Price:              cloneOrZero(s.Price),
		Inventory:          s.Inventory,
		Mode:               marketplace.RedemptionMode(s.Mode),
		PayTo:              s.PayTo,
		Name:               s.Name,
		Description:        s.Description,
		Data:               append([]byte(nil), s.Data...),
		Revision:           s.Revision,
		UsableSnapshot:     s.UsableSnapshot,
	}
}

// ProductGet loads the product record at the given derived key.
func (m *Manager) ProductGet(id [32]byte) (*marketplace.Product, bool) {
	stored := new(storedProduct)
	ok, err := m.load(marketRecordKey(marketProductPrefix, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return stored.toProduct(), true
}

// ProductPut persists the product record under its derived key.
func (m *Manager) ProductPut(product *marketplace.Product) error {
	if product == nil {
		return fmt.Errorf("marketplace product: nil value")
	}
	key := marketplace.ProductKey(product.Creator, product.ID)
	return m.store(marketRecordKey(marketProductPrefix, key), newStoredProduct(product))
}

// --- Product snapshots ---

type storedSnapshot struct {
	Product storedProduct
	TakenAt *big.Int
}

// SnapshotGet loads the immutable product snapshot at the given key.
func (m *Manager) SnapshotGet(id [32]byte) (*marketplace.ProductSnapshot, bool) {
	stored := new(storedSnapshot)
	ok, err := m.load(marketRecordKey(marketSnapshotPrefix, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.ProductSnapshot{
		Product: *stored.Product.toProduct(),
		TakenAt: int64FromBig(stored.TakenAt),
	}, true
}

// SnapshotPut persists a product snapshot. Snapshots are written once at
// purchase time and never touched again.
func (m *Manager) SnapshotPut(id [32]byte, snapshot *marketplace.ProductSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("marketplace snapshot: nil value")
	}
	return m.store(marketRecordKey(marketSnapshotPrefix, id), &storedSnapshot{
		Product: *newStoredProduct(&snapshot.Product),
		TakenAt: bigFromInt64(snapshot.TakenAt),
	})
}

// --- Snapshot metadata ---

type storedSnapshotMeta struct {
	Product  [32]byte
	Buyer    [20]byte
	Nonce    uint64
	Snapshot [32]byte
	Ticket   [32]byte
}

// SnapshotMetaGet loads the purchase-attempt binding at the given key.
func (m *Manager) SnapshotMetaGet(id [32]byte) (*marketplace.SnapshotMeta, bool) {
	stored := new(storedSnapshotMeta)
	ok, err := m.load(marketRecordKey(marketSnapMetaPrefix, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.SnapshotMeta{
		Product:  stored.Product,
		Buyer:    stored.Buyer,
		Nonce:    stored.Nonce,
		Snapshot: stored.Snapshot,
		Ticket:   stored.Ticket,
	}, true
}

// SnapshotMetaPut persists the purchase-attempt binding under its derived
// key.
func (m *Manager) SnapshotMetaPut(meta *marketplace.SnapshotMeta) error {
	if meta == nil {
		return fmt.Errorf("marketplace snapshot meta: nil value")
	}
	key := marketplace.SnapshotMetaKey(meta.Product, meta.Buyer, meta.Nonce)
	return m.store(marketRecordKey(marketSnapMetaPrefix, key), &storedSnapshotMeta{
		Product:  meta.Product,
		Buyer:    meta.Buyer,
		Nonce:    meta.Nonce,
		Snapshot: meta.Snapshot,
		Ticket:   meta.Ticket,
	})
}

// --- Purchase tickets ---

type storedTicket struct {
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

// TicketGet loads the purchase ticket at the given derived key.
func (m *Manager) TicketGet(id [32]byte) (*marketplace.PurchaseTicket, bool) {
	stored := new(storedTicket)
	ok, err := m.load(marketRecordKey(marketTicketPrefix, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.PurchaseTicket{
		Product:           stored.Product,
		Meta:              stored.Meta,
		Snapshot:          stored.Snapshot,
		Buyer:             stored.Buyer,
		PayTo:             stored.PayTo,
		Authority:         stored.Authority,
		Nonce:             stored.Nonce,
		Escrow:            stored.Escrow,
		Price:             cloneOrZero(stored.Price),
		Redeemed:          stored.Redeemed,
		PendingRedemption: stored.PendingRedemption,
		Remaining:         stored.Remaining,
	}, true
}

// TicketPut persists the purchase ticket under its derived key.
func (m *Manager) TicketPut(ticket *marketplace.PurchaseTicket) error {
	if ticket == nil {
		return fmt.Errorf("marketplace ticket: nil value")
	}
	key := marketplace.TicketKey(ticket.Meta, ticket.Authority, ticket.Nonce)
	return m.store(marketRecordKey(marketTicketPrefix, key), &storedTicket{
		Product:           ticket.Product,
		Meta:              ticket.Meta,
		Snapshot:          ticket.Snapshot,
		Buyer:             ticket.Buyer,
		PayTo:             ticket.PayTo,
		Authority:         ticket.Authority,
		Nonce:             ticket.Nonce,
		Escrow:            ticket.Escrow,
		Price:             cloneOrZero(ticket.Price),
		Redeemed:          ticket.Redeemed,
		PendingRedemption: ticket.PendingRedemption,
		Remaining:         ticket.Remaining,
	})
}

// --- Redemptions ---

type storedRedemption struct {
	Nonce       uint64
	Ticket      [32]byte
	Quantity    uint64
	Price       *big.Int
	Status      uint8
	TakenBy     [20]byte
	InitiatedAt *big.Int
	ClosedAt    *big.Int
}

// RedemptionGet loads the redemption record at the given derived key.
func (m *Manager) RedemptionGet(id [32]byte) (*marketplace.Redemption, bool) {
	stored := new(storedRedemption)
	ok, err := m.load(marketRecordKey(marketRedemptionPrefx, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.Redemption{
		Nonce:       stored.Nonce,
		Ticket:      stored.Ticket,
		Quantity:    stored.Quantity,
		Price:       cloneOrZero(stored.Price),
		Status:      marketplace.RedemptionStatus(stored.Status),
		TakenBy:     stored.TakenBy,
		InitiatedAt: int64FromBig(stored.InitiatedAt),
		ClosedAt:    int64FromBig(stored.ClosedAt),
	}, true
}

// RedemptionPut persists the redemption record under its derived key.
func (m *Manager) RedemptionPut(redemption *marketplace.Redemption) error {
	if redemption == nil {
		return fmt.Errorf("marketplace redemption: nil value")
	}
	key := marketplace.RedemptionKey(redemption.Ticket, redemption.Nonce)
	return m.store(marketRecordKey(marketRedemptionPrefx, key), &storedRedemption{
		Nonce:       redemption.Nonce,
		Ticket:      redemption.Ticket,
		Quantity:    redemption.Quantity,
		Price:       cloneOrZero(redemption.Price),
		Status:      uint8(redemption.Status),
		TakenBy:     redemption.TakenBy,
		InitiatedAt: bigFromInt64(redemption.InitiatedAt),
		ClosedAt:    bigFromInt64(redemption.ClosedAt),
	})
}

// RedemptionDelete removes a cancelled redemption record.
func (m *Manager) RedemptionDelete(id [32]byte) error {
	return m.db.Delete(marketRecordKey(marketRedemptionPrefx, id))
}

// --- Ticket takers ---

type storedTicketTaker struct {
	Taker        [20]byte
	Entity       [32]byte
	EntityType   uint8
	AuthorizedBy [20]byte
	EnabledAt    *big.Int
	DisabledAt   *big.Int
}

// TicketTakerGet loads the authorization record at the given derived key.
func (m *Manager) TicketTakerGet(id [32]byte) (*marketplace.TicketTaker, bool) {
	stored := new(storedTicketTaker)
	ok, err := m.load(marketRecordKey(marketTakerPrefix, id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return &marketplace.TicketTaker{
		Taker:        stored.Taker,
		Entity:       stored.Entity,
		EntityType:   marketplace.TakerEntity(stored.EntityType),
		AuthorizedBy: stored.AuthorizedBy,
		EnabledAt:    int64FromBig(stored.EnabledAt),
		DisabledAt:   int64FromBig(stored.DisabledAt),
	}, true
}

// TicketTakerPut persists the authorization record under its derived key.
func (m *Manager) TicketTakerPut(taker *marketplace.TicketTaker) error {
	if taker == nil {
		return fmt.Errorf("marketplace ticket taker: nil value")
	}
	key := marketplace.TicketTakerKey(taker.Entity, taker.Taker)
	return m.store(marketRecordKey(marketTakerPrefix, key), &storedTicketTaker{
		Taker:        taker.Taker,
		Entity:       taker.Entity,
		EntityType:   uint8(taker.EntityType),
		AuthorizedBy: taker.AuthorizedBy,
		EnabledAt:    bigFromInt64(taker.EnabledAt),
		DisabledAt:   bigFromInt64(taker.DisabledAt),
	})
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
