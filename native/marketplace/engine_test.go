package marketplace

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"twine/core/events"
	"twine/core/types"
)

type mockState struct {
	config      *Config
	stores      map[[32]byte]*Store
	products    map[[32]byte]*Product
	snapshots   map[[32]byte]*ProductSnapshot
	metas       map[[32]byte]*SnapshotMeta
	tickets     map[[32]byte]*PurchaseTicket
	redemptions map[[32]byte]*Redemption
	takers      map[[32]byte]*TicketTaker
	accounts    map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		stores:      make(map[[32]byte]*Store),
		products:    make(map[[32]byte]*Product),
		snapshots:   make(map[[32]byte]*ProductSnapshot),
		metas:       make(map[[32]byte]*SnapshotMeta),
		tickets:     make(map[[32]byte]*PurchaseTicket),
		redemptions: make(map[[32]byte]*Redemption),
		takers:      make(map[[32]byte]*TicketTaker),
		accounts:    make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) ConfigGet() (*Config, bool) {
	if m.config == nil {
		return nil, false
	}
	return m.config.Clone(), true
}

func (m *mockState) ConfigPut(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	m.config = cfg.Clone()
	return nil
}

func (m *mockState) StoreGet(id [32]byte) (*Store, bool) {
	store, ok := m.stores[id]
	if !ok {
		return nil, false
	}
	return store.Clone(), true
}

func (m *mockState) StorePut(store *Store) error {
	if store == nil {
		return fmt.Errorf("nil store")
	}
	m.stores[StoreKey(store.Creator, store.ID)] = store.Clone()
	return nil
}

func (m *mockState) ProductGet(id [32]byte) (*Product, bool) {
	product, ok := m.products[id]
	if !ok {
		return nil, false
	}
	return product.Clone(), true
}

func (m *mockState) ProductPut(product *Product) error {
	if product == nil {
		return fmt.Errorf("nil product")
	}
	m.products[ProductKey(product.Creator, product.ID)] = product.Clone()
	return nil
}

func (m *mockState) SnapshotGet(id [32]byte) (*ProductSnapshot, bool) {
	snapshot, ok := m.snapshots[id]
	if !ok {
		return nil, false
	}
	return snapshot.Clone(), true
}

func (m *mockState) SnapshotPut(id [32]byte, snapshot *ProductSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("nil snapshot")
	}
	m.snapshots[id] = snapshot.Clone()
	return nil
}

func (m *mockState) SnapshotMetaGet(id [32]byte) (*SnapshotMeta, bool) {
	meta, ok := m.metas[id]
	if !ok {
		return nil, false
	}
	clone := *meta
	return &clone, true
}

func (m *mockState) SnapshotMetaPut(meta *SnapshotMeta) error {
	if meta == nil {
		return fmt.Errorf("nil snapshot meta")
	}
	clone := *meta
	m.metas[SnapshotMetaKey(meta.Product, meta.Buyer, meta.Nonce)] = &clone
	return nil
}

func (m *mockState) TicketGet(id [32]byte) (*PurchaseTicket, bool) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, false
	}
	return ticket.Clone(), true
}

func (m *mockState) TicketPut(ticket *PurchaseTicket) error {
	if ticket == nil {
		return fmt.Errorf("nil ticket")
	}
	m.tickets[TicketKey(ticket.Meta, ticket.Authority, ticket.Nonce)] = ticket.Clone()
	return nil
}

func (m *mockState) RedemptionGet(id [32]byte) (*Redemption, bool) {
	redemption, ok := m.redemptions[id]
	if !ok {
		return nil, false
	}
	return redemption.Clone(), true
}

func (m *mockState) RedemptionPut(redemption *Redemption) error {
	if redemption == nil {
		return fmt.Errorf("nil redemption")
	}
	m.redemptions[RedemptionKey(redemption.Ticket, redemption.Nonce)] = redemption.Clone()
	return nil
}

func (m *mockState) RedemptionDelete(id [32]byte) error {
	delete(m.redemptions, id)
	return nil
}

func (m *mockState) TicketTakerGet(id [32]byte) (*TicketTaker, bool) {
	taker, ok := m.takers[id]
	if !ok {
		return nil, false
	}
	return taker.Clone(), true
}

func (m *mockState) TicketTakerPut(taker *TicketTaker) error {
	if taker == nil {
		return fmt.Errorf("nil ticket taker")
	}
	m.takers[TicketTakerKey(taker.Entity, taker.Taker)] = taker.Clone()
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	acc, ok := m.accounts[key]
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return &types.Account{Nonce: acc.Nonce, Balance: new(big.Int).Set(acc.Balance)}, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("nil account")
	}
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = &types.Account{Nonce: account.Nonce, Balance: new(big.Int).Set(account.Balance)}
	return nil
}

func (m *mockState) fund(addr [20]byte, amount int64) {
	m.accounts[addr] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	acc, ok := m.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.Balance)
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *capturingEmitter) lastType() string {
	if len(c.events) == 0 {
		return ""
	}
	return c.events[len(c.events)-1].EventType()
}

const testFee = 25_000

var (
	testAuthority  = newTestAddress(0xA1)
	testSecondary  = newTestAddress(0xA2)
	testFeeAccount = newTestAddress(0xFE)
)

func newTestEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := newMockState()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	if _, err := engine.Initialize(testAuthority, big.NewInt(testFee), testAuthority, testSecondary, testFeeAccount); err != nil {
		t.Fatalf("initialize config: %v", err)
	}
	return engine, state
}

func TestInitializeRejectsSecondCall(t *testing.T) {
	engine, state := newTestEngine(t)
	before, ok := state.ConfigGet()
	if !ok {
		t.Fatalf("config missing after initialize")
	}
	_, err := engine.Initialize(newTestAddress(0x99), big.NewInt(1), newTestAddress(0x99), [20]byte{}, newTestAddress(0x98))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	after, _ := state.ConfigGet()
	if after.Fee.Cmp(before.Fee) != 0 || after.Authority != before.Authority || after.FeeAccount != before.FeeAccount {
		t.Fatalf("config mutated by rejected re-initialization")
	}
}

func TestInitializeValidatesInputs(t *testing.T) {
	engine := NewEngine()
	engine.SetState(newMockState())
	if _, err := engine.Initialize(testAuthority, big.NewInt(-1), testAuthority, [20]byte{}, testFeeAccount); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative fee: expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.Initialize(testAuthority, big.NewInt(1), [20]byte{}, [20]byte{}, testFeeAccount); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero authority: expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.Initialize(testAuthority, big.NewInt(1), testAuthority, [20]byte{}, [20]byte{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero fee account: expected ErrInvalidInput, got %v", err)
	}
}

func TestChangeFeeAccount(t *testing.T) {
	engine, state := newTestEngine(t)
	newTarget := newTestAddress(0xFD)

	if _, err := engine.ChangeFeeAccount(testSecondary, newTarget); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("secondary authority must not rotate the fee account, got %v", err)
	}
	if _, err := engine.ChangeFeeAccount(newTestAddress(0x55), newTarget); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger must not rotate the fee account, got %v", err)
	}

	updated, err := engine.ChangeFeeAccount(testAuthority, newTarget)
	if err != nil {
		t.Fatalf("change fee account: %v", err)
	}
	if updated.FeeAccount != newTarget {
		t.Fatalf("fee account not replaced")
	}
	if updated.Version != 1 {
		t.Fatalf("expected version bump to 1, got %d", updated.Version)
	}
	stored, _ := state.ConfigGet()
	if stored.FeeAccount != newTarget {
		t.Fatalf("fee account change not persisted")
	}
	if stored.Authority != testAuthority || stored.Creator != testAuthority {
		t.Fatalf("unrelated config fields mutated")
	}
}

func TestEngineRequiresState(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.Initialize(testAuthority, big.NewInt(1), testAuthority, [20]byte{}, testFeeAccount); err == nil {
		t.Fatalf("expected error without state backend")
	}
	if _, err := engine.BuyProduct(testAuthority, [20]byte{}, [32]byte{}, 1, 1, big.NewInt(1)); err == nil {
		t.Fatalf("expected error without state backend")
	}
}

func TestEmitterChaining(t *testing.T) {
	engine, _ := newTestEngine(t)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	if _, err := engine.CreateStore(newTestAddress(0x10), 0, StatusActive, "books", "", nil); err != nil {
		t.Fatalf("create store: %v", err)
	}
	if emitter.lastType() != EventTypeStoreCreated {
		t.Fatalf("expected %s event, got %q", EventTypeStoreCreated, emitter.lastType())
	}
	engine.SetEmitter(nil) // resets to noop, must not panic
	if _, err := engine.CreateStore(newTestAddress(0x10), 1, StatusActive, "music", "", nil); err != nil {
		t.Fatalf("create store after emitter reset: %v", err)
	}
}
