package marketplace

import (
	"errors"
	"math/big"
	"testing"
)

func testProductParams() ProductParams {
	return ProductParams{
		Status:    StatusActive,
		Price:     big.NewInt(1_000_000),
		Inventory: 5,
		Mode:      RedeemImmediate,
		PayTo:     newTestAddress(0x50),
		Name:      "concert ticket",
	}
}

func TestCreateStore(t *testing.T) {
	engine, state := newTestEngine(t)
	owner := newTestAddress(0x10)

	store, err := engine.CreateStore(owner, 7, StatusActive, "books", "paper goods", []byte{0x01})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if store.Creator != owner || store.Authority != owner {
		t.Fatalf("caller must become creator and authority")
	}
	if store.ProductCount != 0 {
		t.Fatalf("fresh store must have zero products, got %d", store.ProductCount)
	}
	if _, ok := state.StoreGet(StoreKey(owner, 7)); !ok {
		t.Fatalf("store not persisted under its derived key")
	}

	if _, err := engine.CreateStore(owner, 7, StatusActive, "books again", "", nil); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate (creator,id): expected ErrAlreadyExists, got %v", err)
	}
	// Same id under a different creator is a different key.
	if _, err := engine.CreateStore(newTestAddress(0x11), 7, StatusActive, "books", "", nil); err != nil {
		t.Fatalf("same id, different creator: %v", err)
	}
	if _, err := engine.CreateStore(owner, 8, StatusActive, "  ", "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateStoreAuthority(t *testing.T) {
	engine, state := newTestEngine(t)
	owner := newTestAddress(0x10)
	stranger := newTestAddress(0x66)
	if _, err := engine.CreateStore(owner, 1, StatusActive, "books", "", nil); err != nil {
		t.Fatalf("create store: %v", err)
	}
	key := StoreKey(owner, 1)

	if _, err := engine.UpdateStore(stranger, key, StatusInactive, "hijack", "", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger update: expected ErrUnauthorized, got %v", err)
	}
	updated, err := engine.UpdateStore(owner, key, StatusInactive, "books", "closed for now", nil)
	if err != nil {
		t.Fatalf("update store: %v", err)
	}
	if updated.Status != StatusInactive || updated.Description != "closed for now" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Creator != owner || updated.ID != 1 {
		t.Fatalf("immutable identity fields changed")
	}

	next := newTestAddress(0x20)
	second := newTestAddress(0x21)
	if _, err := engine.ChangeStoreAuthority(stranger, key, next, second); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger rotation: expected ErrUnauthorized, got %v", err)
	}
	rotated, err := engine.ChangeStoreAuthority(owner, key, next, second)
	if err != nil {
		t.Fatalf("rotate authority: %v", err)
	}
	if rotated.Authority != next || rotated.SecondaryAuthority != second {
		t.Fatalf("rotation not applied: %+v", rotated)
	}
	// The old authority is locked out, the new pair can act.
	if _, err := engine.UpdateStore(owner, key, StatusActive, "books", "", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old authority must be locked out, got %v", err)
	}
	if _, err := engine.UpdateStore(second, key, StatusActive, "books", "", nil); err != nil {
		t.Fatalf("secondary authority update: %v", err)
	}
	stored, _ := state.StoreGet(key)
	if stored.Status != StatusActive {
		t.Fatalf("secondary authority update not persisted")
	}
}

func TestCreateProduct(t *testing.T) {
	engine, state := newTestEngine(t)
	seller := newTestAddress(0x30)

	product, err := engine.CreateProduct(seller, 3, testProductParams())
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !product.IsLone() {
		t.Fatalf("product created without a store must be lone")
	}
	if product.Revision != 0 || product.UsableSnapshot != ([32]byte{}) {
		t.Fatalf("fresh product must start at revision 0 with no snapshot")
	}
	if _, ok := state.ProductGet(ProductKey(seller, 3)); !ok {
		t.Fatalf("product not persisted under its derived key")
	}
	if _, err := engine.CreateProduct(seller, 3, testProductParams()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate (creator,id): expected ErrAlreadyExists, got %v", err)
	}

	params := testProductParams()
	params.PayTo = [20]byte{}
	if _, err := engine.CreateProduct(seller, 4, params); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero pay-to: expected ErrInvalidInput, got %v", err)
	}
	params = testProductParams()
	params.Price = big.NewInt(-1)
	if _, err := engine.CreateProduct(seller, 4, params); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative price: expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateStoreProduct(t *testing.T) {
	engine, state := newTestEngine(t)
	owner := newTestAddress(0x30)
	stranger := newTestAddress(0x66)
	if _, err := engine.CreateStore(owner, 1, StatusActive, "venue", "", nil); err != nil {
		t.Fatalf("create store: %v", err)
	}
	storeKey := StoreKey(owner, 1)

	if _, err := engine.CreateStoreProduct(stranger, storeKey, 1, testProductParams()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger must not add products to the store, got %v", err)
	}
	product, err := engine.CreateStoreProduct(owner, storeKey, 1, testProductParams())
	if err != nil {
		t.Fatalf("create store product: %v", err)
	}
	if product.Store != storeKey {
		t.Fatalf("product not linked to owning store")
	}
	if _, err := engine.CreateStoreProduct(owner, storeKey, 2, testProductParams()); err != nil {
		t.Fatalf("second store product: %v", err)
	}
	store, _ := state.StoreGet(storeKey)
	if store.ProductCount != 2 {
		t.Fatalf("expected product count 2, got %d", store.ProductCount)
	}
	if _, err := engine.CreateStoreProduct(owner, StoreKey(owner, 99), 3, testProductParams()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown store: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	engine, _ := newTestEngine(t)
	seller := newTestAddress(0x30)
	stranger := newTestAddress(0x66)
	if _, err := engine.CreateProduct(seller, 1, testProductParams()); err != nil {
		t.Fatalf("create product: %v", err)
	}
	key := ProductKey(seller, 1)

	if _, err := engine.UpdateProduct(stranger, key, testProductParams()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger update: expected ErrUnauthorized, got %v", err)
	}
	params := testProductParams()
	params.Price = big.NewInt(2_000_000)
	params.Inventory = 9
	params.Mode = RedeemTicketed
	updated, err := engine.UpdateProduct(seller, key, params)
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.Price.Cmp(big.NewInt(2_000_000)) != 0 || updated.Inventory != 9 || updated.Mode != RedeemTicketed {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Revision != 1 {
		t.Fatalf("expected revision 1 after update, got %d", updated.Revision)
	}
	if _, err := engine.UpdateProduct(seller, key, params); err != nil {
		t.Fatalf("second update: %v", err)
	}
}

func TestChangeProductAuthority(t *testing.T) {
	engine, _ := newTestEngine(t)
	seller := newTestAddress(0x30)
	next := newTestAddress(0x31)
	if _, err := engine.CreateProduct(seller, 1, testProductParams()); err != nil {
		t.Fatalf("create product: %v", err)
	}
	key := ProductKey(seller, 1)

	if _, err := engine.ChangeProductAuthority(seller, key, [20]byte{}, [20]byte{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero authority: expected ErrInvalidInput, got %v", err)
	}
	rotated, err := engine.ChangeProductAuthority(seller, key, next, [20]byte{})
	if err != nil {
		t.Fatalf("rotate authority: %v", err)
	}
	if rotated.Authority != next {
		t.Fatalf("rotation not applied")
	}
	if _, err := engine.UpdateProduct(seller, key, testProductParams()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old authority must be locked out, got %v", err)
	}
	if _, err := engine.UpdateProduct(next, key, testProductParams()); err != nil {
		t.Fatalf("new authority update: %v", err)
	}
}
