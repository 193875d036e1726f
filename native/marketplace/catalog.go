package marketplace

import (
	"fmt"
	"math/big"
	"strings"
)

// CreateStore registers a new store under the caller's identity. The caller
// becomes both creator and authority; the (creator, id) pair is immutable
// afterwards.
func (e *Engine) CreateStore(caller [20]byte, id uint64, status Status, name, description string, data []byte) (*Store, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if caller == ([20]byte{}) {
		return nil, fmt.Errorf("%w: caller required", ErrInvalidInput)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: store name required", ErrInvalidInput)
	}
	key := StoreKey(caller, id)
	if _, ok := e.state.StoreGet(key); ok {
		return nil, fmt.Errorf("%w: store %d", ErrAlreadyExists, id)
	}
	store := &Store{
		ID:           id,
		Status:       status,
		Creator:      caller,
		Authority:    caller,
		Name:         name,
		Description:  description,
		Data:         append([]byte(nil), data...),
		ProductCount: 0,
	}
	if err := e.state.StorePut(store); err != nil {
		return nil, err
	}
	e.emit(NewStoreCreatedEvent(key, store))
	return store.Clone(), nil
}

// UpdateStore rewrites the mutable store fields. Creator and id never change;
// authority rotation goes through ChangeStoreAuthority.
func (e *Engine) UpdateStore(caller [20]byte, id [32]byte, status Status, name, description string, data []byte) (*Store, error) {
	store, err := e.loadStoreForAuthority(caller, id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: store name required", ErrInvalidInput)
	}
	store.Status = status
	store.Name = name
	store.Description = description
	store.Data = append([]byte(nil), data...)
	if err := e.state.StorePut(store); err != nil {
		return nil, err
	}
	e.emit(NewStoreUpdatedEvent(id, store))
	return store.Clone(), nil
}

// ChangeStoreAuthority hands the store to a new authority pair. Gated on the
// current authority or secondary authority.
func (e *Engine) ChangeStoreAuthority(caller [20]byte, id [32]byte, authority, secondary [20]byte) (*Store, error) {
	store, err := e.loadStoreForAuthority(caller, id)
	if err != nil {
		return nil, err
	}
	if authority == ([20]byte{}) {
		return nil, fmt.Errorf("%w: authority required", ErrInvalidInput)
	}
	store.Authority = authority
	store.SecondaryAuthority = secondary
	if err := e.state.StorePut(store); err != nil {
		return nil, err
	}
	e.emit(NewStoreUpdatedEvent(id, store))
	return store.Clone(), nil
}

func (e *Engine) loadStoreForAuthority(caller [20]byte, id [32]byte) (*Store, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	store, ok := e.state.StoreGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: store", ErrNotFound)
	}
	if !isAuthority(caller, store.Authority, store.SecondaryAuthority) {
		return nil, fmt.Errorf("%w: store authority required", ErrUnauthorized)
	}
	return store, nil
}

// ProductParams carries the caller-mutable product fields shared by the
// create and update operations.
type ProductParams struct {
	Status      Status
	Price       *big.Int
	Inventory   uint64
	Mode        RedemptionMode
	PayTo       [20]byte
	Name        string
	Description string
	Data        []byte
}

func (p ProductParams) validate() error {
	if !p.Status.Valid() {
		return fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	if !validPrice(p.Price) {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidInput)
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: invalid redemption mode", ErrInvalidInput)
	}
	if p.PayTo == ([20]byte{}) {
		return fmt.Errorf("%w: pay-to account required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", ErrInvalidInput)
	}
	return nil
}

// CreateProduct registers a lone product under the caller's identity.
func (e *Engine) CreateProduct(caller [20]byte, id uint64, params ProductParams) (*Product, error) {
	return e.createProduct(caller, id, [32]byte{}, params)
}

// CreateStoreProduct registers a product inside an existing store and bumps
// the store's product count. Gated on the store authority so strangers
// cannot pad someone else's catalog.
func (e *Engine) CreateStoreProduct(caller [20]byte, store [32]byte, id uint64, params ProductParams) (*Product, error) {
	if store == ([32]byte{}) {
		return nil, fmt.Errorf("%w: store key required", ErrInvalidInput)
	}
	return e.createProduct(caller, id, store, params)
}

func (e *Engine) createProduct(caller [20]byte, id uint64, storeKey [32]byte, params ProductParams) (*Product, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if caller == ([20]byte{}) {
		return nil, fmt.Errorf("%w: caller required", ErrInvalidInput)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	var owningStore *Store
	if storeKey != ([32]byte{}) {
		store, err := e.loadStoreForAuthority(caller, storeKey)
		if err != nil {
			return nil, err
		}
		owningStore = store
	}
	key := ProductKey(caller, id)
	if _, ok := e.state.ProductGet(key); ok {
		return nil, fmt.Errorf("%w: product %d", ErrAlreadyExists, id)
	}
	product := &Product{
		ID:          id,
		Store:       storeKey,
		Status:      params.Status,
		Creator:     caller,
		Authority:   caller,
		Price:       cloneBigInt(params.Price),
		Inventory:   params.Inventory,
		Mode:        params.Mode,
		PayTo:       params.PayTo,
		Name:        params.Name,
		Description: params.Description,
		Data:        append([]byte(nil), params.Data...),
		Revision:    0,
	}
	if owningStore != nil {
		count, err := addQuantity(owningStore.ProductCount, 1)
		if err != nil {
			return nil, err
		}
		owningStore.ProductCount = count
		if err := e.state.StorePut(owningStore); err != nil {
			return nil, err
		}
	}
	if err := e.state.ProductPut(product); err != nil {
		return nil, err
	}
	e.emit(NewProductCreatedEvent(key, product))
	return product.Clone(), nil
}

// UpdateProduct rewrites the mutable product fields, including price and
// redemption mode mid-lifecycle. Only future purchases see the change;
// existing snapshots and tickets keep the terms they captured. The revision
// tag is bumped on every update.
func (e *Engine) UpdateProduct(caller [20]byte, id [32]byte, params ProductParams) (*Product, error) {
	product, err := e.loadProductForAuthority(caller, id)
	if err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	revision, err := addQuantity(product.Revision, 1)
	if err != nil {
		return nil, err
	}
	product.Status = params.Status
	product.Price = cloneBigInt(params.Price)
	product.Inventory = params.Inventory
	product.Mode = params.Mode
	product.PayTo = params.PayTo
	product.Name = params.Name
	product.Description = params.Description
	product.Data = append([]byte(nil), params.Data...)
	product.Revision = revision
	if err := e.state.ProductPut(product); err != nil {
		return nil, err
	}
	e.emit(NewProductUpdatedEvent(id, product))
	return product.Clone(), nil
}

// ChangeProductAuthority hands the product to a new authority pair. Gated on
// the current authority or secondary authority.
func (e *Engine) ChangeProductAuthority(caller [20]byte, id [32]byte, authority, secondary [20]byte) (*Product, error) {
	product, err := e.loadProductForAuthority(caller, id)
	if err != nil {
		return nil, err
	}
	if authority == ([20]byte{}) {
		return nil, fmt.Errorf("%w: authority required", ErrInvalidInput)
	}
	product.Authority = authority
	product.SecondaryAuthority = secondary
	if err := e.state.ProductPut(product); err != nil {
		return nil, err
	}
	e.emit(NewProductUpdatedEvent(id, product))
	return product.Clone(), nil
}

func (e *Engine) loadProductForAuthority(caller [20]byte, id [32]byte) (*Product, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	product, ok := e.state.ProductGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	if !isAuthority(caller, product.Authority, product.SecondaryAuthority) {
		return nil, fmt.Errorf("%w: product authority required", ErrUnauthorized)
	}
	return product, nil
}
