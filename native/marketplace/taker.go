package marketplace

import "fmt"

// CreateStoreTicketTaker authorizes taker to settle redemptions for every
// product in the store. Gated on the store authority.
func (e *Engine) CreateStoreTicketTaker(caller [20]byte, store [32]byte, taker [20]byte) (*TicketTaker, error) {
	if _, err := e.loadStoreForAuthority(caller, store); err != nil {
		return nil, err
	}
	return e.createTicketTaker(caller, store, TakerEntityStore, taker)
}

// CreateProductTicketTaker authorizes taker to settle redemptions for a
// single product. Gated on the product authority.
func (e *Engine) CreateProductTicketTaker(caller [20]byte, product [32]byte, taker [20]byte) (*TicketTaker, error) {
	if _, err := e.loadProductForAuthority(caller, product); err != nil {
		return nil, err
	}
	return e.createTicketTaker(caller, product, TakerEntityProduct, taker)
}

func (e *Engine) createTicketTaker(caller [20]byte, entity [32]byte, entityType TakerEntity, taker [20]byte) (*TicketTaker, error) {
	if taker == ([20]byte{}) {
		return nil, fmt.Errorf("%w: taker identity required", ErrInvalidInput)
	}
	key := TicketTakerKey(entity, taker)
	if _, ok := e.state.TicketTakerGet(key); ok {
		return nil, fmt.Errorf("%w: ticket taker", ErrAlreadyExists)
	}
	record := &TicketTaker{
		Taker:        taker,
		Entity:       entity,
		EntityType:   entityType,
		AuthorizedBy: caller,
		EnabledAt:    e.now(),
	}
	if err := e.state.TicketTakerPut(record); err != nil {
		return nil, err
	}
	e.emit(NewTicketTakerCreatedEvent(key, record))
	return record.Clone(), nil
}

// DisableTicketTaker revokes an authorization without deleting it, leaving
// an auditable record of when the revocation happened. Gated on the
// authority of the store or product the authorization is scoped to.
func (e *Engine) DisableTicketTaker(caller [20]byte, entity [32]byte, taker [20]byte) (*TicketTaker, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	record, ok := e.state.TicketTakerGet(TicketTakerKey(entity, taker))
	if !ok {
		return nil, fmt.Errorf("%w: ticket taker", ErrNotFound)
	}
	switch record.EntityType {
	case TakerEntityStore:
		if _, err := e.loadStoreForAuthority(caller, entity); err != nil {
			return nil, err
		}
	case TakerEntityProduct:
		if _, err := e.loadProductForAuthority(caller, entity); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown taker entity", ErrInvalidState)
	}
	if !record.Enabled() {
		return nil, fmt.Errorf("%w: ticket taker already disabled", ErrInvalidState)
	}
	record.DisabledAt = e.now()
	if err := e.state.TicketTakerPut(record); err != nil {
		return nil, err
	}
	e.emit(NewTicketTakerDisabledEvent(TicketTakerKey(entity, taker), record))
	return record.Clone(), nil
}

// authorizeTaker decides whether caller may settle redemptions for the given
// product. A product-scoped authorization takes precedence: when one exists
// for the caller it alone decides, so disabling it cannot be bypassed by a
// still-enabled store-level grant.
func (e *Engine) authorizeTaker(caller [20]byte, productKey [32]byte, product *Product) error {
	if record, ok := e.state.TicketTakerGet(TicketTakerKey(productKey, caller)); ok {
		if record.Enabled() {
			return nil
		}
		return fmt.Errorf("%w: product ticket taker disabled", ErrUnauthorized)
	}
	if product != nil && !product.IsLone() {
		if record, ok := e.state.TicketTakerGet(TicketTakerKey(product.Store, caller)); ok && record.Enabled() {
			return nil
		}
	}
	return fmt.Errorf("%w: enabled ticket taker required", ErrUnauthorized)
}
