package marketplace

import "fmt"

// InitiateRedemption reserves quantity units of a ticket into a pending
// redemption. The reserved quantity moves from Remaining to
// PendingRedemption; no funds move until the redemption settles. Only the
// ticket's authority may initiate.
func (e *Engine) InitiateRedemption(caller [20]byte, ticket [32]byte, nonce, quantity uint64) (*Redemption, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	t, ok := e.state.TicketGet(ticket)
	if !ok {
		return nil, fmt.Errorf("%w: purchase ticket", ErrNotFound)
	}
	if caller != t.Authority {
		return nil, fmt.Errorf("%w: ticket authority required", ErrUnauthorized)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if quantity > t.Remaining {
		return nil, fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientQuantity, quantity, t.Remaining)
	}
	key := RedemptionKey(ticket, nonce)
	if _, ok := e.state.RedemptionGet(key); ok {
		return nil, fmt.Errorf("%w: redemption nonce %d", ErrAlreadyExists, nonce)
	}
	pending, err := addQuantity(t.PendingRedemption, quantity)
	if err != nil {
		return nil, err
	}
	t.Remaining -= quantity
	t.PendingRedemption = pending
	redemption := &Redemption{
		Nonce:       nonce,
		Ticket:      ticket,
		Quantity:    quantity,
		Price:       cloneBigInt(t.Price),
		Status:      RedemptionPending,
		InitiatedAt: e.now(),
	}
	if err := e.state.TicketPut(t); err != nil {
		return nil, err
	}
	if err := e.state.RedemptionPut(redemption); err != nil {
		return nil, err
	}
	e.emit(NewRedemptionInitiatedEvent(key, redemption))
	return redemption.Clone(), nil
}

// TakeRedemption settles a pending redemption: the reserved funds move from
// the ticket's escrow to the pay-to account and the quantity becomes
// redeemed. The caller must hold an enabled ticket-taker authorization for
// the ticket's product, or failing that its store.
func (e *Engine) TakeRedemption(caller [20]byte, redemption [32]byte) (*Redemption, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	r, ok := e.state.RedemptionGet(redemption)
	if !ok {
		return nil, fmt.Errorf("%w: redemption", ErrNotFound)
	}
	if r.Status != RedemptionPending {
		return nil, fmt.Errorf("%w: redemption already settled", ErrInvalidState)
	}
	t, ok := e.state.TicketGet(r.Ticket)
	if !ok {
		return nil, fmt.Errorf("%w: purchase ticket", ErrNotFound)
	}
	product, ok := e.state.ProductGet(t.Product)
	if !ok {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	if err := e.authorizeTaker(caller, t.Product, product); err != nil {
		return nil, err
	}
	if t.PendingRedemption < r.Quantity {
		return nil, fmt.Errorf("%w: pending quantity below redemption", ErrInvalidState)
	}
	redeemed, err := addQuantity(t.Redeemed, r.Quantity)
	if err != nil {
		return nil, err
	}
	if err := e.transfer(t.Escrow, t.PayTo, totalPrice(r.Price, r.Quantity)); err != nil {
		return nil, err
	}
	t.PendingRedemption -= r.Quantity
	t.Redeemed = redeemed
	r.Status = RedemptionSettled
	r.TakenBy = caller
	r.ClosedAt = e.now()
	if err := e.state.TicketPut(t); err != nil {
		return nil, err
	}
	if err := e.state.RedemptionPut(r); err != nil {
		return nil, err
	}
	e.emit(NewRedemptionSettledEvent(redemption, r))
	return r.Clone(), nil
}

// CancelRedemption aborts a pending redemption, returning the reserved
// quantity to the ticket. The record is removed; no funds move. Only the
// ticket's authority may cancel.
func (e *Engine) CancelRedemption(caller [20]byte, redemption [32]byte) error {
	if err := e.requireState(); err != nil {
		return err
	}
	r, ok := e.state.RedemptionGet(redemption)
	if !ok {
		return fmt.Errorf("%w: redemption", ErrNotFound)
	}
	if r.Status != RedemptionPending {
		return fmt.Errorf("%w: redemption already settled", ErrInvalidState)
	}
	t, ok := e.state.TicketGet(r.Ticket)
	if !ok {
		return fmt.Errorf("%w: purchase ticket", ErrNotFound)
	}
	if caller != t.Authority {
		return fmt.Errorf("%w: ticket authority required", ErrUnauthorized)
	}
	if t.PendingRedemption < r.Quantity {
		return fmt.Errorf("%w: pending quantity below redemption", ErrInvalidState)
	}
	remaining, err := addQuantity(t.Remaining, r.Quantity)
	if err != nil {
		return err
	}
	t.PendingRedemption -= r.Quantity
	t.Remaining = remaining
	if err := e.state.TicketPut(t); err != nil {
		return err
	}
	if err := e.state.RedemptionDelete(redemption); err != nil {
		return err
	}
	e.emit(NewRedemptionCancelledEvent(redemption, r))
	return nil
}
