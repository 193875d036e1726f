package marketplace

import "fmt"

// TransferTicket moves unredeemed quantity, and its pro-rata escrowed funds,
// from the source ticket into a newly created ticket under a new authority.
// The destination ticket starts with a clean redemption history; only the
// quantity and the funds backing it carry over. The source ticket's
// authority must invoke the transfer.
func (e *Engine) TransferTicket(caller [20]byte, ticket [32]byte, newAuthority [20]byte, nonce, quantity uint64) (*PurchaseTicket, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	source, ok := e.state.TicketGet(ticket)
	if !ok {
		return nil, fmt.Errorf("%w: purchase ticket", ErrNotFound)
	}
	if caller != source.Authority {
		return nil, fmt.Errorf("%w: ticket authority required", ErrUnauthorized)
	}
	if newAuthority == ([20]byte{}) {
		return nil, fmt.Errorf("%w: destination authority required", ErrInvalidInput)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if quantity > source.Remaining {
		return nil, fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientQuantity, quantity, source.Remaining)
	}
	destKey := TicketKey(source.Meta, newAuthority, nonce)
	if destKey == TicketKey(source.Meta, source.Authority, source.Nonce) {
		return nil, fmt.Errorf("%w: destination equals source ticket", ErrInvalidInput)
	}
	if _, ok := e.state.TicketGet(destKey); ok {
		return nil, fmt.Errorf("%w: destination ticket", ErrAlreadyExists)
	}

	dest := &PurchaseTicket{
		Product:   source.Product,
		Meta:      source.Meta,
		Snapshot:  source.Snapshot,
		Buyer:     source.Buyer,
		PayTo:     source.PayTo,
		Authority: newAuthority,
		Nonce:     nonce,
		Escrow:    EscrowAddress(destKey),
		Price:     cloneBigInt(source.Price),
		Remaining: quantity,
	}
	if err := e.transfer(source.Escrow, dest.Escrow, totalPrice(source.Price, quantity)); err != nil {
		return nil, err
	}
	source.Remaining -= quantity
	if err := e.state.TicketPut(source); err != nil {
		return nil, err
	}
	if err := e.state.TicketPut(dest); err != nil {
		return nil, err
	}
	e.emit(NewTicketTransferredEvent(ticket, destKey, dest, quantity))
	return dest.Clone(), nil
}

// CancelTicket refunds quantity unredeemed units from the ticket's escrow to
// the caller-designated refund destination. The flat purchase fee is never
// refunded. The refund destination is taken on trust: the engine does not
// cross-check it against the original payer.
func (e *Engine) CancelTicket(caller [20]byte, ticket [32]byte, quantity uint64, refundTo [20]byte) (*PurchaseTicket, error) {
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
	if refundTo == ([20]byte{}) {
		return nil, fmt.Errorf("%w: refund destination required", ErrInvalidInput)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if quantity > t.Remaining {
		return nil, fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientQuantity, quantity, t.Remaining)
	}
	if err := e.transfer(t.Escrow, refundTo, totalPrice(t.Price, quantity)); err != nil {
		return nil, err
	}
	t.Remaining -= quantity
	if err := e.state.TicketPut(t); err != nil {
		return nil, err
	}
	e.emit(NewTicketCancelledEvent(ticket, t, quantity, refundTo))
	return t.Clone(), nil
}
