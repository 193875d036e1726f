package marketplace

import (
	"fmt"
	"math/big"
)

// BuyProduct executes a purchase of quantity units at expectedPrice. The
// expected price must match the product's current price exactly, protecting
// the buyer against a price change racing the submission. The ticket's
// redeeming authority may differ from the buyer; a zero authority defaults
// to the buyer.
//
// The buyer is charged quantity*price plus the flat purchase fee into a
// fresh escrow account owned by the resulting ticket; the fee is skimmed to
// the fee-collection target immediately. Immediate-mode products settle the
// sale in the same step, ticketed products leave the funds in escrow for the
// two-phase redemption protocol.
func (e *Engine) BuyProduct(buyer, authority [20]byte, product [32]byte, nonce, quantity uint64, expectedPrice *big.Int) (*PurchaseTicket, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if buyer == ([20]byte{}) {
		return nil, fmt.Errorf("%w: buyer required", ErrInvalidInput)
	}
	if authority == ([20]byte{}) {
		authority = buyer
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	prod, ok := e.state.ProductGet(product)
	if !ok {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	if prod.Status != StatusActive {
		return nil, fmt.Errorf("%w: product not active", ErrInvalidState)
	}
	if !validPrice(expectedPrice) || prod.Price.Cmp(expectedPrice) != 0 {
		return nil, fmt.Errorf("%w: expected %s, current %s", ErrPriceMismatch, expectedPrice, prod.Price)
	}
	if prod.Inventory < quantity {
		return nil, fmt.Errorf("%w: %d requested, %d available", ErrInsufficientInventory, quantity, prod.Inventory)
	}
	metaKey := SnapshotMetaKey(product, buyer, nonce)
	if _, ok := e.state.SnapshotMetaGet(metaKey); ok {
		return nil, fmt.Errorf("%w: purchase nonce %d", ErrAlreadyExists, nonce)
	}
	ticketKey := TicketKey(metaKey, authority, nonce)
	if _, ok := e.state.TicketGet(ticketKey); ok {
		return nil, fmt.Errorf("%w: purchase ticket", ErrAlreadyExists)
	}

	total := totalPrice(prod.Price, quantity)
	charge := new(big.Int).Add(total, cfg.Fee)
	buyerBalance, err := e.balanceOf(buyer)
	if err != nil {
		return nil, err
	}
	if buyerBalance.Cmp(charge) < 0 {
		return nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, charge, buyerBalance)
	}

	// All checks passed; mutations follow the order fixed by the protocol:
	// inventory first, snapshot second, funds last.
	prod.Inventory -= quantity
	snapshotKey := SnapshotKey(metaKey)
	prod.UsableSnapshot = snapshotKey
	if err := e.state.ProductPut(prod); err != nil {
		return nil, err
	}

	snapshot := &ProductSnapshot{Product: *prod.Clone(), TakenAt: e.now()}
	if err := e.state.SnapshotPut(snapshotKey, snapshot); err != nil {
		return nil, err
	}
	meta := &SnapshotMeta{
		Product:  product,
		Buyer:    buyer,
		Nonce:    nonce,
		Snapshot: snapshotKey,
		Ticket:   ticketKey,
	}
	if err := e.state.SnapshotMetaPut(meta); err != nil {
		return nil, err
	}

	escrow := EscrowAddress(ticketKey)
	if err := e.transfer(buyer, escrow, charge); err != nil {
		return nil, err
	}
	if err := e.transfer(escrow, cfg.FeeAccount, cfg.Fee); err != nil {
		return nil, err
	}

	ticket := &PurchaseTicket{
		Product:   product,
		Meta:      metaKey,
		Snapshot:  snapshotKey,
		Buyer:     buyer,
		PayTo:     prod.PayTo,
		Authority: authority,
		Nonce:     nonce,
		Escrow:    escrow,
		Price:     cloneBigInt(prod.Price),
	}
	switch prod.Mode {
	case RedeemImmediate:
		if err := e.transfer(escrow, prod.PayTo, total); err != nil {
			return nil, err
		}
		ticket.Redeemed = quantity
		ticket.Remaining = 0
	case RedeemTicketed:
		ticket.Remaining = quantity
	default:
		return nil, fmt.Errorf("%w: unknown redemption mode", ErrInvalidState)
	}
	if err := e.state.TicketPut(ticket); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseCompletedEvent(ticketKey, ticket, quantity, cfg.Fee))
	return ticket.Clone(), nil
}
