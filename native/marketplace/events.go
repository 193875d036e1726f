package marketplace

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"twine/core/types"
)

const (
	EventTypeConfigInitialized    = "marketplace.config.initialized"
	EventTypeFeeAccountChanged    = "marketplace.config.fee_account_changed"
	EventTypeStoreCreated         = "marketplace.store.created"
	EventTypeStoreUpdated         = "marketplace.store.updated"
	EventTypeProductCreated       = "marketplace.product.created"
	EventTypeProductUpdated       = "marketplace.product.updated"
	EventTypeTicketTakerCreated   = "marketplace.ticket_taker.created"
	EventTypeTicketTakerDisabled  = "marketplace.ticket_taker.disabled"
	EventTypePurchaseCompleted    = "marketplace.purchase.completed"
	EventTypeRedemptionInitiated  = "marketplace.redemption.initiated"
	EventTypeRedemptionSettled    = "marketplace.redemption.settled"
	EventTypeRedemptionCancelled  = "marketplace.redemption.cancelled"
	EventTypeTicketTransferred    = "marketplace.ticket.transferred"
	EventTypeTicketCancelled      = "marketplace.ticket.cancelled"
)

func hexKey(key [32]byte) string   { return hex.EncodeToString(key[:]) }
func hexAddr(addr [20]byte) string { return hex.EncodeToString(addr[:]) }

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewConfigInitializedEvent returns the canonical payload for the one-time
// config bootstrap.
func NewConfigInitializedEvent(cfg *Config) *types.Event {
	attrs := make(map[string]string)
	if cfg != nil {
		attrs["fee"] = amountString(cfg.Fee)
		attrs["creator"] = hexAddr(cfg.Creator)
		attrs["authority"] = hexAddr(cfg.Authority)
		attrs["feeAccount"] = hexAddr(cfg.FeeAccount)
	}
	return &types.Event{Type: EventTypeConfigInitialized, Attributes: attrs}
}

// NewFeeAccountChangedEvent returns the payload emitted when the
// fee-collection target is replaced.
func NewFeeAccountChangedEvent(cfg *Config) *types.Event {
	attrs := make(map[string]string)
	if cfg != nil {
		attrs["feeAccount"] = hexAddr(cfg.FeeAccount)
		attrs["version"] = strconv.FormatUint(cfg.Version, 10)
	}
	return &types.Event{Type: EventTypeFeeAccountChanged, Attributes: attrs}
}

func newStoreEvent(eventType string, key [32]byte, store *Store) *types.Event {
	attrs := make(map[string]string)
	if store != nil {
		attrs["store"] = hexKey(key)
		attrs["id"] = strconv.FormatUint(store.ID, 10)
		attrs["creator"] = hexAddr(store.Creator)
		attrs["authority"] = hexAddr(store.Authority)
		attrs["status"] = strconv.FormatUint(uint64(store.Status), 10)
		attrs["productCount"] = strconv.FormatUint(store.ProductCount, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewStoreCreatedEvent returns the payload for a freshly registered store.
func NewStoreCreatedEvent(key [32]byte, store *Store) *types.Event {
	return newStoreEvent(EventTypeStoreCreated, key, store)
}

// NewStoreUpdatedEvent returns the payload for a store mutation, including
// authority rotation.
func NewStoreUpdatedEvent(key [32]byte, store *Store) *types.Event {
	return newStoreEvent(EventTypeStoreUpdated, key, store)
}

func newProductEvent(eventType string, key [32]byte, product *Product) *types.Event {
	attrs := make(map[string]string)
	if product != nil {
		attrs["product"] = hexKey(key)
		attrs["id"] = strconv.FormatUint(product.ID, 10)
		attrs["creator"] = hexAddr(product.Creator)
		attrs["authority"] = hexAddr(product.Authority)
		attrs["status"] = strconv.FormatUint(uint64(product.Status), 10)
		attrs["price"] = amountString(product.Price)
		attrs["inventory"] = strconv.FormatUint(product.Inventory, 10)
		attrs["mode"] = strconv.FormatUint(uint64(product.Mode), 10)
		attrs["revision"] = strconv.FormatUint(product.Revision, 10)
		if !product.IsLone() {
			attrs["store"] = hexKey(product.Store)
		}
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewProductCreatedEvent returns the payload for a freshly registered
// product.
func NewProductCreatedEvent(key [32]byte, product *Product) *types.Event {
	return newProductEvent(EventTypeProductCreated, key, product)
}

// NewProductUpdatedEvent returns the payload for a product mutation.
func NewProductUpdatedEvent(key [32]byte, product *Product) *types.Event {
	return newProductEvent(EventTypeProductUpdated, key, product)
}

func newTicketTakerEvent(eventType string, key [32]byte, taker *TicketTaker) *types.Event {
	attrs := make(map[string]string)
	if taker != nil {
		attrs["ticketTaker"] = hexKey(key)
		attrs["taker"] = hexAddr(taker.Taker)
		attrs["entity"] = hexKey(taker.Entity)
		attrs["entityType"] = strconv.FormatUint(uint64(taker.EntityType), 10)
		attrs["authorizedBy"] = hexAddr(taker.AuthorizedBy)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewTicketTakerCreatedEvent returns the payload for a new redemption
// authorization.
func NewTicketTakerCreatedEvent(key [32]byte, taker *TicketTaker) *types.Event {
	return newTicketTakerEvent(EventTypeTicketTakerCreated, key, taker)
}

// NewTicketTakerDisabledEvent returns the payload for a revoked redemption
// authorization.
func NewTicketTakerDisabledEvent(key [32]byte, taker *TicketTaker) *types.Event {
	return newTicketTakerEvent(EventTypeTicketTakerDisabled, key, taker)
}

// NewPurchaseCompletedEvent returns the payload emitted when a buy commits,
// covering both immediate and ticketed settlements.
func NewPurchaseCompletedEvent(key [32]byte, ticket *PurchaseTicket, quantity uint64, fee *big.Int) *types.Event {
	attrs := make(map[string]string)
	if ticket != nil {
		attrs["ticket"] = hexKey(key)
		attrs["product"] = hexKey(ticket.Product)
		attrs["snapshot"] = hexKey(ticket.Snapshot)
		attrs["buyer"] = hexAddr(ticket.Buyer)
		attrs["authority"] = hexAddr(ticket.Authority)
		attrs["escrow"] = hexAddr(ticket.Escrow)
		attrs["price"] = amountString(ticket.Price)
		attrs["quantity"] = strconv.FormatUint(quantity, 10)
		attrs["fee"] = amountString(fee)
		attrs["redeemed"] = strconv.FormatUint(ticket.Redeemed, 10)
		attrs["remaining"] = strconv.FormatUint(ticket.Remaining, 10)
	}
	return &types.Event{Type: EventTypePurchaseCompleted, Attributes: attrs}
}

func newRedemptionEvent(eventType string, key [32]byte, redemption *Redemption) *types.Event {
	attrs := make(map[string]string)
	if redemption != nil {
		attrs["redemption"] = hexKey(key)
		attrs["ticket"] = hexKey(redemption.Ticket)
		attrs["quantity"] = strconv.FormatUint(redemption.Quantity, 10)
		attrs["price"] = amountString(redemption.Price)
		attrs["status"] = strconv.FormatUint(uint64(redemption.Status), 10)
		if redemption.TakenBy != ([20]byte{}) {
			attrs["takenBy"] = hexAddr(redemption.TakenBy)
		}
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewRedemptionInitiatedEvent returns the payload for a new pending
// redemption.
func NewRedemptionInitiatedEvent(key [32]byte, redemption *Redemption) *types.Event {
	return newRedemptionEvent(EventTypeRedemptionInitiated, key, redemption)
}

// NewRedemptionSettledEvent returns the payload for a settled redemption.
func NewRedemptionSettledEvent(key [32]byte, redemption *Redemption) *types.Event {
	return newRedemptionEvent(EventTypeRedemptionSettled, key, redemption)
}

// NewRedemptionCancelledEvent returns the payload for a cancelled
// redemption.
func NewRedemptionCancelledEvent(key [32]byte, redemption *Redemption) *types.Event {
	return newRedemptionEvent(EventTypeRedemptionCancelled, key, redemption)
}

// NewTicketTransferredEvent returns the payload for a quantity transfer
// between tickets.
func NewTicketTransferredEvent(source, dest [32]byte, ticket *PurchaseTicket, quantity uint64) *types.Event {
	attrs := map[string]string{
		"source":      hexKey(source),
		"destination": hexKey(dest),
		"quantity":    strconv.FormatUint(quantity, 10),
	}
	if ticket != nil {
		attrs["authority"] = hexAddr(ticket.Authority)
		attrs["escrow"] = hexAddr(ticket.Escrow)
	}
	return &types.Event{Type: EventTypeTicketTransferred, Attributes: attrs}
}

// NewTicketCancelledEvent returns the payload for a buyer-side refund from a
// ticket's escrow.
func NewTicketCancelledEvent(key [32]byte, ticket *PurchaseTicket, quantity uint64, refundTo [20]byte) *types.Event {
	attrs := map[string]string{
		"ticket":   hexKey(key),
		"quantity": strconv.FormatUint(quantity, 10),
		"refundTo": hexAddr(refundTo),
	}
	if ticket != nil {
		attrs["remaining"] = strconv.FormatUint(ticket.Remaining, 10)
		attrs["price"] = amountString(ticket.Price)
	}
	return &types.Event{Type: EventTypeTicketCancelled, Attributes: attrs}
}
