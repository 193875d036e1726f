package marketplace

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"twine/core/events"
	"twine/core/types"
)

// engineState is the narrow persistence surface the engine runs against. The
// hosting execution engine guarantees exclusive access to every account an
// operation declares and commits or discards all writes atomically; the
// engine itself only orders its checks so that no mutation precedes a
// failable validation.
type engineState interface {
	ConfigGet() (*Config, bool)
	ConfigPut(*Config) error
	StoreGet(id [32]byte) (*Store, bool)
	StorePut(*Store) error
	ProductGet(id [32]byte) (*Product, bool)
	ProductPut(*Product) error
	SnapshotGet(id [32]byte) (*ProductSnapshot, bool)
	SnapshotPut(id [32]byte, snapshot *ProductSnapshot) error
	SnapshotMetaGet(id [32]byte) (*SnapshotMeta, bool)
	SnapshotMetaPut(*SnapshotMeta) error
	TicketGet(id [32]byte) (*PurchaseTicket, bool)
	TicketPut(*PurchaseTicket) error
	RedemptionGet(id [32]byte) (*Redemption, bool)
	RedemptionPut(*Redemption) error
	RedemptionDelete(id [32]byte) error
	TicketTakerGet(id [32]byte) (*TicketTaker, bool)
	TicketTakerPut(*TicketTaker) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type marketplaceEvent struct {
	evt *types.Event
}

func (e marketplaceEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketplaceEvent) Event() *types.Event { return e.evt }

// Engine wires the marketplace business logic with external state and event
// emitters. All operations are synchronous, single-shot state transitions:
// they validate fully, then mutate, then emit.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a marketplace engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(marketplaceEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireState() error {
	if e == nil || e.state == nil {
		return fmt.Errorf("marketplace engine: state not configured")
	}
	return nil
}

func (e *Engine) loadConfig() (*Config, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	cfg, ok := e.state.ConfigGet()
	if !ok || cfg == nil || !cfg.Initialized {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

// balanceOf reads the current balance of addr without mutating anything.
func (e *Engine) balanceOf(addr [20]byte) (*big.Int, error) {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return cloneBigInt(ensureAccount(acc).Balance), nil
}

// transfer moves amount from one ledger account to another. A zero amount is
// a no-op; a negative amount is rejected outright.
func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	if err := e.requireState(); err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer amount", ErrInvalidInput)
	}
	// A self-transfer would debit and credit two copies of the same account;
	// the second write wins and the balance inflates. Reject it outright.
	if from == to {
		return fmt.Errorf("%w: transfer to self", ErrInvalidInput)
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// addQuantity adds two quantity counters with an explicit overflow check.
func addQuantity(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// totalPrice computes price * quantity.
func totalPrice(price *big.Int, quantity uint64) *big.Int {
	return new(big.Int).Mul(cloneBigInt(price), new(big.Int).SetUint64(quantity))
}

func isAuthority(caller, primary, secondary [20]byte) bool {
	if caller == ([20]byte{}) {
		return false
	}
	return caller == primary || caller == secondary
}

func validPrice(price *big.Int) bool {
	return price != nil && price.Sign() >= 0
}
