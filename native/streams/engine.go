package streams

import (
	"math/big"
	"time"

	"streamvault/core/events"
	"streamvault/core/types"
)

type engineState interface {
	StreamPut(*Stream) error
	StreamGet(id uint64) (*Stream, bool, error)
	StreamNextID() (uint64, error)
	StreamVaultAddress(token string) ([20]byte, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type streamEvent struct {
	evt *types.Event
}

func (e streamEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e streamEvent) Event() *types.Event { return e.evt }

// Engine wires the payment-stream business logic with external state and event
// emitters. It is the sole mutator of stream records: callers supply an
// already-authenticated 20-byte address and the engine enforces role checks
// against the stored stream. All validation happens before any state mutation
// or balance movement so the surrounding host can roll back failed calls
// without observing partial effects.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a stream engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetNowFunc overrides the ledger clock used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(streamEvent{evt: event})
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) loadStream(id uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stream, ok, err := e.state.StreamGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStreamNotFound
	}
	return stream, nil
}

func (e *Engine) storeStream(s *Stream) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.StreamPut(s)
}

// transferToken moves an amount of the given token between two accounts. A
// zero amount is a no-op; the source balance is checked before either account
// is written.
func (e *Engine) transferToken(from, to [20]byte, token string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromBal := fromAcc.BalanceOf(normalized)
	if fromBal.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.SetBalance(normalized, new(big.Int).Sub(fromBal, amt))
	toAcc.SetBalance(normalized, new(big.Int).Add(toAcc.BalanceOf(normalized), amt))
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// Create locks totalAmount of token from the sender into the module vault and
// persists a new stream record unlocking linearly between startTime and
// endTime. It returns the stored stream carrying the freshly assigned id.
func (e *Engine) Create(sender, recipient [20]byte, token string, totalAmount *big.Int, startTime, endTime uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalizedToken, err := NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	amt := cloneBigInt(totalAmount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if endTime <= startTime {
		return nil, ErrInvalidTimeRange
	}
	vault, err := e.state.StreamVaultAddress(normalizedToken)
	if err != nil {
		return nil, err
	}
	if err := e.transferToken(sender, vault, normalizedToken, amt); err != nil {
		return nil, err
	}
	id, err := e.state.StreamNextID()
	if err != nil {
		return nil, err
	}
	stream := &Stream{
		ID:            id,
		Sender:        sender,
		Recipient:     recipient,
		Token:         normalizedToken,
		TotalAmount:   amt,
		StartTime:     startTime,
		EndTime:       endTime,
		ClaimedAmount: big.NewInt(0),
		Canceled:      false,
	}
	if err := e.storeStream(stream); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(stream))
	return stream.Clone(), nil
}

// Claim withdraws exactly amount from the stream's vested-but-unclaimed
// balance to the recipient. Claims are strict: the requested amount is either
// paid out in full or the call fails. Returns the claimed amount.
func (e *Engine) Claim(id uint64, caller [20]byte, amount *big.Int) (*big.Int, error) {
	stream, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	if stream.Canceled {
		return nil, ErrStreamCanceled
	}
	if caller != stream.Recipient {
		return nil, ErrUnauthorized
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInsufficientClaimable
	}
	claimable := new(big.Int).Sub(VestedAmount(stream, e.now()), stream.ClaimedAmount)
	if amt.Cmp(claimable) > 0 {
		return nil, ErrInsufficientClaimable
	}
	stream.ClaimedAmount = new(big.Int).Add(stream.ClaimedAmount, amt)
	if err := e.storeStream(stream); err != nil {
		return nil, err
	}
	vault, err := e.state.StreamVaultAddress(stream.Token)
	if err != nil {
		return nil, err
	}
	if err := e.transferToken(vault, stream.Recipient, stream.Token, amt); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(stream, amt))
	return amt, nil
}

// Cancel terminates the stream and refunds the not-yet-vested remainder to the
// sender. The vested-but-unclaimed portion is not paid out; it stays in the
// module vault once the stream is marked canceled. Canceling an already
// canceled stream is a no-op that emits no event, so retries are safe.
func (e *Engine) Cancel(id uint64, caller [20]byte) error {
	stream, err := e.loadStream(id)
	if err != nil {
		return err
	}
	if caller != stream.Sender {
		return ErrUnauthorized
	}
	if stream.Canceled {
		return nil
	}
	vested := VestedAmount(stream, e.now())
	refund := new(big.Int).Sub(stream.TotalAmount, vested)
	vault, err := e.state.StreamVaultAddress(stream.Token)
	if err != nil {
		return err
	}
	if err := e.transferToken(vault, stream.Sender, stream.Token, refund); err != nil {
		return err
	}
	stream.Canceled = true
	if err := e.storeStream(stream); err != nil {
		return err
	}
	e.emit(NewCanceledEvent(stream))
	return nil
}

// Get returns the stored stream record. Canceled and fully claimed streams
// remain queryable as historical records.
func (e *Engine) Get(id uint64) (*Stream, error) {
	stream, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	return stream.Clone(), nil
}
