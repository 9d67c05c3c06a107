package core

import (
	"context"
	"math/big"
	"sync"

	"streamvault/core/events"
	"streamvault/core/state"
	"streamvault/core/types"
	"streamvault/native/streams"
	"streamvault/storage"
)

// Node owns the persistent database, the stream engine, and the ordered
// append-only event log. Every state-changing operation is serialized under
// the state mutex and runs against a fresh state overlay: the overlay commits
// only when the engine call succeeds, so a rejected or failing call leaves
// persisted state untouched and emits nothing.
type Node struct {
	db storage.Database

	stateMu sync.Mutex
	nowFn   func() uint64

	eventMu sync.RWMutex
	log     []types.Event
	subs    map[uint64]chan types.Event
	nextSub uint64
}

// NewNode creates a node operating on the provided database.
func NewNode(db storage.Database) *Node {
	return &Node{
		db:   db,
		subs: make(map[uint64]chan types.Event),
	}
}

// SetNowFunc overrides the ledger clock supplied to the stream engine.
// Primarily intended for tests.
func (n *Node) SetNowFunc(now func() uint64) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.nowFn = now
}

// eventCollector buffers events emitted during a single engine call. The node
// appends them to its log only after the state overlay commits, keeping the
// event channel consistent with persisted state.
type eventCollector struct {
	collected []types.Event
}

func (c *eventCollector) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	c.collected = append(c.collected, *payload)
}

func (n *Node) newStreamEngine(manager *state.Manager, collector *eventCollector) *streams.Engine {
	engine := streams.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(collector)
	if n.nowFn != nil {
		engine.SetNowFunc(n.nowFn)
	}
	return engine
}

// publish appends committed events to the log in call order and fans them out
// to live subscribers. Slow subscribers are skipped rather than blocking the
// caller.
func (n *Node) publish(committed []types.Event) {
	if len(committed) == 0 {
		return
	}
	n.eventMu.Lock()
	defer n.eventMu.Unlock()
	for _, evt := range committed {
		n.log = append(n.log, evt)
		for _, ch := range n.subs {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// StreamCreate locks the deposit from the sender and persists a new stream.
func (n *Node) StreamCreate(sender, recipient [20]byte, token string, totalAmount *big.Int, startTime, endTime uint64) (*streams.Stream, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.db)
	collector := &eventCollector{}
	engine := n.newStreamEngine(manager, collector)
	stream, err := engine.Create(sender, recipient, token, totalAmount, startTime, endTime)
	if err != nil {
		manager.Reset()
		return nil, err
	}
	if err := manager.Commit(); err != nil {
		manager.Reset()
		return nil, err
	}
	n.publish(collector.collected)
	return stream, nil
}

// StreamClaim withdraws vested funds to the recipient.
func (n *Node) StreamClaim(id uint64, caller [20]byte, amount *big.Int) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.db)
	collector := &eventCollector{}
	engine := n.newStreamEngine(manager, collector)
	claimed, err := engine.Claim(id, caller, amount)
	if err != nil {
		manager.Reset()
		return nil, err
	}
	if err := manager.Commit(); err != nil {
		manager.Reset()
		return nil, err
	}
	n.publish(collector.collected)
	return claimed, nil
}

// StreamCancel terminates a stream, refunding the unvested remainder to the
// sender. Repeat cancels succeed silently without emitting events.
func (n *Node) StreamCancel(id uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.db)
	collector := &eventCollector{}
	engine := n.newStreamEngine(manager, collector)
	if err := engine.Cancel(id, caller); err != nil {
		manager.Reset()
		return err
	}
	if err := manager.Commit(); err != nil {
		manager.Reset()
		return err
	}
	n.publish(collector.collected)
	return nil
}

// StreamGet returns the stored stream record.
func (n *Node) StreamGet(id uint64) (*streams.Stream, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.db)
	collector := &eventCollector{}
	engine := n.newStreamEngine(manager, collector)
	return engine.Get(id)
}

// Balance reports the balance an address holds for a token. The symbol is
// normalized to its canonical form so lookups match stored balances.
func (n *Node) Balance(addr [20]byte, token string) (*big.Int, error) {
	normalized, err := streams.NormalizeToken(token)
	if err != nil {
		return nil, err
	}

	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.db)
	return manager.Balance(addr[:], normalized)
}

// Events returns a copy of the append-only event log in emission order.
func (n *Node) Events() []types.Event {
	n.eventMu.RLock()
	defer n.eventMu.RUnlock()
	out := make([]types.Event, len(n.log))
	copy(out, n.log)
	return out
}

// EventsSubscribe registers a live event subscription starting after the
// given log index. It returns the channel, a cancel function, and the backlog
// of events already emitted at or beyond the cursor.
func (n *Node) EventsSubscribe(ctx context.Context, cursor int) (<-chan types.Event, func(), []types.Event, error) {
	n.eventMu.Lock()
	if cursor < 0 || cursor > len(n.log) {
		cursor = len(n.log)
	}
	backlog := make([]types.Event, len(n.log)-cursor)
	copy(backlog, n.log[cursor:])
	ch := make(chan types.Event, 64)
	id := n.nextSub
	n.nextSub++
	n.subs[id] = ch
	n.eventMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.eventMu.Lock()
			delete(n.subs, id)
			n.eventMu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, backlog, nil
}
