package core

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"streamvault/native/streams"
	"streamvault/storage"
)

func newTestNode(t *testing.T) (*Node, [20]byte, [20]byte) {
	t.Helper()
	node := NewNode(storage.NewMemDB())
	sender := [20]byte{0x01}
	recipient := [20]byte{0x02}
	if err := node.ApplyGenesis([]GenesisAlloc{
		{Address: sender, Token: "SVT", Amount: big.NewInt(10_000)},
	}); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	node.SetNowFunc(func() uint64 { return 500 })
	return node, sender, recipient
}

func TestNodeStreamLifecycle(t *testing.T) {
	node, sender, recipient := newTestNode(t)

	stream, err := node.StreamCreate(sender, recipient, "SVT", big.NewInt(1000), 1000, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stream.ID != 1 {
		t.Fatalf("expected id 1, got %d", stream.ID)
	}
	if got, _ := node.Balance(sender, "SVT"); got.Cmp(big.NewInt(9_000)) != 0 {
		t.Fatalf("expected deposit locked, sender balance %s", got)
	}

	node.SetNowFunc(func() uint64 { return 1500 })
	claimed, err := node.StreamClaim(stream.ID, recipient, big.NewInt(500))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected 500 claimed, got %s", claimed)
	}
	if got, _ := node.Balance(recipient, "SVT"); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected recipient paid, balance %s", got)
	}

	if err := node.StreamCancel(stream.ID, sender); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got, _ := node.Balance(sender, "SVT"); got.Cmp(big.NewInt(9_500)) != 0 {
		t.Fatalf("expected unvested half refunded, sender balance %s", got)
	}

	stored, err := node.StreamGet(stream.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Canceled || stored.ClaimedAmount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected final state: %+v", stored)
	}

	log := node.Events()
	if len(log) != 3 {
		t.Fatalf("expected three events, got %d", len(log))
	}
	wantTypes := []string{
		streams.EventTypeStreamCreated,
		streams.EventTypeStreamClaimed,
		streams.EventTypeStreamCanceled,
	}
	for i, want := range wantTypes {
		if log[i].Type != want {
			t.Fatalf("event %d: want %s got %s", i, want, log[i].Type)
		}
		if log[i].Attribute("streamId") != "1" {
			t.Fatalf("event %d: unexpected streamId %q", i, log[i].Attribute("streamId"))
		}
	}
}

func TestNodeFailedCallLeavesNoTrace(t *testing.T) {
	node, sender, recipient := newTestNode(t)

	if _, err := node.StreamCreate(sender, recipient, "SVT", big.NewInt(0), 1000, 2000); !errors.Is(err, streams.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if _, err := node.StreamCreate(sender, recipient, "SVT", big.NewInt(50_000), 1000, 2000); !errors.Is(err, streams.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if len(node.Events()) != 0 {
		t.Fatalf("failed calls must emit nothing")
	}
	if got, _ := node.Balance(sender, "SVT"); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("failed calls must not move funds, balance %s", got)
	}

	// A failed creation rolls back the id counter along with everything else.
	stream, err := node.StreamCreate(sender, recipient, "SVT", big.NewInt(100), 1000, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stream.ID != 1 {
		t.Fatalf("expected id 1 after rolled-back attempts, got %d", stream.ID)
	}
}

func TestNodeCancelTwiceEmitsOnce(t *testing.T) {
	node, sender, recipient := newTestNode(t)

	stream, err := node.StreamCreate(sender, recipient, "SVT", big.NewInt(1000), 1000, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := node.StreamCancel(stream.ID, sender); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := node.StreamCancel(stream.ID, sender); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	log := node.Events()
	cancels := 0
	for _, evt := range log {
		if evt.Type == streams.EventTypeStreamCanceled {
			cancels++
		}
	}
	if cancels != 1 {
		t.Fatalf("expected a single cancel event, got %d", cancels)
	}
}

func TestNodeBalanceNormalizesTokenSymbol(t *testing.T) {
	node, sender, _ := newTestNode(t)

	upper, err := node.Balance(sender, "SVT")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	lower, err := node.Balance(sender, " svt ")
	if err != nil {
		t.Fatalf("balance with lowercase symbol: %v", err)
	}
	if upper.Cmp(big.NewInt(10_000)) != 0 || lower.Cmp(upper) != 0 {
		t.Fatalf("symbol casing changed the lookup: %s vs %s", upper, lower)
	}
	if _, err := node.Balance(sender, "not a token"); err == nil {
		t.Fatal("expected error for malformed symbol")
	}
}

func TestNodeGenesisAppliesOnce(t *testing.T) {
	db := storage.NewMemDB()
	node := NewNode(db)
	addr := [20]byte{0x09}
	allocs := []GenesisAlloc{{Address: addr, Token: "SVT", Amount: big.NewInt(77)}}

	if err := node.ApplyGenesis(allocs); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := node.ApplyGenesis(allocs); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if got, _ := node.Balance(addr, "SVT"); got.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("genesis must fund exactly once, balance %s", got)
	}
}

func TestNodeEventsSubscribeReplaysBacklog(t *testing.T) {
	node, sender, recipient := newTestNode(t)

	stream, err := node.StreamCreate(sender, recipient, "SVT", big.NewInt(1000), 1000, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	updates, cancel, backlog, err := node.EventsSubscribe(ctx, 0)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if len(backlog) != 1 || backlog[0].Type != streams.EventTypeStreamCreated {
		t.Fatalf("unexpected backlog: %+v", backlog)
	}

	if err := node.StreamCancel(stream.ID, sender); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	evt := <-updates
	if evt.Type != streams.EventTypeStreamCanceled {
		t.Fatalf("expected live cancel event, got %s", evt.Type)
	}
}
