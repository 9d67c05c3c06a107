package streams

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestNewCreatedEventAttributes(t *testing.T) {
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	stream := &Stream{
		ID:            42,
		Sender:        sender,
		Recipient:     recipient,
		Token:         "SVT",
		TotalAmount:   big.NewInt(1000),
		StartTime:     1000,
		EndTime:       2000,
		ClaimedAmount: big.NewInt(0),
	}
	evt := NewCreatedEvent(stream)
	if evt.Type != EventTypeStreamCreated {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	want := map[string]string{
		"streamId":    "42",
		"sender":      hex.EncodeToString(sender[:]),
		"recipient":   hex.EncodeToString(recipient[:]),
		"token":       "SVT",
		"totalAmount": "1000",
		"startTime":   "1000",
		"endTime":     "2000",
	}
	if len(evt.Attributes) != len(want) {
		t.Fatalf("unexpected attribute count: %v", evt.Attributes)
	}
	for key, value := range want {
		if evt.Attributes[key] != value {
			t.Fatalf("attribute %s: want %s got %s", key, value, evt.Attributes[key])
		}
	}
}

func TestNewClaimedEventAttributes(t *testing.T) {
	recipient := newTestAddress(0x02)
	stream := &Stream{ID: 7, Recipient: recipient, Token: "SVT"}
	evt := NewClaimedEvent(stream, big.NewInt(500))
	if evt.Type != EventTypeStreamClaimed {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	if evt.Attributes["streamId"] != "7" {
		t.Fatalf("unexpected streamId: %v", evt.Attributes)
	}
	if evt.Attributes["recipient"] != hex.EncodeToString(recipient[:]) {
		t.Fatalf("unexpected recipient: %v", evt.Attributes)
	}
	if evt.Attributes["amount"] != "500" {
		t.Fatalf("unexpected amount: %v", evt.Attributes)
	}
}

func TestNewCanceledEventAttributes(t *testing.T) {
	sender := newTestAddress(0x01)
	stream := &Stream{ID: 7, Sender: sender, Token: "SVT"}
	evt := NewCanceledEvent(stream)
	if evt.Type != EventTypeStreamCanceled {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	if evt.Attributes["streamId"] != "7" {
		t.Fatalf("unexpected streamId: %v", evt.Attributes)
	}
	if evt.Attributes["sender"] != hex.EncodeToString(sender[:]) {
		t.Fatalf("unexpected sender: %v", evt.Attributes)
	}
	if _, ok := evt.Attributes["recipient"]; ok {
		t.Fatalf("cancel event should not carry recipient")
	}
}

func TestEventConstructorsTolerateNil(t *testing.T) {
	if evt := NewCreatedEvent(nil); evt.Type != EventTypeStreamCreated || len(evt.Attributes) != 0 {
		t.Fatalf("nil created event malformed: %+v", evt)
	}
	if evt := NewClaimedEvent(nil, nil); evt.Type != EventTypeStreamClaimed || len(evt.Attributes) != 0 {
		t.Fatalf("nil claimed event malformed: %+v", evt)
	}
	if evt := NewCanceledEvent(nil); evt.Type != EventTypeStreamCanceled || len(evt.Attributes) != 0 {
		t.Fatalf("nil canceled event malformed: %+v", evt)
	}
}
