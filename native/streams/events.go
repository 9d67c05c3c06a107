package streams

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"streamvault/core/types"
)

const (
	EventTypeStreamCreated  = "streams.created"
	EventTypeStreamClaimed  = "streams.claimed"
	EventTypeStreamCanceled = "streams.canceled"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// stream. It carries every immutable field plus the assigned id.
func NewCreatedEvent(s *Stream) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeStreamCreated, Attributes: attrs}
	}
	sanitized, err := SanitizeStream(s)
	if err != nil {
		return &types.Event{Type: EventTypeStreamCreated, Attributes: attrs}
	}
	attrs["streamId"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["sender"] = hex.EncodeToString(sanitized.Sender[:])
	attrs["recipient"] = hex.EncodeToString(sanitized.Recipient[:])
	attrs["token"] = sanitized.Token
	attrs["totalAmount"] = sanitized.TotalAmount.String()
	attrs["startTime"] = strconv.FormatUint(sanitized.StartTime, 10)
	attrs["endTime"] = strconv.FormatUint(sanitized.EndTime, 10)
	return &types.Event{Type: EventTypeStreamCreated, Attributes: attrs}
}

// NewClaimedEvent returns the canonical event payload emitted when the
// recipient withdraws vested funds.
func NewClaimedEvent(s *Stream, amount *big.Int) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeStreamClaimed, Attributes: attrs}
	}
	attrs["streamId"] = strconv.FormatUint(s.ID, 10)
	attrs["recipient"] = hex.EncodeToString(s.Recipient[:])
	if amount != nil {
		attrs["amount"] = amount.String()
	} else {
		attrs["amount"] = "0"
	}
	return &types.Event{Type: EventTypeStreamClaimed, Attributes: attrs}
}

// NewCanceledEvent returns the canonical event payload emitted when the sender
// cancels a stream.
func NewCanceledEvent(s *Stream) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeStreamCanceled, Attributes: attrs}
	}
	attrs["streamId"] = strconv.FormatUint(s.ID, 10)
	attrs["sender"] = hex.EncodeToString(s.Sender[:])
	return &types.Event{Type: EventTypeStreamCanceled, Attributes: attrs}
}
