package streams

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var tokenSymbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)

// Stream captures the immutable definition and runtime accounting of a single
// payment stream. TotalAmount unlocks linearly to the recipient between
// StartTime and EndTime; ClaimedAmount tracks the cumulative payout so far.
type Stream struct {
	ID            uint64
	Sender        [20]byte
	Recipient     [20]byte
	Token         string
	TotalAmount   *big.Int
	StartTime     uint64
	EndTime       uint64
	ClaimedAmount *big.Int
	Canceled      bool
}

// Clone returns a deep copy of the stream object so callers can safely mutate
// the copy without affecting the stored instance.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	clone := *s
	if s.TotalAmount != nil {
		clone.TotalAmount = new(big.Int).Set(s.TotalAmount)
	} else {
		clone.TotalAmount = big.NewInt(0)
	}
	if s.ClaimedAmount != nil {
		clone.ClaimedAmount = new(big.Int).Set(s.ClaimedAmount)
	} else {
		clone.ClaimedAmount = big.NewInt(0)
	}
	return &clone
}

// NormalizeToken validates the provided token symbol and returns the canonical
// uppercase form. Symbols are 2-12 uppercase alphanumeric characters.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if !tokenSymbolPattern.MatchString(trimmed) {
		return "", fmt.Errorf("unsupported stream token: %s", symbol)
	}
	return trimmed, nil
}

// SanitizeStream validates and normalises the supplied stream record,
// returning a cloned instance with canonical token casing and non-nil amount
// fields. The function does not mutate the original value.
func SanitizeStream(s *Stream) (*Stream, error) {
	if s == nil {
		return nil, fmt.Errorf("nil stream")
	}
	clone := s.Clone()
	token, err := NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.TotalAmount.Sign() <= 0 {
		return nil, fmt.Errorf("stream total amount must be positive")
	}
	if clone.EndTime <= clone.StartTime {
		return nil, fmt.Errorf("stream end time must be after start time")
	}
	if clone.ClaimedAmount.Sign() < 0 {
		return nil, fmt.Errorf("stream claimed amount must be non-negative")
	}
	if clone.ClaimedAmount.Cmp(clone.TotalAmount) > 0 {
		return nil, fmt.Errorf("stream claimed amount exceeds total amount")
	}
	return clone, nil
}
