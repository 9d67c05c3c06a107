package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"streamvault/native/streams"
)

var (
	streamRecordPrefix = []byte("streams/record/")
	streamNextIDKey    = []byte("streams/next-id")
	streamVaultPrefix  = []byte("streams/vault/")
)

func streamRecordKey(id uint64) []byte {
	buf := make([]byte, len(streamRecordPrefix)+8)
	copy(buf, streamRecordPrefix)
	binary.BigEndian.PutUint64(buf[len(streamRecordPrefix):], id)
	return buf
}

type storedStream struct {
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

func newStoredStream(s *streams.Stream) *storedStream {
	if s == nil {
		return nil
	}
	total := big.NewInt(0)
	if s.TotalAmount != nil {
		total = new(big.Int).Set(s.TotalAmount)
	}
	claimed := big.NewInt(0)
	if s.ClaimedAmount != nil {
		claimed = new(big.Int).Set(s.ClaimedAmount)
	}
	return &storedStream{
		ID:            s.ID,
		Sender:        s.Sender,
		Recipient:     s.Recipient,
		Token:         s.Token,
		TotalAmount:   total,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		ClaimedAmount: claimed,
		Canceled:      s.Canceled,
	}
}

func (s *storedStream) toStream() (*streams.Stream, error) {
	if s == nil {
		return nil, fmt.Errorf("streams: nil storage record")
	}
	out := &streams.Stream{
		ID:            s.ID,
		Sender:        s.Sender,
		Recipient:     s.Recipient,
		Token:         s.Token,
		TotalAmount:   big.NewInt(0),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		ClaimedAmount: big.NewInt(0),
		Canceled:      s.Canceled,
	}
	if s.TotalAmount != nil {
		out.TotalAmount = new(big.Int).Set(s.TotalAmount)
	}
	if s.ClaimedAmount != nil {
		out.ClaimedAmount = new(big.Int).Set(s.ClaimedAmount)
	}
	return out, nil
}

// StreamPut validates and persists the stream record.
func (m *Manager) StreamPut(s *streams.Stream) error {
	sanitized, err := streams.SanitizeStream(s)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(newStoredStream(sanitized))
	if err != nil {
		return err
	}
	return m.put(streamRecordKey(sanitized.ID), encoded)
}

// StreamGet loads the stream record for the id. The boolean reports whether a
// record exists.
func (m *Manager) StreamGet(id uint64) (*streams.Stream, bool, error) {
	data, err := m.get(streamRecordKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedStream)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, err
	}
	stream, err := stored.toStream()
	if err != nil {
		return nil, false, err
	}
	return stream, true, nil
}

// StreamNextID atomically increments the persisted stream counter and returns
// the new value. Ids start at 1 and are never reused: the increment persists
// with the enclosing call, so a rolled-back creation never burns an id while a
// committed one can never hand it out again.
func (m *Manager) StreamNextID() (uint64, error) {
	data, err := m.get(streamNextIDKey)
	if err != nil {
		return 0, err
	}
	var counter uint64
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &counter); err != nil {
			return 0, err
		}
	}
	counter++
	encoded, err := rlp.EncodeToBytes(counter)
	if err != nil {
		return 0, err
	}
	if err := m.put(streamNextIDKey, encoded); err != nil {
		return 0, err
	}
	return counter, nil
}

// StreamVaultAddress derives the module vault address holding custodied funds
// for the given token. The address is the trailing 20 bytes of the keccak256
// hash of the vault prefix and canonical token symbol, so it is deterministic
// and has no known private key.
func (m *Manager) StreamVaultAddress(token string) ([20]byte, error) {
	normalized, err := streams.NormalizeToken(token)
	if err != nil {
		return [20]byte{}, err
	}
	buf := make([]byte, len(streamVaultPrefix)+len(normalized))
	copy(buf, streamVaultPrefix)
	copy(buf[len(streamVaultPrefix):], normalized)
	digest := ethcrypto.Keccak256(buf)
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr, nil
}
