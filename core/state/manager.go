package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"streamvault/storage"
)

// Manager provides typed read/write access to the node's persisted state. All
// writes are buffered in an in-memory overlay until Commit flushes them to the
// backing database; Reset discards the overlay. The node runs every
// state-changing operation against a fresh overlay so a failing call leaves
// the persisted state byte-for-byte unchanged.
type Manager struct {
	db      storage.Database
	overlay map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string][]byte),
	}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// get reads the hashed key, preferring uncommitted overlay writes. A missing
// key yields (nil, nil).
func (m *Manager) get(rawKey []byte) ([]byte, error) {
	key := kvKey(rawKey)
	if data, ok := m.overlay[string(key)]; ok {
		return data, nil
	}
	exists, err := m.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return m.db.Get(key)
}

// put records the write in the overlay; nothing reaches the database until
// Commit.
func (m *Manager) put(rawKey, value []byte) error {
	m.overlay[string(kvKey(rawKey))] = append([]byte(nil), value...)
	return nil
}

// Commit flushes all buffered writes to the backing database.
func (m *Manager) Commit() error {
	for key, value := range m.overlay {
		if err := m.db.Put([]byte(key), value); err != nil {
			return err
		}
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Reset discards all buffered writes, rolling the manager back to the last
// committed state.
func (m *Manager) Reset() {
	m.overlay = make(map[string][]byte)
}
