package state

import "github.com/ethereum/go-ethereum/rlp"

var genesisAppliedKey = []byte("genesis/applied")

// GenesisApplied reports whether genesis allocation has already been written
// to this database.
func (m *Manager) GenesisApplied() (bool, error) {
	data, err := m.get(genesisAppliedKey)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	var applied bool
	if err := rlp.DecodeBytes(data, &applied); err != nil {
		return false, err
	}
	return applied, nil
}

// SetGenesisApplied marks genesis allocation as done so restarts do not fund
// accounts twice.
func (m *Manager) SetGenesisApplied() error {
	encoded, err := rlp.EncodeToBytes(true)
	if err != nil {
		return err
	}
	return m.put(genesisAppliedKey, encoded)
}
