package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"streamvault/native/streams"
	"streamvault/storage"
)

func testStreamRecord(id uint64) *streams.Stream {
	return &streams.Stream{
		ID:            id,
		Sender:        [20]byte{0x01},
		Recipient:     [20]byte{0x02},
		Token:         "SVT",
		TotalAmount:   big.NewInt(1000),
		StartTime:     1000,
		EndTime:       2000,
		ClaimedAmount: big.NewInt(250),
	}
}

func TestStreamPutGetRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	record := testStreamRecord(1)
	require.NoError(t, manager.StreamPut(record))

	got, ok, err := manager.StreamGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record.ID, got.ID)
	require.Equal(t, record.Sender, got.Sender)
	require.Equal(t, record.Recipient, got.Recipient)
	require.Equal(t, record.Token, got.Token)
	require.Zero(t, record.TotalAmount.Cmp(got.TotalAmount))
	require.Equal(t, record.StartTime, got.StartTime)
	require.Equal(t, record.EndTime, got.EndTime)
	require.Zero(t, record.ClaimedAmount.Cmp(got.ClaimedAmount))
	require.False(t, got.Canceled)

	_, ok, err = manager.StreamGet(2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStreamPutRejectsInvalidRecords(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	bad := testStreamRecord(1)
	bad.TotalAmount = big.NewInt(0)
	require.Error(t, manager.StreamPut(bad))

	bad = testStreamRecord(1)
	bad.EndTime = bad.StartTime
	require.Error(t, manager.StreamPut(bad))
}

func TestStreamNextIDSequence(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	for want := uint64(1); want <= 5; want++ {
		id, err := manager.StreamNextID()
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
	require.NoError(t, manager.Commit())

	// A fresh manager over the same database continues the sequence.
	next, err := NewManager(db).StreamNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(6), next)
}

func TestOverlayCommitAndReset(t *testing.T) {
	db := storage.NewMemDB()

	manager := NewManager(db)
	require.NoError(t, manager.StreamPut(testStreamRecord(1)))

	// Uncommitted writes are invisible to other managers.
	_, ok, err := NewManager(db).StreamGet(1)
	require.NoError(t, err)
	require.False(t, ok)

	manager.Reset()
	require.NoError(t, manager.Commit())
	_, ok, err = NewManager(db).StreamGet(1)
	require.NoError(t, err)
	require.False(t, ok, "reset writes must never reach the database")

	require.NoError(t, manager.StreamPut(testStreamRecord(1)))
	require.NoError(t, manager.Commit())
	_, ok, err = NewManager(db).StreamGet(1)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStreamVaultAddress(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	vault1, err := manager.StreamVaultAddress("SVT")
	require.NoError(t, err)
	vault2, err := manager.StreamVaultAddress("svt")
	require.NoError(t, err)
	require.Equal(t, vault1, vault2, "vault derivation must be canonical")

	other, err := manager.StreamVaultAddress("USDX")
	require.NoError(t, err)
	require.NotEqual(t, vault1, other, "vaults must be token specific")

	_, err = manager.StreamVaultAddress("bad token")
	require.Error(t, err)
}

func TestAccountRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	addr := []byte{0xAB, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13}
	require.NoError(t, manager.SetBalance(addr, "SVT", big.NewInt(1234)))
	require.NoError(t, manager.SetBalance(addr, "USDX", big.NewInt(9)))
	require.NoError(t, manager.Commit())

	restored := NewManager(db)
	svt, err := restored.Balance(addr, "SVT")
	require.NoError(t, err)
	require.Zero(t, svt.Cmp(big.NewInt(1234)))
	usdx, err := restored.Balance(addr, "USDX")
	require.NoError(t, err)
	require.Zero(t, usdx.Cmp(big.NewInt(9)))

	missing, err := restored.Balance(addr, "NONE")
	require.NoError(t, err)
	require.Zero(t, missing.Sign())
}

func TestGenesisAppliedFlag(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	applied, err := manager.GenesisApplied()
	require.NoError(t, err)
	require.False(t, applied)

	require.NoError(t, manager.SetGenesisApplied())
	require.NoError(t, manager.Commit())

	applied, err = NewManager(db).GenesisApplied()
	require.NoError(t, err)
	require.True(t, applied)
}
