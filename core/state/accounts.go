package state

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"streamvault/core/types"
)

var accountPrefix = []byte("account/")

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return buf
}

// balanceEntry is the RLP-friendly representation of a single token balance.
// Account balance maps are flattened into a token-sorted list because RLP has
// no map encoding; sorting keeps the encoding deterministic.
type balanceEntry struct {
	Token  string
	Amount *big.Int
}

type storedAccount struct {
	Nonce    uint64
	Balances []balanceEntry
}

func newStoredAccount(acc *types.Account) *storedAccount {
	stored := &storedAccount{}
	if acc == nil {
		return stored
	}
	stored.Nonce = acc.Nonce
	tokens := make([]string, 0, len(acc.Balances))
	for token := range acc.Balances {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		amount := acc.Balances[token]
		if amount == nil {
			amount = big.NewInt(0)
		}
		stored.Balances = append(stored.Balances, balanceEntry{
			Token:  token,
			Amount: new(big.Int).Set(amount),
		})
	}
	return stored
}

func (s *storedAccount) toAccount() (*types.Account, error) {
	if s == nil {
		return nil, fmt.Errorf("account: nil storage record")
	}
	acc := types.NewAccount()
	acc.Nonce = s.Nonce
	for _, entry := range s.Balances {
		amount := entry.Amount
		if amount == nil {
			amount = big.NewInt(0)
		}
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("account: negative balance for %s", entry.Token)
		}
		acc.SetBalance(entry.Token, amount)
	}
	return acc, nil
}

// GetAccount loads the account stored for the address, returning a fresh empty
// account when none has been persisted yet.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	data, err := m.get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return types.NewAccount(), nil
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, err
	}
	return stored.toAccount()
}

// PutAccount persists the account record for the address.
func (m *Manager) PutAccount(addr []byte, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("account: nil account")
	}
	encoded, err := rlp.EncodeToBytes(newStoredAccount(acc))
	if err != nil {
		return err
	}
	return m.put(accountKey(addr), encoded)
}

// Balance returns the balance an address holds for the given token symbol.
func (m *Manager) Balance(addr []byte, token string) (*big.Int, error) {
	acc, err := m.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.BalanceOf(token), nil
}

// SetBalance overwrites the balance an address holds for the given token
// symbol. It is used by genesis allocation and tests.
func (m *Manager) SetBalance(addr []byte, token string, amount *big.Int) error {
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.SetBalance(token, amount)
	return m.PutAccount(addr, acc)
}
