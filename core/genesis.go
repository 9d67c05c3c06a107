package core

import (
	"fmt"
	"math/big"

	"streamvault/core/state"
	"streamvault/native/streams"
)

// GenesisAlloc funds a single account with an opening token balance.
type GenesisAlloc struct {
	Address [20]byte
	Token   string
	Amount  *big.Int
}

// ApplyGenesis writes the opening balances on first boot. The allocation is
// guarded by a persisted flag so restarting the node never funds accounts a
// second time.
func (n *Node) ApplyGenesis(allocs []GenesisAlloc) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.db)
	applied, err := manager.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, alloc := range allocs {
		token, err := streams.NormalizeToken(alloc.Token)
		if err != nil {
			return err
		}
		if alloc.Amount == nil || alloc.Amount.Sign() < 0 {
			return fmt.Errorf("genesis: allocation amount must be non-negative")
		}
		balance, err := manager.Balance(alloc.Address[:], token)
		if err != nil {
			return err
		}
		if err := manager.SetBalance(alloc.Address[:], token, new(big.Int).Add(balance, alloc.Amount)); err != nil {
			return err
		}
	}
	if err := manager.SetGenesisApplied(); err != nil {
		return err
	}
	if err := manager.Commit(); err != nil {
		manager.Reset()
		return err
	}
	return nil
}
