// Package memory provides an in-process token bank implementing
// token.Service. It backs tests, examples, and single-process
// deployments that do not bridge to an external token system.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

// compile-time interface check
var _ token.Service = (*Bank)(nil)

// Bank is an in-memory multi-asset balance table with a dedicated
// escrow bucket per asset.
type Bank struct {
	mu sync.RWMutex

	// balances[asset][holder]
	balances map[string]map[string]types.Amount

	// escrow[asset]
	escrow map[string]types.Amount
}

// New creates an empty Bank.
func New() *Bank {
	return &Bank{
		balances: make(map[string]map[string]types.Amount),
		escrow:   make(map[string]types.Amount),
	}
}

// Mint credits amount of asset to holder out of thin air.
func (b *Bank) Mint(asset, holder string, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.credit(asset, holder, amount)
}

// Balance returns holder's balance of asset.
func (b *Bank) Balance(asset, holder string) types.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balances[asset][holder]
}

// Escrowed returns the total asset value currently held in escrow.
func (b *Bank) Escrowed(asset string) types.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.escrow[asset]
}

// Pull implements token.Service.
func (b *Bank) Pull(_ context.Context, asset, from string, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	have := b.balances[asset][from]
	if have.LessThan(amount) {
		return fmt.Errorf("pull %s of %s from %s: %w", amount, asset, from, token.ErrInsufficientFunds)
	}

	b.balances[asset][from] = have.Sub(amount)
	b.escrow[asset] = b.escrow[asset].Add(amount)
	return nil
}

// Push implements token.Service.
func (b *Bank) Push(_ context.Context, asset, to string, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	held := b.escrow[asset]
	if held.LessThan(amount) {
		return fmt.Errorf("push %s of %s to %s: %w", amount, asset, to, token.ErrTransferFailed)
	}

	b.escrow[asset] = held.Sub(amount)
	b.credit(asset, to, amount)
	return nil
}

// credit assumes b.mu is held.
func (b *Bank) credit(asset, holder string, amount types.Amount) {
	holders, ok := b.balances[asset]
	if !ok {
		holders = make(map[string]types.Amount)
		b.balances[asset] = holders
	}
	holders[holder] = holders[holder].Add(amount)
}
