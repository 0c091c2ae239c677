package ledger

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/poold/internal/logger"
)

// Bank is the in-process TokenLedger implementation used in sim mode and in
// tests. Balances live in a mutex-guarded map keyed by account, then denom.
// A remote node-backed implementation would satisfy the same interface.
type Bank struct {
	mu       sync.Mutex
	balances map[string]map[string]sdkmath.Int
	logger   zerolog.Logger
}

// NewBank returns an empty bank ledger.
func NewBank() *Bank {
	return &Bank{
		balances: make(map[string]map[string]sdkmath.Int),
		logger:   logger.GetForComponent("bank_ledger"),
	}
}

// Mint credits an account out of thin air. Funding helper for sim mode and
// tests; it is not part of the TokenLedger contract.
func (b *Bank) Mint(account string, coin sdktypes.Coin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, coin.Denom, coin.Amount)
}

// Transfer moves coin from one account to another.
func (b *Bank) Transfer(from, to string, coin sdktypes.Coin) error {
	return b.move(from, to, coin)
}

// TransferFrom moves coin out of from's account into to's account.
func (b *Bank) TransferFrom(from, to string, coin sdktypes.Coin) error {
	return b.move(from, to, coin)
}

// BalanceOf returns the current balance of an account for a denom.
func (b *Bank) BalanceOf(account, denom string) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	denoms, ok := b.balances[account]
	if !ok {
		return sdkmath.ZeroInt()
	}
	balance, ok := denoms[denom]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return balance
}

func (b *Bank) move(from, to string, coin sdktypes.Coin) error {
	if coin.Amount.IsNil() || !coin.Amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive, got %s", coin.Amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	available := sdkmath.ZeroInt()
	if denoms, ok := b.balances[from]; ok {
		if balance, ok := denoms[coin.Denom]; ok {
			available = balance
		}
	}
	if available.LT(coin.Amount) {
		return fmt.Errorf("insufficient funds: %s has %s%s, needs %s%s",
			from, available, coin.Denom, coin.Amount, coin.Denom)
	}

	b.balances[from][coin.Denom] = available.Sub(coin.Amount)
	b.credit(to, coin.Denom, coin.Amount)

	b.logger.Debug().
		Str("from", from).
		Str("to", to).
		Str("denom", coin.Denom).
		Str("amount", coin.Amount.String()).
		Msg("Ledger transfer executed")

	return nil
}

// credit assumes the mutex is held.
func (b *Bank) credit(account, denom string, amount sdkmath.Int) {
	denoms, ok := b.balances[account]
	if !ok {
		denoms = make(map[string]sdkmath.Int)
		b.balances[account] = denoms
	}
	balance, ok := denoms[denom]
	if !ok {
		balance = sdkmath.ZeroInt()
	}
	denoms[denom] = balance.Add(amount)
}
