package ledger

import (
	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

// TokenLedger defines the external value-transfer contract the pool engine
// settles against. This interface abstracts away the specific ledger
// implementation, allowing for different backends (in-process bank, remote
// node, etc.). Any failure must surface as an error; the engine treats a
// failed call as grounds to abort the whole operation.
type TokenLedger interface {
	// Transfer moves coin from one account to another on the caller's authority.
	Transfer(from, to string, coin sdktypes.Coin) error

	// TransferFrom moves coin out of from's account into to's account. The
	// engine uses this to pull deposits and reward injections into custody.
	TransferFrom(from, to string, coin sdktypes.Coin) error

	// BalanceOf returns the current balance of an account for a denom.
	BalanceOf(account, denom string) sdkmath.Int
}
