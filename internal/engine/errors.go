package engine

import "errors"

// Error definitions for zero-tolerance error handling. Every operation either
// completes all of its state updates and ledger calls or surfaces one of these
// with no state retained; there is no retry logic anywhere in the engine.
var (
	ErrUnauthorized         = errors.New("caller is not privileged")
	ErrTokenNotAllowed      = errors.New("token is not allowed for staking")
	ErrZeroAmount           = errors.New("amount must be non-zero")
	ErrNoStake              = errors.New("cannot distribute to a pool with no stake")
	ErrTransferFailed       = errors.New("token ledger transfer failed")
	ErrInsufficientPosition = errors.New("withdraw amount exceeds staked amount")
)
