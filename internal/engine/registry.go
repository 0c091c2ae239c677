/*

This file contains the pool registry surface: which denoms are currently
eligible for staking, and which reward denom each pool pays out. All three
operations are privileged.

*/

package engine

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/poold/internal/metrics"
	"github.com/elys-network/poold/internal/types"
)

// Allow marks a denom as eligible for staking, creating the pool on first
// use. Re-allowing a disabled pool re-enables it without touching balances.
func (e *Engine) Allow(caller, denom string) error {
	if !e.gate.IsPrivileged(caller) {
		return e.fail(types.EventAllow, fmt.Errorf("%w: %s", ErrUnauthorized, caller))
	}
	// sdk.NewCoin panics on malformed denoms, so reject them at the door.
	if err := sdktypes.ValidateDenom(denom); err != nil {
		return e.fail(types.EventAllow, fmt.Errorf("%w: %s: %v", ErrTokenNotAllowed, denom, err))
	}

	e.mu.Lock()
	pool, ok := e.pools[denom]
	if !ok {
		e.pools[denom] = types.NewPool(denom)
		e.poolLocks[denom] = &sync.Mutex{}
		e.positions[denom] = make(map[string]*types.Position)
		metrics.PoolsTracked.Set(float64(len(e.pools)))
		e.mu.Unlock()
	} else {
		// Re-enable under the pool lock so in-flight operations never see
		// the flag flip mid-operation.
		lock := e.poolLocks[denom]
		e.mu.Unlock()
		lock.Lock()
		pool.Allowed = true
		lock.Unlock()
	}

	e.logger.Info().Str("denom", denom).Str("caller", caller).Msg("Pool allowed")
	e.record(types.PoolEvent{
		Kind:   types.EventAllow,
		Denom:  denom,
		Actor:  caller,
		Amount: sdkmath.ZeroInt(),
	})
	return nil
}

// Disallow blocks new deposits, claims, withdrawals and distributions on a
// pool. Historical balances are untouched; the pool is never deleted.
func (e *Engine) Disallow(caller, denom string) error {
	if !e.gate.IsPrivileged(caller) {
		return e.fail(types.EventDisallow, fmt.Errorf("%w: %s", ErrUnauthorized, caller))
	}

	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return e.fail(types.EventDisallow, err)
	}
	pool.Allowed = false
	unlock()

	e.logger.Info().Str("denom", denom).Str("caller", caller).Msg("Pool disallowed")
	e.record(types.PoolEvent{
		Kind:   types.EventDisallow,
		Denom:  denom,
		Actor:  caller,
		Amount: sdkmath.ZeroInt(),
	})
	return nil
}

// SetRewardDenom sets the token in which rewards for this pool are paid. The
// accumulator is denominated in abstract reward units, realized in whichever
// denom is configured at claim time: changing this value between accrual and
// claim changes the payout currency of already-accrued units, not their
// count. Requires the pool to be allowed.
func (e *Engine) SetRewardDenom(caller, denom, rewardDenom string) error {
	if !e.gate.IsPrivileged(caller) {
		return e.fail(types.EventSetRewardDenom, fmt.Errorf("%w: %s", ErrUnauthorized, caller))
	}

	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return e.fail(types.EventSetRewardDenom, err)
	}
	defer unlock()

	if !pool.Allowed {
		return e.fail(types.EventSetRewardDenom, fmt.Errorf("%w: %s", ErrTokenNotAllowed, denom))
	}
	if err := sdktypes.ValidateDenom(rewardDenom); err != nil {
		return e.fail(types.EventSetRewardDenom, fmt.Errorf("%w: %s: %v", ErrTokenNotAllowed, rewardDenom, err))
	}
	pool.RewardDenom = rewardDenom

	e.logger.Info().
		Str("denom", denom).
		Str("rewardDenom", rewardDenom).
		Str("caller", caller).
		Msg("Pool reward denom updated")
	e.record(types.PoolEvent{
		Kind:        types.EventSetRewardDenom,
		Denom:       denom,
		Actor:       caller,
		Amount:      sdkmath.ZeroInt(),
		RewardDenom: rewardDenom,
	})
	return nil
}
