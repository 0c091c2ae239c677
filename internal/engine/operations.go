/*

This file contains the pool engine operations: distribute, deposit, claim,
withdraw, the read-only claim preview, and the privileged sweep escape hatch.

The reward accounting follows the accumulated-reward-per-unit-stake ledger:
distribute folds a lump-sum injection into the pool accumulator in O(1), and
each depositor's owed amount is the accumulator delta since their last
settlement times their stake, rescaled out of the Scale fixed-point domain.
No operation ever iterates over depositors.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/poold/internal/types"
)

// Distribute injects rewardAmount of the pool's payout denom, pulled from the
// caller's ledger account into custody, and credits every current depositor
// proportionally to their stake by advancing the pool accumulator:
//
//	CumulativeRewardPerUnit += rewardAmount * Scale / TotalStaked  (floor)
//
// Floor division loses at most TotalStaked-1 units in the Scale domain per
// call; that dust is not tracked and is forfeited. Privileged callers only.
// A pool with no stake rejects distribution: the proportional split would be
// undefined.
func (e *Engine) Distribute(caller, denom string, rewardAmount sdkmath.Int) error {
	if !e.gate.IsPrivileged(caller) {
		return e.fail(types.EventDistribute, fmt.Errorf("%w: %s", ErrUnauthorized, caller))
	}

	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return e.fail(types.EventDistribute, err)
	}
	defer unlock()

	if !pool.Allowed {
		return e.fail(types.EventDistribute, fmt.Errorf("%w: %s", ErrTokenNotAllowed, denom))
	}
	if rewardAmount.IsNil() || rewardAmount.IsZero() {
		return e.fail(types.EventDistribute, fmt.Errorf("%w: distribution on %s", ErrZeroAmount, denom))
	}
	if pool.TotalStaked.IsZero() {
		return e.fail(types.EventDistribute, fmt.Errorf("%w: %s", ErrNoStake, denom))
	}

	// Fund the injection before any accounting moves.
	coin := sdktypes.NewCoin(pool.PayoutDenom(), rewardAmount)
	if err := e.ledger.TransferFrom(caller, e.custody, coin); err != nil {
		return e.fail(types.EventDistribute, fmt.Errorf("%w: funding distribution for %s: %v", ErrTransferFailed, denom, err))
	}

	perUnit := rewardAmount.Mul(types.Scale).Quo(pool.TotalStaked)
	pool.CumulativeRewardPerUnit = pool.CumulativeRewardPerUnit.Add(perUnit)

	e.logger.Info().
		Str("denom", denom).
		Str("rewardAmount", rewardAmount.String()).
		Str("perUnit", perUnit.String()).
		Str("totalStaked", pool.TotalStaked.String()).
		Msg("Reward distributed")
	e.record(types.PoolEvent{
		Kind:        types.EventDistribute,
		Denom:       denom,
		Actor:       caller,
		Amount:      rewardAmount,
		RewardDenom: pool.PayoutDenom(),
	})
	return nil
}

// Deposit pulls amount of the pool denom from the caller into custody and
// adds it to the caller's position. A fresh position is anchored to the
// current accumulator so it earns nothing from past distributions; an
// existing position is fully claimed first so the added stake cannot
// retroactively dilute or inflate already-accrued reward.
func (e *Engine) Deposit(caller, denom string, amount sdkmath.Int) error {
	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return e.fail(types.EventDeposit, err)
	}
	defer unlock()

	if !pool.Allowed {
		return e.fail(types.EventDeposit, fmt.Errorf("%w: %s", ErrTokenNotAllowed, denom))
	}
	if amount.IsNil() || amount.IsZero() {
		return e.fail(types.EventDeposit, fmt.Errorf("%w: deposit on %s", ErrZeroAmount, denom))
	}

	pos := e.position(pool, caller)

	// Settle any owed reward before the stake changes. Done before the
	// principal pull so a failed payout leaves the deposit untouched.
	if !pos.Empty() {
		if _, err := e.settleAndPay(pool, pos, caller); err != nil {
			return e.fail(types.EventDeposit, err)
		}
	}

	coin := sdktypes.NewCoin(denom, amount)
	if err := e.ledger.TransferFrom(caller, e.custody, coin); err != nil {
		return e.fail(types.EventDeposit, fmt.Errorf("%w: deposit of %s%s from %s: %v", ErrTransferFailed, amount, denom, caller, err))
	}

	if pos.Empty() {
		// Anchor: no back-dated reward for a fresh position.
		pos.SettledRewardPerUnit = pool.CumulativeRewardPerUnit
		pos.StakedAmount = amount
	} else {
		pos.StakedAmount = pos.StakedAmount.Add(amount)
	}
	pool.TotalStaked = pool.TotalStaked.Add(amount)

	e.logger.Info().
		Str("denom", denom).
		Str("depositor", caller).
		Str("amount", amount.String()).
		Str("staked", pos.StakedAmount.String()).
		Msg("Deposit settled")
	e.record(types.PoolEvent{
		Kind:   types.EventDeposit,
		Denom:  denom,
		Actor:  caller,
		Amount: amount,
	})
	return nil
}

// Claim settles the caller's accrued reward and pays it out in the pool's
// payout denom. Pays receiver if non-empty, else the caller. Returns the
// amount paid. A position with no stake always claims zero.
func (e *Engine) Claim(caller, denom, receiver string) (sdkmath.Int, error) {
	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return sdkmath.ZeroInt(), e.fail(types.EventClaim, err)
	}
	defer unlock()

	if !pool.Allowed {
		return sdkmath.ZeroInt(), e.fail(types.EventClaim, fmt.Errorf("%w: %s", ErrTokenNotAllowed, denom))
	}

	if receiver == "" {
		receiver = caller
	}
	pos := e.position(pool, caller)
	payout, err := e.settleAndPay(pool, pos, receiver)
	if err != nil {
		return sdkmath.ZeroInt(), e.fail(types.EventClaim, err)
	}

	e.logger.Info().
		Str("denom", denom).
		Str("depositor", caller).
		Str("receiver", receiver).
		Str("payout", payout.String()).
		Msg("Claim settled")
	e.record(types.PoolEvent{
		Kind:     types.EventClaim,
		Denom:    denom,
		Actor:    caller,
		Receiver: receiver,
		Amount:   payout,
	})
	return payout, nil
}

// Withdraw settles the caller's accrued reward, then returns amount of
// principal. The withdrawn amount must not exceed the staked amount; both the
// position and the pool total are decremented so totalStaked always equals
// the sum of position stakes.
func (e *Engine) Withdraw(caller, denom string, amount sdkmath.Int) error {
	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return e.fail(types.EventWithdraw, err)
	}
	defer unlock()

	if !pool.Allowed {
		return e.fail(types.EventWithdraw, fmt.Errorf("%w: %s", ErrTokenNotAllowed, denom))
	}
	if amount.IsNil() || amount.IsZero() {
		return e.fail(types.EventWithdraw, fmt.Errorf("%w: withdraw on %s", ErrZeroAmount, denom))
	}

	pos := e.position(pool, caller)
	if pos.StakedAmount.LT(amount) {
		return e.fail(types.EventWithdraw, fmt.Errorf("%w: %s staked %s%s, requested %s%s",
			ErrInsufficientPosition, caller, pos.StakedAmount, denom, amount, denom))
	}

	if _, err := e.settleAndPay(pool, pos, caller); err != nil {
		return e.fail(types.EventWithdraw, err)
	}

	coin := sdktypes.NewCoin(denom, amount)
	if err := e.ledger.Transfer(e.custody, caller, coin); err != nil {
		return e.fail(types.EventWithdraw, fmt.Errorf("%w: principal return of %s%s to %s: %v", ErrTransferFailed, amount, denom, caller, err))
	}

	pos.StakedAmount = pos.StakedAmount.Sub(amount)
	pool.TotalStaked = pool.TotalStaked.Sub(amount)

	e.logger.Info().
		Str("denom", denom).
		Str("depositor", caller).
		Str("amount", amount.String()).
		Str("remaining", pos.StakedAmount.String()).
		Msg("Withdrawal settled")
	e.record(types.PoolEvent{
		Kind:   types.EventWithdraw,
		Denom:  denom,
		Actor:  caller,
		Amount: amount,
	})
	return nil
}

// PreviewClaim reports what Claim would pay, without mutating state or
// touching the ledger. It shares the owed computation with the mutating path
// so the two can never disagree.
func (e *Engine) PreviewClaim(denom, depositor string) (types.ClaimPreview, error) {
	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return types.ClaimPreview{}, err
	}
	defer unlock()

	preview := types.ClaimPreview{
		Denom:        denom,
		Depositor:    depositor,
		StakedAmount: sdkmath.ZeroInt(),
		OwedPerUnit:  sdkmath.ZeroInt(),
		Claimable:    sdkmath.ZeroInt(),
		PayoutDenom:  pool.PayoutDenom(),
	}

	e.mu.Lock()
	pos, ok := e.positions[denom][depositor]
	e.mu.Unlock()
	if !ok {
		return preview, nil
	}

	preview.StakedAmount = pos.StakedAmount
	preview.OwedPerUnit, preview.Claimable = owed(pool, pos)
	return preview, nil
}

// Sweep force-transfers amount of an arbitrary denom out of pool custody,
// bypassing all accounting. Operator-controlled incident recovery only; it
// can strand depositor claims if pointed at an active pool's balance.
func (e *Engine) Sweep(caller, denom string, amount sdkmath.Int, to string) error {
	if !e.gate.IsPrivileged(caller) {
		return e.fail(types.EventSweep, fmt.Errorf("%w: %s", ErrUnauthorized, caller))
	}
	if amount.IsNil() || amount.IsZero() {
		return e.fail(types.EventSweep, fmt.Errorf("%w: sweep of %s", ErrZeroAmount, denom))
	}
	if err := sdktypes.ValidateDenom(denom); err != nil {
		return e.fail(types.EventSweep, fmt.Errorf("%w: %s: %v", ErrTokenNotAllowed, denom, err))
	}

	coin := sdktypes.NewCoin(denom, amount)
	if err := e.ledger.Transfer(e.custody, to, coin); err != nil {
		return e.fail(types.EventSweep, fmt.Errorf("%w: sweep of %s%s to %s: %v", ErrTransferFailed, amount, denom, to, err))
	}

	e.logger.Warn().
		Str("denom", denom).
		Str("amount", amount.String()).
		Str("to", to).
		Str("caller", caller).
		Msg("Custody balance swept")
	e.record(types.PoolEvent{
		Kind:     types.EventSweep,
		Denom:    denom,
		Actor:    caller,
		Receiver: to,
		Amount:   amount,
	})
	return nil
}

// owed computes the accumulator delta since the position's last settlement
// and the resulting claimable amount in whole token units. Both the mutating
// claim path and the read-only preview go through here. A position with no
// stake owes nothing regardless of how stale its snapshot is.
func owed(pool *types.Pool, pos *types.Position) (perUnit, claimable sdkmath.Int) {
	if pos.Empty() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt()
	}
	perUnit = pool.CumulativeRewardPerUnit.Sub(pos.SettledRewardPerUnit)
	claimable = pos.StakedAmount.Mul(perUnit).Quo(types.Scale)
	return perUnit, claimable
}

// settleAndPay advances the position's snapshot to the current accumulator
// and transfers the owed amount to receiver. The snapshot moves before the
// external call, so a re-entrant claim would see zero owed; if the transfer
// fails the snapshot is restored and the operation reports ErrTransferFailed
// with no state retained. Caller must hold the pool lock.
func (e *Engine) settleAndPay(pool *types.Pool, pos *types.Position, receiver string) (sdkmath.Int, error) {
	_, claimable := owed(pool, pos)

	previous := pos.SettledRewardPerUnit
	pos.SettledRewardPerUnit = pool.CumulativeRewardPerUnit

	if claimable.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	coin := sdktypes.NewCoin(pool.PayoutDenom(), claimable)
	if err := e.ledger.Transfer(e.custody, receiver, coin); err != nil {
		pos.SettledRewardPerUnit = previous
		return sdkmath.ZeroInt(), fmt.Errorf("%w: reward payout of %s%s to %s: %v",
			ErrTransferFailed, claimable, coin.Denom, receiver, err)
	}
	return claimable, nil
}
