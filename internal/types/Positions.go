/*

This file contains the types for depositor positions and the read-only claim
preview returned by the engine.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Position is one depositor's stake and settlement state within a pool.
// SettledRewardPerUnit is the snapshot of the pool accumulator taken at the
// depositor's last settlement (fresh deposit, claim, or withdraw).
type Position struct {
	Denom                string      `json:"denom"`
	Depositor            string      `json:"depositor"`
	StakedAmount         sdkmath.Int `json:"staked_amount"`
	SettledRewardPerUnit sdkmath.Int `json:"settled_reward_per_unit"`
}

// Empty reports whether the position holds no principal. Empty positions have
// no claimable reward and take no share of future distributions until a new
// deposit re-anchors their snapshot.
func (p *Position) Empty() bool {
	return p.StakedAmount.IsZero()
}

// ClaimPreview is the non-mutating view of what a claim would pay out.
type ClaimPreview struct {
	Denom        string      `json:"denom"`
	Depositor    string      `json:"depositor"`
	StakedAmount sdkmath.Int `json:"staked_amount"`
	OwedPerUnit  sdkmath.Int `json:"owed_per_unit"` // accumulator delta since last settlement, Scale domain
	Claimable    sdkmath.Int `json:"claimable"`     // whole token units of the pool's payout denom
	PayoutDenom  string      `json:"payout_denom"`
}
