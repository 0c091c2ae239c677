/*

This is a custom type for staking pools which contains all the accounting state
needed to attribute reward injections to depositors without iterating over them.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Scale is the fixed-point precision factor for the reward accumulator.
// CumulativeRewardPerUnit is denominated in reward-units * Scale per unit of stake,
// and the same factor rescales owed amounts back down at claim time.
var Scale = sdkmath.NewIntWithDecimal(1, 18)

type Pool struct {
	Denom                   string      `json:"denom"`                      // e.g., "uatom" — the stakeable token identifier
	Allowed                 bool        `json:"allowed"`                    // Whether deposits/claims/distributions are currently permitted
	RewardDenom             string      `json:"reward_denom,omitempty"`     // Token paid out as reward; empty means rewards pay in the staked token
	TotalStaked             sdkmath.Int `json:"total_staked"`               // Sum of all depositors' current staked amounts
	CumulativeRewardPerUnit sdkmath.Int `json:"cumulative_reward_per_unit"` // Monotone accumulator, scaled by Scale
}

// PayoutDenom returns the denom reward payouts are made in.
func (p *Pool) PayoutDenom() string {
	if p.RewardDenom != "" {
		return p.RewardDenom
	}
	return p.Denom
}

// NewPool returns a freshly allowed pool with zeroed accounting.
func NewPool(denom string) *Pool {
	return &Pool{
		Denom:                   denom,
		Allowed:                 true,
		TotalStaked:             sdkmath.ZeroInt(),
		CumulativeRewardPerUnit: sdkmath.ZeroInt(),
	}
}
