/*

This file contains the event journal types emitted by the pool engine for
off-process observers, plus the full-state snapshot used for persistence.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EventKind identifies what a PoolEvent records.
type EventKind string

const (
	EventDeposit        EventKind = "deposit"
	EventClaim          EventKind = "claim"
	EventWithdraw       EventKind = "withdraw"
	EventDistribute     EventKind = "distribute"
	EventSweep          EventKind = "sweep"
	EventAllow          EventKind = "allow"
	EventDisallow       EventKind = "disallow"
	EventSetRewardDenom EventKind = "set_reward_denom"
)

// PoolEvent is one journal entry. Amount carries the operation's token amount
// (zero for allow/disallow), Receiver is set for claims and sweeps.
type PoolEvent struct {
	EventID     int64       `json:"event_id,omitempty"` // Auto-incremented by DB
	Kind        EventKind   `json:"kind"`
	Denom       string      `json:"denom"`
	Actor       string      `json:"actor"`
	Receiver    string      `json:"receiver,omitempty"`
	Amount      sdkmath.Int `json:"amount"`
	RewardDenom string      `json:"reward_denom,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// EngineSnapshot is a full dump of engine accounting state, persisted so the
// engine can resume across restarts.
type EngineSnapshot struct {
	SnapshotID int64      `json:"snapshot_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Pools      []Pool     `json:"pools"`
	Positions  []Position `json:"positions"`
}
