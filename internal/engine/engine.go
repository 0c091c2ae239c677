/*

This file contains the pool engine core: construction with dependency
injection, the keyed pool/position state, per-pool locking, event recording,
and snapshot/restore. The operations themselves live in operations.go and the
registry surface in registry.go.

*/

package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/poold/internal/gate"
	"github.com/elys-network/poold/internal/ledger"
	"github.com/elys-network/poold/internal/logger"
	"github.com/elys-network/poold/internal/metrics"
	"github.com/elys-network/poold/internal/types"
)

// Recorder receives every event the engine emits. Recording is observational:
// a recorder failure is logged but never fails the operation that produced it.
type Recorder interface {
	Record(event types.PoolEvent) error
}

// Engine owns all pool and position state and orchestrates deposits,
// withdrawals, claims and distributions against the token ledger. All state
// is mutated only while holding the owning pool's lock, which doubles as the
// reentrancy guard around external ledger calls.
type Engine struct {
	logger   zerolog.Logger
	ledger   ledger.TokenLedger
	gate     gate.AccessGate
	recorder Recorder
	custody  string

	// mu guards the three maps; individual pool state is guarded by the
	// pool's own lock.
	mu        sync.Mutex
	pools     map[string]*types.Pool
	positions map[string]map[string]*types.Position
	poolLocks map[string]*sync.Mutex
}

// Config holds the configuration for creating a new Engine instance
type Config struct {
	Ledger         ledger.TokenLedger
	Gate           gate.AccessGate
	Recorder       Recorder
	CustodyAddress string
}

// NewEngine creates a new Engine instance with dependency injection
func NewEngine(cfg Config) (*Engine, error) {
	if err := validateEngineConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}

	e := &Engine{
		logger:    logger.GetForComponent("pool_engine"),
		ledger:    cfg.Ledger,
		gate:      cfg.Gate,
		recorder:  cfg.Recorder,
		custody:   cfg.CustodyAddress,
		pools:     make(map[string]*types.Pool),
		positions: make(map[string]map[string]*types.Position),
		poolLocks: make(map[string]*sync.Mutex),
	}

	e.logger.Info().
		Str("custody", e.custody).
		Msg("Pool engine created")

	return e, nil
}

func validateEngineConfig(cfg Config) error {
	if cfg.Ledger == nil {
		return fmt.Errorf("token ledger is required")
	}
	if cfg.Gate == nil {
		return fmt.Errorf("access gate is required")
	}
	if cfg.CustodyAddress == "" {
		return fmt.Errorf("custody address is required")
	}
	return nil
}

// lockPool returns the pool's record and its held lock. The caller must
// invoke the returned unlock function when done. Returns ErrTokenNotAllowed
// if the pool does not exist.
func (e *Engine) lockPool(denom string) (*types.Pool, func(), error) {
	e.mu.Lock()
	pool, ok := e.pools[denom]
	if !ok {
		e.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", ErrTokenNotAllowed, denom)
	}
	lock := e.poolLocks[denom]
	e.mu.Unlock()

	lock.Lock()
	return pool, lock.Unlock, nil
}

// position returns the depositor's position in a pool, creating an empty one
// if none exists yet. The caller must hold the pool lock.
func (e *Engine) position(pool *types.Pool, depositor string) *types.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	byDepositor, ok := e.positions[pool.Denom]
	if !ok {
		byDepositor = make(map[string]*types.Position)
		e.positions[pool.Denom] = byDepositor
	}
	pos, ok := byDepositor[depositor]
	if !ok {
		pos = &types.Position{
			Denom:                pool.Denom,
			Depositor:            depositor,
			StakedAmount:         sdkmath.ZeroInt(),
			SettledRewardPerUnit: pool.CumulativeRewardPerUnit,
		}
		byDepositor[depositor] = pos
	}
	return pos
}

// record emits an event to the recorder, if one is wired.
func (e *Engine) record(event types.PoolEvent) {
	event.Timestamp = time.Now().UTC()
	metrics.OperationsTotal.WithLabelValues(string(event.Kind), event.Denom).Inc()

	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(event); err != nil {
		e.logger.Error().Err(err).
			Str("kind", string(event.Kind)).
			Str("denom", event.Denom).
			Msg("Failed to record pool event")
	}
}

// fail counts an operation failure and returns err unchanged.
func (e *Engine) fail(kind types.EventKind, err error) error {
	metrics.OperationFailures.WithLabelValues(string(kind)).Inc()
	return err
}

// Snapshot returns a copy of all pools and positions, ordered
// deterministically for stable persistence and inspection. Each pool is
// copied under its own lock so an in-flight operation is either fully in or
// fully out of the snapshot. Lock order is always pool lock first, then mu.
func (e *Engine) Snapshot() types.EngineSnapshot {
	e.mu.Lock()
	denoms := make([]string, 0, len(e.pools))
	locks := make(map[string]*sync.Mutex, len(e.pools))
	for denom := range e.pools {
		denoms = append(denoms, denom)
		locks[denom] = e.poolLocks[denom]
	}
	e.mu.Unlock()
	sort.Strings(denoms)

	snapshot := types.EngineSnapshot{Timestamp: time.Now().UTC()}
	for _, denom := range denoms {
		locks[denom].Lock()
		e.mu.Lock()
		snapshot.Pools = append(snapshot.Pools, *e.pools[denom])

		depositors := make([]string, 0, len(e.positions[denom]))
		for depositor := range e.positions[denom] {
			depositors = append(depositors, depositor)
		}
		sort.Strings(depositors)
		for _, depositor := range depositors {
			snapshot.Positions = append(snapshot.Positions, *e.positions[denom][depositor])
		}
		e.mu.Unlock()
		locks[denom].Unlock()
	}

	return snapshot
}

// Restore replaces all engine state with the contents of a snapshot. Intended
// for startup recovery before the engine is serving operations.
func (e *Engine) Restore(snapshot types.EngineSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pools := make(map[string]*types.Pool, len(snapshot.Pools))
	positions := make(map[string]map[string]*types.Position)
	poolLocks := make(map[string]*sync.Mutex, len(snapshot.Pools))

	for i := range snapshot.Pools {
		pool := snapshot.Pools[i]
		pools[pool.Denom] = &pool
		poolLocks[pool.Denom] = &sync.Mutex{}
		positions[pool.Denom] = make(map[string]*types.Position)
	}
	for i := range snapshot.Positions {
		pos := snapshot.Positions[i]
		byDepositor, ok := positions[pos.Denom]
		if !ok {
			return fmt.Errorf("snapshot position references unknown pool %s", pos.Denom)
		}
		byDepositor[pos.Depositor] = &pos
	}

	e.pools = pools
	e.positions = positions
	e.poolLocks = poolLocks

	e.logger.Info().
		Int("pools", len(snapshot.Pools)).
		Int("positions", len(snapshot.Positions)).
		Msg("Engine state restored from snapshot")

	metrics.PoolsTracked.Set(float64(len(pools)))
	return nil
}

// Pools returns a copy of every pool record, sorted by denom.
func (e *Engine) Pools() []types.Pool {
	snapshot := e.Snapshot()
	return snapshot.Pools
}

// GetPool returns a copy of one pool record.
func (e *Engine) GetPool(denom string) (types.Pool, error) {
	pool, unlock, err := e.lockPool(denom)
	if err != nil {
		return types.Pool{}, err
	}
	defer unlock()
	return *pool, nil
}
