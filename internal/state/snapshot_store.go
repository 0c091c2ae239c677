// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/poold/internal/types"
)

// SaveEngineSnapshot saves a complete engine state snapshot to the database.
func SaveEngineSnapshot(snapshot types.EngineSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	poolsJSON, err := json.Marshal(snapshot.Pools)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal pools: %w", err)
	}

	positionsJSON, err := json.Marshal(snapshot.Positions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal positions: %w", err)
	}

	query := `
		INSERT INTO engine_snapshots (snapshot_timestamp, pools, positions)
		VALUES ($1, $2, $3)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(query, snapshot.Timestamp, poolsJSON, positionsJSON).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save engine snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("pools", len(snapshot.Pools)).
		Int("positions", len(snapshot.Positions)).
		Msg("Engine snapshot saved to database")

	return snapshotID, nil
}

// LoadLatestSnapshot returns the most recent engine snapshot, or nil if none
// has been saved yet.
func LoadLatestSnapshot() (*types.EngineSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT snapshot_id, snapshot_timestamp, pools, positions
		FROM engine_snapshots
		ORDER BY snapshot_timestamp DESC, snapshot_id DESC
		LIMIT 1
	`

	var snapshot types.EngineSnapshot
	var poolsJSON, positionsJSON []byte

	err := DB.QueryRow(query).Scan(&snapshot.SnapshotID, &snapshot.Timestamp, &poolsJSON, &positionsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest engine snapshot: %w", err)
	}

	if err := json.Unmarshal(poolsJSON, &snapshot.Pools); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pools: %w", err)
	}
	if err := json.Unmarshal(positionsJSON, &snapshot.Positions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal positions: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshot.SnapshotID).
		Int("pools", len(snapshot.Pools)).
		Msg("Loaded latest engine snapshot")

	return &snapshot, nil
}

// Recorder persists engine events through SaveEvent. It satisfies the
// engine's Recorder interface.
type Recorder struct{}

// Record appends the event to the pool_events journal.
func (Recorder) Record(event types.PoolEvent) error {
	_, err := SaveEvent(event)
	return err
}
