// ./internal/state/events_store.go
package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/poold/internal/types"
)

// SaveEvent appends one pool event to the journal and returns its DB id.
func SaveEvent(event types.PoolEvent) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO pool_events (event_timestamp, kind, denom, actor, receiver, amount, reward_denom)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING event_id;
	`

	var eventID int64
	err := DB.QueryRow(
		query,
		event.Timestamp, string(event.Kind), event.Denom, event.Actor,
		nullable(event.Receiver), event.Amount.String(), nullable(event.RewardDenom),
	).Scan(&eventID)

	if err != nil {
		return 0, fmt.Errorf("failed to save pool event: %w", err)
	}

	log.Debug().
		Int64("event_id", eventID).
		Str("kind", string(event.Kind)).
		Str("denom", event.Denom).
		Msg("Pool event saved to database")

	return eventID, nil
}

// GetRecentEvents retrieves recent journal entries, newest first. An empty
// denom returns events across all pools.
func GetRecentEvents(denom string, limit int) ([]types.PoolEvent, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	query := `
		SELECT event_id, event_timestamp, kind, denom, actor, receiver, amount, reward_denom
		FROM pool_events
		WHERE ($1 = '' OR denom = $1)
		ORDER BY event_timestamp DESC, event_id DESC
		LIMIT $2
	`

	rows, err := DB.Query(query, denom, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent pool events")
		return nil, fmt.Errorf("failed to query recent pool events: %w", err)
	}
	defer rows.Close()

	var events []types.PoolEvent
	for rows.Next() {
		var event types.PoolEvent
		var kind, amountStr string
		var receiver, rewardDenom sql.NullString

		err := rows.Scan(
			&event.EventID, &event.Timestamp, &kind, &event.Denom,
			&event.Actor, &receiver, &amountStr, &rewardDenom,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan pool event row")
			continue // Skip this row and continue with others
		}

		amount, ok := sdkmath.NewIntFromString(amountStr)
		if !ok {
			log.Error().Str("amount", amountStr).Msg("Invalid amount in pool event row")
			continue
		}

		event.Kind = types.EventKind(kind)
		event.Amount = amount
		event.Receiver = receiver.String
		event.RewardDenom = rewardDenom.String
		events = append(events, event)
	}

	return events, rows.Err()
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
