// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/setgame/internal/cache"
	"github.com/jason-s-yu/setgame/internal/models"
)

// SaveBatch persists a batch of action records and round results in one transaction.
// Re-delivered actions are ignored; a re-delivered round result overwrites the old row.
func (s *Store) SaveBatch(ctx context.Context, actions []cache.GameActionRecord, results []models.RoundResult) error {
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insertAction := `
			INSERT INTO game_actions (game_id, round, action_index, action_type, payload, ts)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (game_id, action_index) DO NOTHING
		`
		for _, a := range actions {
			payload, err := json.Marshal(a.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload of action %d: %w", a.ActionIndex, err)
			}
			ts := time.UnixMilli(a.Timestamp).UTC()
			if _, err := tx.Exec(ctx, insertAction, a.GameID, a.Round, a.ActionIndex, a.ActionType, payload, ts); err != nil {
				return err
			}
		}

		upsertResult := `
			INSERT INTO round_results (game_id, round, score, sets_found, mismatches, ended_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (game_id, round)
			DO UPDATE SET score=$3, sets_found=$4, mismatches=$5, ended_at=$6
		`
		for _, r := range results {
			if _, err := tx.Exec(ctx, upsertResult, r.GameID, r.Round, r.Score, r.SetsFound, r.Mismatches, r.EndedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx save batch: %w", err)
	}
	return nil
}

// TopScores returns the best finished rounds, highest score first.
func (s *Store) TopScores(ctx context.Context, limit int) ([]models.RoundResult, error) {
	q := `
		SELECT game_id, round, score, sets_found, mismatches, ended_at
		FROM round_results
		ORDER BY score DESC, ended_at ASC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	var out []models.RoundResult
	for rows.Next() {
		var r models.RoundResult
		if err := rows.Scan(&r.GameID, &r.Round, &r.Score, &r.SetsFound, &r.Mismatches, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("scan round result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
