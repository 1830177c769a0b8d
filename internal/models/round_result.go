// internal/models/round_result.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoundResult is the final tally of one round of a game, written when the round is reset.
type RoundResult struct {
	GameID     uuid.UUID `json:"game_id"`
	Round      int       `json:"round"`
	Score      int       `json:"score"`
	SetsFound  int       `json:"sets_found"`
	Mismatches int       `json:"mismatches"`
	EndedAt    time.Time `json:"ended_at"`
}
