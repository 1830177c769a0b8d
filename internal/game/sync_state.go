// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/setgame/internal/models"
)

// GameState is a point-in-time snapshot handed to the presentation layer.
type GameState struct {
	GameID        uuid.UUID      `json:"game_id"`
	Round         int            `json:"round"`
	Score         int            `json:"score"`
	DeckCount     int            `json:"deckCount"`
	Board         []*models.Card `json:"board"` // BoardCapacity entries, null for an empty slot
	Selection     []models.Card  `json:"selection"`
	SelectedSlots []int          `json:"selectedSlots"`
	SetsFound     int            `json:"setsFound"`
	Mismatches    int            `json:"mismatches"`
	CanDealMore   bool           `json:"canDealMore"`
}

// State generates a snapshot of the game.
func (g *SetGame) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	board := g.boardCopy()
	st := GameState{
		GameID:        g.id,
		Round:         g.round,
		Score:         g.score,
		DeckCount:     len(g.deck),
		Board:         board[:],
		Selection:     make([]models.Card, len(g.selected)),
		SelectedSlots: make([]int, 0, len(g.selected)),
		SetsFound:     g.setsFound,
		Mismatches:    g.mismatches,
		CanDealMore:   len(g.deck) > 0 && g.occupiedCount() < BoardCapacity,
	}
	copy(st.Selection, g.selected)
	for _, c := range g.selected {
		st.SelectedSlots = append(st.SelectedSlots, g.slotOf(c))
	}
	return st
}
