// internal/game/game_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore keeps independent games by ID.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*SetGame
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*SetGame),
	}
}

func (s *GameStore) AddGame(game *SetGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID()] = game
}

// NewGame creates a game with opts and registers it.
func (s *GameStore) NewGame(opts ...Option) *SetGame {
	g := NewSetGame(opts...)
	s.AddGame(g)
	return g
}

func (s *GameStore) GetGame(id uuid.UUID) (*SetGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// Len returns the number of registered games.
func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
