// internal/game/deck.go
package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/jason-s-yu/setgame/internal/models"
)

// DeckSize is the number of distinct cards: 3^4.
const DeckSize = models.NumValues * models.NumValues * models.NumValues * models.NumValues

// GenerateDeck returns every card exactly once, in a fixed order
// (shape, then color, then count, then shading).
func GenerateDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for shape := models.Shape(0); shape < models.NumValues; shape++ {
		for color := models.Color(0); color < models.NumValues; color++ {
			for count := models.Count(0); count < models.NumValues; count++ {
				for shading := models.Shading(0); shading < models.NumValues; shading++ {
					deck = append(deck, models.Card{
						Color:   color,
						Shape:   shape,
						Shading: shading,
						Count:   count,
					})
				}
			}
		}
	}
	return deck
}

// ShuffleDeck permutes deck in place into a uniformly random order.
func ShuffleDeck(deck []models.Card, r *rand.Rand) {
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// newRand returns a generator seeded from crypto/rand, falling back to the clock.
func newRand() *rand.Rand {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}
