package game

import (
	"testing"

	"github.com/jason-s-yu/setgame/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrValid(t *testing.T) {
	tests := []struct {
		name     string
		x, y, z  uint8
		expected bool
	}{
		{"all same", 0, 0, 0, true},
		{"all different", 0, 1, 2, true},
		{"all different shuffled", 2, 0, 1, true},
		{"first two equal", 0, 0, 1, false},
		{"outer two equal", 1, 2, 1, false},
		{"last two equal", 2, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, attrValid(tt.x, tt.y, tt.z))
		})
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		name     string
		cards    [3]models.Card
		expected bool
	}{
		{
			name:     "counts differ, rest same",
			cards:    [3]models.Card{validSet[0], validSet[1], validSet[2]},
			expected: true,
		},
		{
			name: "everything differs",
			cards: [3]models.Card{
				card(models.Green, models.Circle, models.Solid, models.One),
				card(models.Red, models.Square, models.Striped, models.Two),
				card(models.Blue, models.Triangle, models.Open, models.Three),
			},
			expected: true,
		},
		{
			name:     "two share a color",
			cards:    [3]models.Card{invalidSet[0], invalidSet[1], invalidSet[2]},
			expected: false,
		},
		{
			name: "two share a shape",
			cards: [3]models.Card{
				card(models.Green, models.Circle, models.Solid, models.One),
				card(models.Red, models.Circle, models.Striped, models.Two),
				card(models.Blue, models.Triangle, models.Open, models.Three),
			},
			expected: false,
		},
		{
			name: "two share a shading",
			cards: [3]models.Card{
				card(models.Green, models.Circle, models.Open, models.One),
				card(models.Red, models.Square, models.Open, models.Two),
				card(models.Blue, models.Triangle, models.Solid, models.Three),
			},
			expected: false,
		},
		{
			name: "two share a count",
			cards: [3]models.Card{
				card(models.Green, models.Circle, models.Solid, models.Two),
				card(models.Red, models.Square, models.Striped, models.Two),
				card(models.Blue, models.Triangle, models.Open, models.Three),
			},
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cards
			assert.Equal(t, tt.expected, IsSet(c[0], c[1], c[2]))
			// order does not matter
			assert.Equal(t, tt.expected, IsSet(c[2], c[0], c[1]))
		})
	}
}

func TestEveryPairCompletesToOneSet(t *testing.T) {
	deck := GenerateDeck()
	a, b := deck[0], deck[40]
	completions := 0
	for _, c := range deck {
		if c == a || c == b {
			continue
		}
		if IsSet(a, b, c) {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestParseRules(t *testing.T) {
	current := DefaultScoringRules()

	updated, err := ParseRules(map[string]interface{}{
		"matchBonus":      float64(4),
		"deselectPenalty": 2,
	}, current)
	require.NoError(t, err)
	assert.Equal(t, ScoringRules{MatchBonus: 4, MismatchPenalty: 5, DeselectPenalty: 2}, updated)
	assert.Equal(t, DefaultScoringRules(), current)

	_, err = ParseRules(map[string]interface{}{"matchBonus": "three"}, current)
	assert.Error(t, err)

	got, err := ParseRules(map[string]interface{}{"matchBonus": float64(1), "mismatchPenalty": -1}, current)
	assert.Error(t, err)
	assert.Equal(t, current, got)
}
