// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/setgame/internal/models"
)

// ScoringRules holds the score deltas applied by the engine.
type ScoringRules struct {
	MatchBonus      int `json:"matchBonus"`      // points added when three selected cards form a set
	MismatchPenalty int `json:"mismatchPenalty"` // points removed when they do not
	DeselectPenalty int `json:"deselectPenalty"` // points removed when a selected card is picked again
}

// DefaultScoringRules returns the standard +3 / -5 / -1 scoring.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		MatchBonus:      3,
		MismatchPenalty: 5,
		DeselectPenalty: 1,
	}
}

// Update will update the rules with the new values provided.
// If a rule is not set, it will be ignored, and the old value will persist.
func (rules *ScoringRules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // JSON numbers decode as float64
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < 0 {
			return fmt.Errorf("%s must be non-negative", key)
		}
		*field = n
		return nil
	}

	if err := assignInt(&rules.MatchBonus, "matchBonus"); err != nil {
		return err
	}
	if err := assignInt(&rules.MismatchPenalty, "mismatchPenalty"); err != nil {
		return err
	}
	if err := assignInt(&rules.DeselectPenalty, "deselectPenalty"); err != nil {
		return err
	}
	return nil
}

// ParseRules applies a map of overrides on top of current. current is left untouched
// and returned as-is on error.
func ParseRules(rules map[string]interface{}, current ScoringRules) (ScoringRules, error) {
	updated := current
	if err := updated.Update(rules); err != nil {
		return current, err
	}
	return updated, nil
}

// IsSet reports whether three cards form a set: on every attribute the three
// values are either all equal or all different.
func IsSet(a, b, c models.Card) bool {
	return attrValid(uint8(a.Color), uint8(b.Color), uint8(c.Color)) &&
		attrValid(uint8(a.Shape), uint8(b.Shape), uint8(c.Shape)) &&
		attrValid(uint8(a.Shading), uint8(b.Shading), uint8(c.Shading)) &&
		attrValid(uint8(a.Count), uint8(b.Count), uint8(c.Count))
}

// attrValid is false exactly when two values match and the third differs.
func attrValid(x, y, z uint8) bool {
	if x == y && y == z {
		return true
	}
	return x != y && x != z && y != z
}
