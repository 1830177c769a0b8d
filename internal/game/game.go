// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/setgame/internal/cache"
	"github.com/jason-s-yu/setgame/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// BoardCapacity is the number of slots on the board. The board never grows past it.
	BoardCapacity = 24

	// InitialBoardSize is how many slots are dealt at construction and on reset.
	InitialBoardSize = 12

	// SetSize is the number of cards evaluated together.
	SetSize = 3
)

var (
	// ErrInvalidIndex is returned when a board index falls outside [0, BoardCapacity).
	ErrInvalidIndex = errors.New("board index out of range")

	// ErrCardNotOnBoard means a selected card could not be located on the board.
	// The engine panics with it: selection and board have diverged.
	ErrCardNotOnBoard = errors.New("selected card not found on board")
)

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventCardSelected   GameEventType = "card_selected"
	EventCardDeselected GameEventType = "card_deselected"
	EventSetFound       GameEventType = "set_found"
	EventSetRejected    GameEventType = "set_rejected"
	EventCardsDealt     GameEventType = "cards_dealt"
	EventGameReset      GameEventType = "game_reset"
)

// ActionRoundEnd is logged by Reset with the totals of the round being discarded.
const ActionRoundEnd = "round_end"

// GameEvent holds data about an event that can be forwarded to the presentation layer.
type GameEvent struct {
	Type  GameEventType `json:"type"`
	Slots []int         `json:"slots,omitempty"`
	Cards []models.Card `json:"cards,omitempty"`
	Score int           `json:"score"`

	// Payload carries event specific extras, e.g. whether matched slots were refilled.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ActionPublisher receives the audit record of every state change.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}

// Option configures a SetGame at construction.
type Option func(*SetGame)

// WithRand sets the randomness source used for shuffling and drawing.
func WithRand(r *rand.Rand) Option {
	return func(g *SetGame) { g.rng = r }
}

// WithLogger sets the logger; entries carry the game ID.
func WithLogger(l *logrus.Logger) Option {
	return func(g *SetGame) { g.logger = l }
}

// WithPublisher enables the action log.
func WithPublisher(p ActionPublisher) Option {
	return func(g *SetGame) { g.publisher = p }
}

// WithScoringRules overrides the default +3 / -5 / -1 scoring.
func WithScoringRules(r ScoringRules) Option {
	return func(g *SetGame) { g.Rules = r }
}

// WithBroadcast installs the event hook.
func WithBroadcast(fn func(ev GameEvent)) Option {
	return func(g *SetGame) { g.BroadcastFn = fn }
}

// SetGame holds the entire state for a single game instance in memory.
// All exported methods are safe for concurrent use.
type SetGame struct {
	id    uuid.UUID
	Rules ScoringRules

	// BroadcastFn is invoked synchronously, with the game lock held, for every event.
	// It must not call back into the game. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	mu       sync.Mutex
	deck     []models.Card
	board    [BoardCapacity]*models.Card
	selected []models.Card
	score    int

	round       int
	setsFound   int
	mismatches  int
	actionIndex int // increments for each logged action, never reset

	rng       *rand.Rand
	logger    *logrus.Logger
	log       *logrus.Entry
	publisher ActionPublisher
	inflight  sync.WaitGroup
}

// NewSetGame builds a game with a freshly shuffled deck and 12 cards dealt.
func NewSetGame(opts ...Option) *SetGame {
	g := &SetGame{
		id:    uuid.New(),
		Rules: DefaultScoringRules(),
		round: 1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = newRand()
	}
	if g.logger == nil {
		g.logger = logrus.StandardLogger()
	}
	g.log = g.logger.WithField("game_id", g.id)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.deal()
	return g
}

// deal regenerates the deck and lays out the initial board. Assumes lock is held.
func (g *SetGame) deal() {
	g.deck = GenerateDeck()
	ShuffleDeck(g.deck, g.rng)

	g.board = [BoardCapacity]*models.Card{}
	g.selected = nil
	g.score = 0
	g.setsFound = 0
	g.mismatches = 0

	for i := 0; i < InitialBoardSize && len(g.deck) > 0; i++ {
		g.addCardToBoard(i)
	}
	g.log.WithFields(logrus.Fields{
		"round": g.round,
		"deck":  len(g.deck),
	}).Debug("dealt initial board")
}

// addCardToBoard takes a card from a random deck position and puts it in slot index.
// Callers check the deck is non-empty. Assumes lock is held.
func (g *SetGame) addCardToBoard(index int) models.Card {
	pos := g.rng.Intn(len(g.deck))
	card := g.deck[pos]
	g.deck = slices.Delete(g.deck, pos, pos+1)
	g.board[index] = &card
	return card
}

// ChooseCard toggles the card in slot index in or out of the selection.
// Picking an empty slot does nothing. When the third card is picked the
// selection is scored and cleared before ChooseCard returns.
func (g *SetGame) ChooseCard(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if index < 0 || index >= BoardCapacity {
		return fmt.Errorf("choose card at %d: %w", index, ErrInvalidIndex)
	}
	slot := g.board[index]
	if slot == nil {
		return nil
	}
	card := *slot

	if pos := slices.Index(g.selected, card); pos >= 0 {
		g.selected = slices.Delete(g.selected, pos, pos+1)
		g.score -= g.Rules.DeselectPenalty
		g.fireEvent(GameEvent{
			Type:  EventCardDeselected,
			Slots: []int{index},
			Cards: []models.Card{card},
			Score: g.score,
		})
		g.logAction(string(EventCardDeselected), map[string]interface{}{"slot": index, "card": card, "score": g.score})
		return nil
	}

	g.selected = append(g.selected, card)
	g.fireEvent(GameEvent{
		Type:  EventCardSelected,
		Slots: []int{index},
		Cards: []models.Card{card},
		Score: g.score,
	})
	g.logAction(string(EventCardSelected), map[string]interface{}{"slot": index, "card": card})

	if len(g.selected) == SetSize {
		g.evaluateSelection()
	}
	return nil
}

// evaluateSelection scores the three selected cards and clears the selection.
// Assumes lock is held.
func (g *SetGame) evaluateSelection() {
	triple := g.selected
	g.selected = nil

	if !IsSet(triple[0], triple[1], triple[2]) {
		g.score -= g.Rules.MismatchPenalty
		g.mismatches++
		g.fireEvent(GameEvent{
			Type:  EventSetRejected,
			Cards: triple,
			Score: g.score,
		})
		g.logAction(string(EventSetRejected), map[string]interface{}{"cards": triple, "score": g.score})
		return
	}

	// occupancy is taken before the matched cards leave the board
	occupied := g.occupiedCount()
	slots := make([]int, 0, SetSize)
	for _, c := range triple {
		slots = append(slots, g.slotOf(c))
	}

	refilled := false
	if len(g.deck) > 0 {
		if occupied > InitialBoardSize {
			for _, s := range slots {
				g.board[s] = nil
			}
		} else {
			refilled = true
			for _, s := range slots {
				if len(g.deck) == 0 {
					g.board[s] = nil
					continue
				}
				g.addCardToBoard(s)
			}
		}
	}

	g.score += g.Rules.MatchBonus
	g.setsFound++
	g.fireEvent(GameEvent{
		Type:    EventSetFound,
		Slots:   slots,
		Cards:   triple,
		Score:   g.score,
		Payload: map[string]interface{}{"refilled": refilled, "deckCount": len(g.deck)},
	})
	g.logAction(string(EventSetFound), map[string]interface{}{
		"cards":    triple,
		"slots":    slots,
		"refilled": refilled,
		"score":    g.score,
	})
}

// slotOf finds the board slot holding c. Assumes lock is held.
func (g *SetGame) slotOf(c models.Card) int {
	for i, slot := range g.board {
		if slot != nil && *slot == c {
			return i
		}
	}
	panic(fmt.Errorf("game %s: %w: %v", g.id, ErrCardNotOnBoard, c))
}

// occupiedCount assumes lock is held.
func (g *SetGame) occupiedCount() int {
	n := 0
	for _, slot := range g.board {
		if slot != nil {
			n++
		}
	}
	return n
}

// Add3MoreCards deals into the first empty slots, at most three of them.
// It does nothing when the board is full or the deck is empty, and returns
// how many cards were placed.
func (g *SetGame) Add3MoreCards() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.occupiedCount() >= BoardCapacity || len(g.deck) == 0 {
		return 0
	}

	var slots []int
	var cards []models.Card
	for i := range g.board {
		if len(slots) == SetSize || len(g.deck) == 0 {
			break
		}
		if g.board[i] == nil {
			cards = append(cards, g.addCardToBoard(i))
			slots = append(slots, i)
		}
	}

	g.fireEvent(GameEvent{
		Type:    EventCardsDealt,
		Slots:   slots,
		Cards:   cards,
		Score:   g.score,
		Payload: map[string]interface{}{"deckCount": len(g.deck)},
	})
	g.logAction(string(EventCardsDealt), map[string]interface{}{"slots": slots, "cards": cards})
	return len(slots)
}

// Reset discards the current round and starts over: new deck, 12 cards, score 0.
func (g *SetGame) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logAction(ActionRoundEnd, map[string]interface{}{
		"score":      g.score,
		"setsFound":  g.setsFound,
		"mismatches": g.mismatches,
		"deckCount":  len(g.deck),
	})

	g.round++
	g.deal()

	g.fireEvent(GameEvent{
		Type:    EventGameReset,
		Score:   g.score,
		Payload: map[string]interface{}{"round": g.round},
	})
	g.logAction(string(EventGameReset), map[string]interface{}{"deckCount": len(g.deck)})
}

// ID returns the game identifier.
func (g *SetGame) ID() uuid.UUID {
	return g.id
}

// Score returns the current score.
func (g *SetGame) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// Round returns the 1-based round number; it increments on every Reset.
func (g *SetGame) Round() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// DeckCount returns how many cards remain undealt.
func (g *SetGame) DeckCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.deck)
}

// OccupiedCount returns how many board slots hold a card.
func (g *SetGame) OccupiedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.occupiedCount()
}

// Board returns a copy of the board; nil entries are empty slots.
func (g *SetGame) Board() [BoardCapacity]*models.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boardCopy()
}

// boardCopy assumes lock is held.
func (g *SetGame) boardCopy() [BoardCapacity]*models.Card {
	var out [BoardCapacity]*models.Card
	for i, slot := range g.board {
		if slot != nil {
			c := *slot
			out[i] = &c
		}
	}
	return out
}

// Selection returns the currently selected cards in pick order.
func (g *SetGame) Selection() []models.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.selected)
}

// WaitForActions blocks until every action record logged so far has been handed
// to the publisher. The game lock is held while waiting, so moves made from
// other goroutines block until it returns.
func (g *SetGame) WaitForActions() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight.Wait()
}

// fireEvent assumes lock is held.
func (g *SetGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// logAction sends the action details to the configured publisher.
// Assumes lock is held by caller.
func (g *SetGame) logAction(actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.id,
		Round:         g.round,
		ActionIndex:   g.actionIndex,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	g.inflight.Add(1)
	go func(rec cache.GameActionRecord) {
		defer g.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.publisher.PublishGameAction(ctx, rec); err != nil {
			g.log.WithFields(logrus.Fields{
				"action_index": rec.ActionIndex,
				"action_type":  rec.ActionType,
			}).WithError(err).Warn("failed to publish game action")
		}
	}(record)
}
