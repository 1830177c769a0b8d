// Package historian drains the engine action queue into PostgreSQL.
//
// Records are accumulated in memory and written in one transaction once the
// batch is full or the flush interval elapses, whichever comes first.
// round_end records additionally produce a RoundResult row.
package historian

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/setgame/internal/cache"
	"github.com/jason-s-yu/setgame/internal/game"
	"github.com/jason-s-yu/setgame/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrBacklogFull is returned by Append while a failed batch is waiting to be retried.
var ErrBacklogFull = errors.New("historian backlog full")

// Source yields raw queue entries. Pop returns nil, nil on timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Sink persists a flushed batch.
type Sink interface {
	SaveBatch(ctx context.Context, actions []cache.GameActionRecord, results []models.RoundResult) error
}

// Options tune batching.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	PopTimeout    time.Duration
}

// Service encapsulates the queue + DB logic for capturing game actions.
type Service struct {
	source Source
	sink   Sink
	log    *logrus.Entry
	opts   Options

	batchMu  sync.Mutex
	batch    []cache.GameActionRecord
	retrying bool // last flush failed; only flushLoop writes until it succeeds

	wg       sync.WaitGroup
	cancelFn context.CancelFunc
}

// NewService constructs a Service. Zero options fall back to 20 records / 500ms / 3s.
func NewService(source Source, sink Sink, opts Options, logger *logrus.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source: source,
		sink:   sink,
		log:    logger.WithField("component", "historian"),
		opts:   opts,
		batch:  make([]cache.GameActionRecord, 0, opts.BatchSize),
	}
}

// Start launches the reader and the periodic flusher. They run until ctx is
// cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancelFn = context.WithCancel(ctx)
	s.wg.Add(2)
	go s.readLoop(ctx)
	go s.flushLoop(ctx)
	s.log.Info("historian service started")
}

// Stop cancels the loops, waits for them and writes whatever is still buffered.
func (s *Service) Stop() {
	if s.cancelFn != nil {
		s.cancelFn()
	}
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.WithError(err).Error("final flush failed")
	}
	s.log.Info("historian service stopped")
}

// readLoop continuously pops entries from the queue.
func (s *Service) readLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		// leave entries in the queue while the sink is down
		if s.backlogged() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.opts.FlushInterval):
			}
			continue
		}
		data, err := s.source.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Error("pop failed")
			// avoid spinning on a dead connection
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.opts.FlushInterval):
			}
			continue
		}
		if data == nil {
			continue
		}

		rec, err := cache.DecodeGameAction(data)
		if err != nil {
			s.log.WithError(err).Warn("invalid action record")
			continue
		}
		if err := s.Append(ctx, rec); err != nil {
			s.log.WithError(err).WithField("action_index", rec.ActionIndex).Error("dropped action record")
		}
	}
}

// flushLoop flushes on every tick.
func (s *Service) flushLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Error("flush failed")
			}
		}
	}
}

// Append adds a record to the in-memory batch and flushes if the threshold is reached.
// While a failed batch is pending retry, Append never writes itself and refuses
// records once the batch is full.
func (s *Service) Append(ctx context.Context, rec cache.GameActionRecord) error {
	s.batchMu.Lock()
	if s.retrying && len(s.batch) >= s.opts.BatchSize {
		s.batchMu.Unlock()
		return ErrBacklogFull
	}
	s.batch = append(s.batch, rec)
	full := !s.retrying && len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		if err := s.Flush(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("flush failed")
		}
	}
	return nil
}

// backlogged reports whether the reader should stop popping until a retry succeeds.
func (s *Service) backlogged() bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.retrying && len(s.batch) >= s.opts.BatchSize
}

// Pending returns the number of buffered records.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// Flush writes the current batch in a single transaction. On failure the
// records are put back in front of the batch and the service switches to
// retry mode: the reader pauses at BatchSize and only the periodic flusher
// writes until a save succeeds.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return nil
	}
	pending := s.batch
	s.batch = make([]cache.GameActionRecord, 0, s.opts.BatchSize)
	s.batchMu.Unlock()

	var results []models.RoundResult
	for _, rec := range pending {
		if r, ok := RoundResultFromAction(rec); ok {
			results = append(results, r)
		}
	}

	if err := s.sink.SaveBatch(ctx, pending, results); err != nil {
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.retrying = true
		s.batchMu.Unlock()
		return fmt.Errorf("save %d actions: %w", len(pending), err)
	}

	s.batchMu.Lock()
	s.retrying = false
	s.batchMu.Unlock()

	s.log.WithFields(logrus.Fields{
		"actions": len(pending),
		"results": len(results),
	}).Info("flushed actions to DB")
	return nil
}

// RoundResultFromAction extracts the round tally carried by a round_end record.
func RoundResultFromAction(rec cache.GameActionRecord) (models.RoundResult, bool) {
	if rec.ActionType != game.ActionRoundEnd {
		return models.RoundResult{}, false
	}
	return models.RoundResult{
		GameID:     rec.GameID,
		Round:      rec.Round,
		Score:      payloadInt(rec.ActionPayload, "score"),
		SetsFound:  payloadInt(rec.ActionPayload, "setsFound"),
		Mismatches: payloadInt(rec.ActionPayload, "mismatches"),
		EndedAt:    time.UnixMilli(rec.Timestamp).UTC(),
	}, true
}

// payloadInt reads a number from a decoded JSON payload; JSON numbers arrive as float64.
func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
