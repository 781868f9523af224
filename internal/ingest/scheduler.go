// Package ingest drives the periodic mirror refresh: one full catalog pull
// at startup, then one per period, never two in flight.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"valorant-companion/internal/catalog"
	"valorant-companion/internal/config"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/store"

	"github.com/rs/zerolog"
)

// Source lists upstream catalog collections.
type Source interface {
	List(ctx context.Context, coll catalog.Collection) ([]catalog.Record, error)
	ListMerged(ctx context.Context, coll catalog.Collection) ([]catalog.Record, error)
}

// Mirror receives the refreshed snapshots.
type Mirror interface {
	Clear(ctx context.Context, coll catalog.Collection) error
	BulkUpsert(ctx context.Context, coll catalog.Collection, batch []catalog.Record) (*store.BulkResult, error)
}

// ValidationError flags an upstream batch that cannot be ingested. It aborts
// the step it occurred in, not the cycle.
type ValidationError struct {
	Collection catalog.Collection
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s batch: %s", e.Collection, e.Reason)
}

type schedulerState int

const (
	stateStopped schedulerState = iota
	stateStarting
	stateRunning
)

type Scheduler struct {
	source   Source
	mirror   Mirror
	apiKey   string
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	state  schedulerState
	cancel context.CancelFunc
}

func NewScheduler(source Source, mirror Mirror, cfg *config.Config, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		mirror:   mirror,
		apiKey:   cfg.PandascoreAPIKey,
		interval: constants.RefreshInterval,
		logger:   logger,
	}
}

// Start runs the initial cycle synchronously, surfacing its error, then
// launches the periodic loop. A scheduler that is already starting or
// running rejects the call.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != stateStopped {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.state = stateStarting
	s.mu.Unlock()

	s.logger.Info().Msg("running initial catalog refresh")
	if err := s.runCycle(ctx); err != nil {
		s.mu.Lock()
		s.state = stateStopped
		s.mu.Unlock()
		return fmt.Errorf("initial refresh failed: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.state = stateRunning
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(loopCtx)
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop cancels the periodic timer. An in-flight cycle runs to completion;
// Stop does not wait for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateStopped {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = stateStopped
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRunning
}

// loop is the only place cycles are launched from, so at most one cycle is
// ever in flight. A tick that fires mid-cycle waits for the current cycle.
func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Scheduled cycles are not hard-cancelled; Stop only
			// prevents the next tick.
			if err := s.runCycle(context.Background()); err != nil {
				s.logger.Error().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}

// runCycle refreshes the six collections in order. A failed step is logged
// and the cycle moves on; the step errors are joined into the return value.
func (s *Scheduler) runCycle(ctx context.Context) error {
	if s.apiKey == "" {
		return errors.New("pandascore credential missing")
	}

	start := time.Now()
	var errs []error
	step := func(coll catalog.Collection, fn func() error) {
		if err := fn(); err != nil {
			s.logger.Error().Err(err).Str("collection", string(coll)).Msg("refresh step failed")
			errs = append(errs, fmt.Errorf("%s: %w", coll, err))
		}
	}

	step(catalog.Teams, func() error { return s.refreshPlain(ctx, catalog.Teams, true, nil) })
	step(catalog.Tournaments, func() error { return s.refreshMerged(ctx, catalog.Tournaments, nil) })
	step(catalog.Series, func() error { return s.refreshMerged(ctx, catalog.Series, nil) })
	step(catalog.Players, func() error { return s.refreshPlain(ctx, catalog.Players, false, normalizePlayers) })
	step(catalog.Matches, func() error { return s.refreshMerged(ctx, catalog.Matches, normalizeMatches) })
	step(catalog.Leagues, func() error { return s.refreshPlain(ctx, catalog.Leagues, false, nil) })

	s.logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("failed_steps", len(errs)).
		Msg("catalog refresh finished")
	return errors.Join(errs...)
}

func (s *Scheduler) refreshPlain(ctx context.Context, coll catalog.Collection, requireNonEmpty bool, normalize func([]catalog.Record) []catalog.Record) error {
	recs, err := s.source.List(ctx, coll)
	if err != nil {
		return err
	}
	if requireNonEmpty && len(recs) == 0 {
		return &ValidationError{Collection: coll, Reason: "empty batch"}
	}
	if normalize != nil {
		recs = normalize(recs)
	}
	return s.replaceAll(ctx, coll, recs)
}

func (s *Scheduler) refreshMerged(ctx context.Context, coll catalog.Collection, normalize func([]catalog.Record) []catalog.Record) error {
	recs, err := s.source.ListMerged(ctx, coll)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return &ValidationError{Collection: coll, Reason: "empty batch"}
	}
	if normalize != nil {
		recs = normalize(recs)
	}
	return s.replaceAll(ctx, coll, recs)
}

// replaceAll clears the collection then writes the batch in chunks. A failed
// chunk is logged and skipped; later chunks still go through.
func (s *Scheduler) replaceAll(ctx context.Context, coll catalog.Collection, batch []catalog.Record) error {
	clearCtx, cancel := context.WithTimeout(ctx, constants.DefaultWriteTimeout)
	err := s.mirror.Clear(clearCtx, coll)
	cancel()
	if err != nil {
		return err
	}

	size := chunkSize(coll, len(batch))
	timeout := writeTimeout(coll)
	for start := 0; start < len(batch); start += size {
		end := start + size
		if end > len(batch) {
			end = len(batch)
		}
		writeCtx, cancel := context.WithTimeout(ctx, timeout)
		_, err := s.mirror.BulkUpsert(writeCtx, coll, batch[start:end])
		cancel()
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("collection", string(coll)).
				Int("chunk_start", start).
				Msg("chunk write failed, continuing")
		}
	}

	s.logger.Debug().Str("collection", string(coll)).Int("records", len(batch)).Msg("collection refreshed")
	return nil
}

func chunkSize(coll catalog.Collection, total int) int {
	switch coll {
	case catalog.Tournaments:
		return constants.TournamentChunkSize
	case catalog.Matches:
		return constants.MatchChunkSize
	}
	if total == 0 {
		return 1
	}
	return total
}

func writeTimeout(coll catalog.Collection) time.Duration {
	switch coll {
	case catalog.Tournaments:
		return constants.TournamentWriteTimeout
	case catalog.Matches:
		return constants.MatchWriteTimeout
	}
	return constants.DefaultWriteTimeout
}
