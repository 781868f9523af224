// Package service answers catalog queries mirror-first, falling back to the
// upstream per call, and computes the small set of joins the client needs.
package service

import (
	"context"
	"errors"
	"fmt"

	"valorant-companion/internal/catalog"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/pandascore"
	"valorant-companion/internal/store"

	"github.com/rs/zerolog"
)

// Mirror is the read side of the local snapshot.
type Mirror interface {
	List(ctx context.Context, coll catalog.Collection, filter map[string]string) ([]catalog.Record, error)
	Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error)
}

// Upstream serves the same logical queries straight from the provider.
type Upstream interface {
	List(ctx context.Context, coll catalog.Collection) ([]catalog.Record, error)
	Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error)
}

type Catalog struct {
	mirror   Mirror
	upstream Upstream
	logger   zerolog.Logger
}

func NewCatalog(mirror Mirror, upstream Upstream, logger zerolog.Logger) *Catalog {
	return &Catalog{mirror: mirror, upstream: upstream, logger: logger}
}

// List returns the collection, filtered by shallow equality. The mirror is
// queried first; on any store failure the same logical query goes to the
// upstream, with the filter applied in memory. Fallback is per-call and not
// cached.
func (s *Catalog) List(ctx context.Context, coll catalog.Collection, filter map[string]string) ([]catalog.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	recs, mirrorErr := s.mirror.List(ctx, coll, filter)
	if mirrorErr == nil {
		return recs, nil
	}
	s.logger.Warn().
		Err(mirrorErr).
		Str("collection", string(coll)).
		Msg("mirror read failed, falling back to upstream")

	recs, err := s.upstream.List(ctx, coll)
	if err != nil {
		return nil, fmt.Errorf("mirror failed (%v), upstream fallback failed: %w", mirrorErr, err)
	}
	return filterRecords(recs, filter), nil
}

// Get returns one record by id. A mirror miss falls back to the upstream
// too: the mirror is a best-effort snapshot, not the source of truth. An
// upstream 404 surfaces as store.ErrNotFound.
func (s *Catalog) Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	rec, mirrorErr := s.mirror.Get(ctx, coll, id)
	if mirrorErr == nil {
		return rec, nil
	}
	if !errors.Is(mirrorErr, store.ErrNotFound) {
		s.logger.Warn().
			Err(mirrorErr).
			Str("collection", string(coll)).
			Int64("id", id).
			Msg("mirror read failed, falling back to upstream")
	}

	rec, err := s.upstream.Get(ctx, coll, id)
	if err != nil {
		var ue *pandascore.UpstreamError
		if errors.As(err, &ue) && ue.Status == 404 {
			return nil, store.ErrNotFound
		}
		if errors.Is(mirrorErr, store.ErrNotFound) {
			return nil, fmt.Errorf("upstream fallback failed: %w", err)
		}
		return nil, fmt.Errorf("mirror failed (%v), upstream fallback failed: %w", mirrorErr, err)
	}
	return rec, nil
}

// ListByStatus narrows a collection to one lifecycle status: upcoming is
// not_started, live is running, past is finished.
func (s *Catalog) ListByStatus(ctx context.Context, coll catalog.Collection, status string) ([]catalog.Record, error) {
	return s.List(ctx, coll, map[string]string{"status": status})
}

// TeamDetails joins a team with its roster, its upcoming and past matches,
// and the tournaments it appears in.
func (s *Catalog) TeamDetails(ctx context.Context, teamID int64) (catalog.Record, error) {
	team, err := s.Get(ctx, catalog.Teams, teamID)
	if err != nil {
		return nil, err
	}

	players, err := s.List(ctx, catalog.Players, nil)
	if err != nil {
		return nil, err
	}
	matches, err := s.List(ctx, catalog.Matches, nil)
	if err != nil {
		return nil, err
	}
	tournaments, err := s.List(ctx, catalog.Tournaments, nil)
	if err != nil {
		return nil, err
	}

	var roster []catalog.Record
	for _, p := range players {
		if id, ok := p.Sub("current_team").ID(); ok && id == teamID {
			roster = append(roster, p)
		}
	}

	var upcoming, past []catalog.Record
	for _, m := range matches {
		if !matchInvolves(m, teamID) {
			continue
		}
		switch m.Status() {
		case catalog.StatusNotStarted:
			upcoming = append(upcoming, m)
		case catalog.StatusFinished:
			past = append(past, m)
		}
	}

	// An absent teams[] means membership is unknown for that tournament,
	// so it simply never matches; it is not treated as "no teams".
	var entered []catalog.Record
	for _, t := range tournaments {
		if tournamentHasTeam(t, teamID) {
			entered = append(entered, t)
		}
	}

	details := team.Clone()
	details["players"] = emptyIfNil(roster)
	details["upcoming_matches"] = emptyIfNil(upcoming)
	details["past_matches"] = emptyIfNil(past)
	details["tournaments"] = emptyIfNil(entered)
	return details, nil
}

// PlayerDetails joins a player with the matches and tournaments they appear
// in.
func (s *Catalog) PlayerDetails(ctx context.Context, playerID int64) (catalog.Record, error) {
	player, err := s.Get(ctx, catalog.Players, playerID)
	if err != nil {
		return nil, err
	}

	matches, err := s.List(ctx, catalog.Matches, nil)
	if err != nil {
		return nil, err
	}
	tournaments, err := s.List(ctx, catalog.Tournaments, nil)
	if err != nil {
		return nil, err
	}

	var played []catalog.Record
	for _, m := range matches {
		if matchInvolves(m, playerID) {
			played = append(played, m)
		}
	}

	var entered []catalog.Record
	for _, t := range tournaments {
		if tournamentHasPlayer(t, playerID) {
			entered = append(entered, t)
		}
	}

	details := player.Clone()
	details["matches"] = emptyIfNil(played)
	details["tournaments"] = emptyIfNil(entered)
	return details, nil
}

func matchInvolves(m catalog.Record, id int64) bool {
	for _, entry := range m.Slice("opponents") {
		if oid, ok := entry.Sub("opponent").ID(); ok && oid == id {
			return true
		}
	}
	return false
}

func tournamentHasTeam(t catalog.Record, teamID int64) bool {
	for _, team := range t.Slice("teams") {
		if id, ok := team.ID(); ok && id == teamID {
			return true
		}
	}
	return false
}

func tournamentHasPlayer(t catalog.Record, playerID int64) bool {
	for _, team := range t.Slice("teams") {
		for _, p := range team.Slice("players") {
			if id, ok := p.ID(); ok && id == playerID {
				return true
			}
		}
	}
	return false
}

func filterRecords(recs []catalog.Record, filter map[string]string) []catalog.Record {
	if len(filter) == 0 {
		return recs
	}
	out := make([]catalog.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.MatchesFilter(filter) {
			out = append(out, rec)
		}
	}
	return out
}

func emptyIfNil(recs []catalog.Record) []catalog.Record {
	if recs == nil {
		return []catalog.Record{}
	}
	return recs
}
