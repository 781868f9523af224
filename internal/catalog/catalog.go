// Package catalog defines the six mirrored PandaScore collections and the
// schemaless record type they share. Records keep unknown upstream fields
// verbatim; typed access goes through the accessors in record.go.
package catalog

// Collection names one of the mirrored entity sets. The value doubles as the
// MongoDB collection name and the path segment on both the upstream and the
// backend HTTP surface.
type Collection string

const (
	Teams       Collection = "teams"
	Players     Collection = "players"
	Tournaments Collection = "tournaments"
	Series      Collection = "series"
	Matches     Collection = "matches"
	Leagues     Collection = "leagues"
)

// Collections returns every mirrored collection in ingestion order.
func Collections() []Collection {
	return []Collection{Teams, Tournaments, Series, Players, Matches, Leagues}
}

// Valid reports whether name is a known collection.
func Valid(name string) bool {
	switch Collection(name) {
	case Teams, Players, Tournaments, Series, Matches, Leagues:
		return true
	}
	return false
}

// HasVariants reports whether the upstream exposes the four list variants
// (all, past, running, upcoming) for this collection.
func (c Collection) HasVariants() bool {
	switch c {
	case Tournaments, Series, Matches:
		return true
	}
	return false
}

// Status values the upstream uses for tournaments, series, and matches.
// Anything outside this set passes through verbatim and is simply never
// matched by status filters.
const (
	StatusNotStarted = "not_started"
	StatusRunning    = "running"
	StatusFinished   = "finished"
)
