package constants

import "time"

const (
	// RefreshInterval is the ingestion cadence: one full catalog pull at
	// startup and then one per period.
	RefreshInterval = 5 * time.Minute
)

const (
	UpstreamRetries    = 3
	UpstreamRetryDelay = 1 * time.Second // delay before retry i is i * this
	ExternalAPITimeout = 10 * time.Second
)

const (
	TournamentChunkSize = 10
	MatchChunkSize      = 5

	TournamentWriteTimeout = 10 * time.Second
	MatchWriteTimeout      = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	ShutdownTimeout = 5 * time.Second
)

// MaxRequestBody caps POST bodies; full match batches are large.
const MaxRequestBody = 15 << 20
