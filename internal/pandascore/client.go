// Package pandascore is the typed HTTP client for the upstream esports
// catalog. All endpoints live under the Valorant title path and return JSON
// arrays (or a single object for get-by-id).
package pandascore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"valorant-companion/internal/catalog"
	"valorant-companion/internal/config"
	"valorant-companion/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
)

const titlePath = "/valorant"

// Variant list endpoints the upstream exposes for tournaments, series, and
// matches. The bare endpoint comes first so later variants win on dedupe.
var variants = []string{"", "/past", "/running", "/upcoming"}

// UpstreamError is returned once retries are exhausted on a non-2xx response.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

type Client struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:  cfg.PandascoreAPIKey,
		baseURL: cfg.PandascoreBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// List fetches the plain list endpoint of a collection.
func (c *Client) List(ctx context.Context, coll catalog.Collection) ([]catalog.Record, error) {
	return c.fetchList(ctx, titlePath+"/"+string(coll))
}

// Get fetches a single record by upstream id.
func (c *Client) Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error) {
	body, err := c.fetch(ctx, fmt.Sprintf("%s/%s/%d", titlePath, coll, id))
	if err != nil {
		return nil, err
	}
	var rec catalog.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode %s/%d: %w", coll, id, err)
	}
	return rec, nil
}

// ListMerged fetches all four variants of a collection concurrently and
// dedupes by id, later variants winning. Collections without variants fall
// back to the plain list.
func (c *Client) ListMerged(ctx context.Context, coll catalog.Collection) ([]catalog.Record, error) {
	if !coll.HasVariants() {
		return c.List(ctx, coll)
	}

	batches := make([][]catalog.Record, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, suffix := range variants {
		i, suffix := i, suffix
		g.Go(func() error {
			recs, err := c.fetchList(gctx, titlePath+"/"+string(coll)+suffix)
			if err != nil {
				return err
			}
			batches[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := catalog.DedupeByID(batches...)
	c.logger.Debug().
		Str("collection", string(coll)).
		Int("unique", len(merged)).
		Msg("merged variant endpoints")
	return merged, nil
}

func (c *Client) fetchList(ctx context.Context, path string) ([]catalog.Record, error) {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	var recs []catalog.Record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return recs, nil
}

// fetch issues an authenticated GET with up to three attempts; the delay
// before retry i is i seconds. Non-2xx responses (429 included) are
// retryable; a decode failure upstream of here is not.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= constants.UpstreamRetries; attempt++ {
		body, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		c.logger.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt).
			Msg("upstream call failed")

		if attempt == constants.UpstreamRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * constants.UpstreamRetryDelay):
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode()/100 != 2 {
		return nil, &UpstreamError{
			Status: resp.StatusCode(),
			Body:   string(resp.Body()),
		}
	}

	// Body() is pooled; copy before release.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
