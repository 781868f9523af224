package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"valorant-companion/internal/catalog"
	"valorant-companion/internal/service"
	"valorant-companion/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the Mongo mirror, wired under the
// real read service so handler tests exercise the full read path.
type memStore struct {
	data    map[catalog.Collection]map[int64]catalog.Record
	listErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[catalog.Collection]map[int64]catalog.Record{}}
}

func (m *memStore) BulkUpsert(ctx context.Context, coll catalog.Collection, batch []catalog.Record) (*store.BulkResult, error) {
	if m.data[coll] == nil {
		m.data[coll] = map[int64]catalog.Record{}
	}
	var res store.BulkResult
	for _, rec := range batch {
		id, ok := rec.ID()
		if !ok {
			continue
		}
		doc := rec.Clone()
		doc["modified_at"] = time.Now().UTC()
		if _, exists := m.data[coll][id]; exists {
			res.Matched++
			res.Modified++
		} else {
			res.Upserted++
		}
		m.data[coll][id] = doc
	}
	return &res, nil
}

func (m *memStore) Clear(ctx context.Context, coll catalog.Collection) error {
	m.data[coll] = map[int64]catalog.Record{}
	return nil
}

func (m *memStore) List(ctx context.Context, coll catalog.Collection, filter map[string]string) ([]catalog.Record, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []catalog.Record{}
	for _, rec := range m.data[coll] {
		if rec.MatchesFilter(filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error) {
	if rec, ok := m.data[coll][id]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

type deadUpstream struct{}

func (deadUpstream) List(ctx context.Context, coll catalog.Collection) ([]catalog.Record, error) {
	return nil, errors.New("upstream unavailable")
}

func (deadUpstream) Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error) {
	return nil, errors.New("upstream unavailable")
}

func newTestServer(t *testing.T) (*memStore, http.Handler) {
	t.Helper()
	mem := newMemStore()
	reader := service.NewCatalog(mem, deadUpstream{}, zerolog.Nop())
	return mem, New(reader, mem, zerolog.Nop()).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []catalog.Record {
	t.Helper()
	var recs []catalog.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	return recs
}

func TestUpsertThenListTeams(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodPost, "/api/teams", []catalog.Record{
		{"id": 1, "name": "Sentinels"},
		{"id": 2, "name": "LOUD"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var posted struct {
		Success bool              `json:"success"`
		Result  *store.BulkResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &posted))
	assert.True(t, posted.Success)
	assert.Equal(t, int64(2), posted.Result.Upserted)

	teams := decodeList(t, doJSON(t, h, http.MethodGet, "/api/teams", nil))
	require.Len(t, teams, 2)
	for _, team := range teams {
		assert.Contains(t, team, "modified_at")
	}

	// Re-posting one team updates it in place.
	rr = doJSON(t, h, http.MethodPost, "/api/teams", []catalog.Record{
		{"id": 1, "name": "Sentinels NA"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	teams = decodeList(t, doJSON(t, h, http.MethodGet, "/api/teams", nil))
	require.Len(t, teams, 2)
	names := map[int64]string{}
	for _, team := range teams {
		id, _ := team.ID()
		names[id] = team.String("name")
	}
	assert.Equal(t, "Sentinels NA", names[1])
	assert.Equal(t, "LOUD", names[2])
}

func TestClearCollection(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/matches", []catalog.Record{{"id": 1, "name": "m"}})

	rr := doJSON(t, h, http.MethodDelete, "/api/matches", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	assert.Empty(t, decodeList(t, doJSON(t, h, http.MethodGet, "/api/matches", nil)))
}

func TestListWithQueryFilter(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/matches", []catalog.Record{
		{"id": 1, "name": "a", "status": "not_started"},
		{"id": 2, "name": "b", "status": "running"},
		{"id": 3, "name": "c", "status": "running"},
		{"id": 4, "name": "d", "status": "finished"},
	})

	got := decodeList(t, doJSON(t, h, http.MethodGet, "/api/matches?status=running", nil))
	assert.Len(t, got, 2)

	got = decodeList(t, doJSON(t, h, http.MethodGet, "/api/matches/running", nil))
	assert.Len(t, got, 2)

	got = decodeList(t, doJSON(t, h, http.MethodGet, "/api/matches/upcoming", nil))
	assert.Len(t, got, 1)

	got = decodeList(t, doJSON(t, h, http.MethodGet, "/api/matches/past", nil))
	assert.Len(t, got, 1)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)
	doJSON(t, h, http.MethodPost, "/api/leagues", []catalog.Record{{"id": 77, "name": "VCT"}})

	rr := doJSON(t, h, http.MethodGet, "/api/leagues/77", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var rec catalog.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "VCT", rec.String("name"))

	rr = doJSON(t, h, http.MethodGet, "/api/leagues/78", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/api/leagues/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkUpsertRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/teams", bytes.NewBufferString(`{"not":"an array"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListErrorsSurfaceAs500(t *testing.T) {
	t.Parallel()

	mem, h := newTestServer(t)
	mem.listErr = errors.New("mongo down")

	rr := doJSON(t, h, http.MethodGet, "/api/series", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "mongo down")
}

func TestTeamDetailsRoute(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/teams", []catalog.Record{{"id": 100, "name": "Sentinels"}})
	doJSON(t, h, http.MethodPost, "/api/players", []catalog.Record{
		{"id": 1, "name": "a", "current_team": map[string]any{"id": 100}},
		{"id": 2, "name": "b", "current_team": map[string]any{"id": 100}},
		{"id": 3, "name": "c", "current_team": map[string]any{"id": 200}},
	})
	doJSON(t, h, http.MethodPost, "/api/matches", []catalog.Record{
		{"id": 10, "name": "m1", "status": "not_started", "opponents": []any{
			map[string]any{"opponent": map[string]any{"id": 100}},
		}},
		{"id": 11, "name": "m2", "status": "finished", "opponents": []any{
			map[string]any{"opponent": map[string]any{"id": 100}},
		}},
		{"id": 12, "name": "m3", "status": "finished", "opponents": []any{
			map[string]any{"opponent": map[string]any{"id": 200}},
		}},
	})

	rr := doJSON(t, h, http.MethodGet, "/api/teams/100/details", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var details catalog.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &details))
	assert.Equal(t, "Sentinels", details.String("name"))
	assert.Len(t, details.Slice("players"), 2)
	assert.Len(t, details.Slice("upcoming_matches"), 1)
	assert.Len(t, details.Slice("past_matches"), 1)

	rr = doJSON(t, h, http.MethodGet, "/api/teams/999/details", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/api/teams", nil)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "fixed-id", rr.Header().Get("X-Request-ID"))
}
