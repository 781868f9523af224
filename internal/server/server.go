// Package server exposes the backend HTTP API under /api: per-collection
// list/upsert/clear plus the read-service routes the mobile client consumes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"valorant-companion/internal/catalog"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/middleware"
	"valorant-companion/internal/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Reader answers catalog queries with mirror-first fallback semantics.
type Reader interface {
	List(ctx context.Context, coll catalog.Collection, filter map[string]string) ([]catalog.Record, error)
	Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error)
	ListByStatus(ctx context.Context, coll catalog.Collection, status string) ([]catalog.Record, error)
	TeamDetails(ctx context.Context, teamID int64) (catalog.Record, error)
	PlayerDetails(ctx context.Context, playerID int64) (catalog.Record, error)
}

// Writer is the ingestion-facing write surface of the mirror.
type Writer interface {
	BulkUpsert(ctx context.Context, coll catalog.Collection, batch []catalog.Record) (*store.BulkResult, error)
	Clear(ctx context.Context, coll catalog.Collection) error
}

type Server struct {
	reader Reader
	writer Writer
	logger zerolog.Logger
}

func New(reader Reader, writer Writer, logger zerolog.Logger) *Server {
	return &Server{reader: reader, writer: writer, logger: logger}
}

// Router builds the /api route tree. CORS is applied by the caller around
// the returned handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		for _, coll := range catalog.Collections() {
			r.Route("/"+string(coll), func(r chi.Router) {
				r.Get("/", s.list(coll))
				r.Post("/", s.bulkUpsert(coll))
				r.Delete("/", s.clear(coll))

				if coll.HasVariants() {
					r.Get("/upcoming", s.byStatus(coll, catalog.StatusNotStarted))
					r.Get("/running", s.byStatus(coll, catalog.StatusRunning))
					r.Get("/past", s.byStatus(coll, catalog.StatusFinished))
				}
				switch coll {
				case catalog.Teams:
					r.Get("/{id}/details", s.teamDetails)
				case catalog.Players:
					r.Get("/{id}/details", s.playerDetails)
				}
				r.Get("/{id}", s.getByID(coll))
			})
		}
	})

	return r
}

func (s *Server) list(coll catalog.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.FilterFromQuery(r.URL.Query())
		recs, err := s.reader.List(r.Context(), coll, filter)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(recs))
	}
}

func (s *Server) byStatus(coll catalog.Collection, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := s.reader.ListByStatus(r.Context(), coll, status)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(recs))
	}
}

func (s *Server) getByID(coll catalog.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := catalog.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		rec, err := s.reader.Get(r.Context(), coll, id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) bulkUpsert(coll catalog.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBody)

		var batch []catalog.Record
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON array of records")
			return
		}

		result, err := s.writer.BulkUpsert(r.Context(), coll, batch)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
	}
}

func (s *Server) clear(coll catalog.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.writer.Clear(r.Context(), coll); err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) teamDetails(w http.ResponseWriter, r *http.Request) {
	s.details(w, r, s.reader.TeamDetails)
}

func (s *Server) playerDetails(w http.ResponseWriter, r *http.Request) {
	s.details(w, r, s.reader.PlayerDetails)
}

func (s *Server) details(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int64) (catalog.Record, error)) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rec, err := fetch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().
		Err(err).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(recs []catalog.Record) []catalog.Record {
	if recs == nil {
		return []catalog.Record{}
	}
	return recs
}
