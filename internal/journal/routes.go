package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aden1ke/Thera/internal/server"
)

// RegisterRoutes adds the journal read API. Entry creation goes through
// the chat flow and is registered by the chat package.
func RegisterRoutes(r chi.Router, svc *Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.Get("/api/journal", handleList(svc, logger))
	r.Get("/api/journal/emotion-log", handleEmotionLog(svc, logger))
	r.Get("/api/journal/{id}", handleGet(svc, logger))
	r.Get("/api/wounds/wound-seeds", handleWoundSeeds(svc, logger))
}

func handleList(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.ListJournals(r.Context(), server.UserID(r.Context()))
		if err != nil {
			logger.Error("listing journals", "error", err)
			server.WriteError(w, http.StatusInternalServerError, "failed to fetch journals")
			return
		}
		server.WriteJSON(w, http.StatusOK, entries)
	}
}

func handleGet(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := svc.GetJournal(r.Context(), server.UserID(r.Context()), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			server.WriteError(w, http.StatusNotFound, "journal entry not found")
			return
		}
		if err != nil {
			logger.Error("getting journal", "error", err)
			server.WriteError(w, http.StatusInternalServerError, "failed to fetch journal entry")
			return
		}
		server.WriteJSON(w, http.StatusOK, entry)
	}
}

func handleEmotionLog(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, err := ParseBound(q.Get("from"), false)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		to, err := ParseBound(q.Get("to"), true)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		logs, err := svc.EmotionLogs(r.Context(), server.UserID(r.Context()), EmotionFilter{
			From:    from,
			To:      to,
			Emotion: q.Get("emotion"),
		})
		if err != nil {
			logger.Error("listing emotion logs", "error", err)
			server.WriteError(w, http.StatusInternalServerError, "failed to fetch emotion log")
			return
		}
		server.WriteJSON(w, http.StatusOK, logs)
	}
}

func handleWoundSeeds(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seeds, err := svc.Patterns(r.Context(), server.UserID(r.Context()))
		if err != nil {
			logger.Error("scanning wound seeds", "error", err)
			server.WriteError(w, http.StatusInternalServerError, "failed to fetch wound seeds")
			return
		}
		server.WriteJSON(w, http.StatusOK, seeds)
	}
}

// ParseBound parses a date filter value. It accepts RFC 3339 timestamps
// and YYYY-MM-DD dates. A date used as an upper bound covers the whole
// day. An empty value is the zero time.
func ParseBound(v string, upper bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", v)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
