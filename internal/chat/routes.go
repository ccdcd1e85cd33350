package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Aden1ke/Thera/internal/server"
)

const (
	msgAnalysisFailed   = "could not process your entry"
	msgCompletionFailed = "could not get a reply"
)

type entryRequest struct {
	Entry string `json:"entry"`
}

type chatRequest struct {
	Entry    string   `json:"entry"`
	Emotions []string `json:"emotions"`
	Distress float64  `json:"distress"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// RegisterRoutes adds the journal-entry and stateless chat endpoints. The
// router must already require a user.
func RegisterRoutes(r chi.Router, o *Orchestrator, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.Post("/api/journal", handleEntry(o, logger))
	r.Post("/api/chat", handleChat(o, logger))
}

func handleEntry(o *Orchestrator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			server.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Entry) == "" {
			server.WriteError(w, http.StatusBadRequest, "entry is required")
			return
		}

		reply, err := o.HandleUserEntry(r.Context(), server.UserID(r.Context()), req.Entry)
		if err != nil {
			status, msg := errorResponse(err)
			logger.Error("handling journal entry", "error", err)
			server.WriteError(w, status, msg)
			return
		}
		server.WriteJSON(w, http.StatusCreated, reply)
	}
}

func handleChat(o *Orchestrator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			server.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Entry) == "" {
			server.WriteError(w, http.StatusBadRequest, "entry is required")
			return
		}

		reply, err := o.Chat(r.Context(), server.UserID(r.Context()), req.Entry, req.Emotions, req.Distress)
		if err != nil {
			status, msg := errorResponse(err)
			logger.Error("handling chat", "error", err)
			server.WriteError(w, status, msg)
			return
		}
		server.WriteJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}

// errorResponse maps a flow error to its HTTP status and public message.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrCompletion):
		return http.StatusBadGateway, msgCompletionFailed
	case errors.Is(err, ErrAnalysis):
		return http.StatusInternalServerError, msgAnalysisFailed
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
