package videos

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Aden1ke/Thera/internal/server"
)

// SearchPath serves ritual-video searches.
const SearchPath = "/api/youtube/search"

type searchResponse struct {
	Videos   []Video `json:"videos"`
	Fallback bool    `json:"fallback,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RegisterRoutes adds the video search endpoint. A nil searcher answers
// every query with a configuration error.
func RegisterRoutes(r chi.Router, s Searcher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.Get(SearchPath, func(w http.ResponseWriter, req *http.Request) {
		query := strings.TrimSpace(req.URL.Query().Get("q"))
		if query == "" {
			server.WriteError(w, http.StatusBadRequest, "Query parameter is required")
			return
		}
		if s == nil {
			logger.Error("video search requested without a YouTube API key")
			server.WriteError(w, http.StatusInternalServerError, "API configuration error: YouTube API key missing")
			return
		}

		found, err := s.Search(req.Context(), query)
		if err != nil {
			logger.Error("searching ritual videos", "query", query, "error", err)
			server.WriteJSON(w, http.StatusInternalServerError, searchResponse{
				Videos:   Fallback(),
				Fallback: true,
				Error:    "Failed to fetch videos: " + err.Error(),
			})
			return
		}
		server.WriteJSON(w, http.StatusOK, searchResponse{Videos: found})
	})
}
