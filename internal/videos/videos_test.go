package videos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeYouTube serves canned search and video-details responses.
type fakeYouTube struct {
	searchStatus  int
	detailsStatus int
	lastSearch    atomic.Value
	detailCalls   atomic.Int32
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/search"):
		f.lastSearch.Store(r.URL.Query())
		if f.searchStatus != 0 {
			w.WriteHeader(f.searchStatus)
			w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
			return
		}
		w.Write([]byte(`{"items":[
			{"id":{"videoId":"abc"},"snippet":{"title":"Box Breathing","channelTitle":"Calm Channel",
			 "description":"` + strings.Repeat("d", 120) + `","publishedAt":"2024-01-02T03:04:05Z",
			 "thumbnails":{"default":{"url":"https://img/abc-default.jpg"},"medium":{"url":"https://img/abc-medium.jpg"}}}},
			{"id":{"videoId":"def"},"snippet":{"title":"Body Scan","channelTitle":"Rest",
			 "description":"short","thumbnails":{"default":{"url":"https://img/def-default.jpg"}}}}
		]}`))
	case strings.HasSuffix(r.URL.Path, "/videos"):
		f.detailCalls.Add(1)
		if f.detailsStatus != 0 {
			w.WriteHeader(f.detailsStatus)
			return
		}
		w.Write([]byte(`{"items":[{"id":"abc","contentDetails":{"duration":"PT1H2M3S"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func newClient(t *testing.T, f *fakeYouTube) *YouTube {
	t.Helper()
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	yt, err := NewYouTube(context.Background(), "test-key", option.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)
	return yt
}

func TestYouTubeSearch(t *testing.T) {
	f := &fakeYouTube{}
	yt := newClient(t, f)

	got, err := yt.Search(context.Background(), "calm breathing")
	require.NoError(t, err)
	require.Len(t, got, 2)

	q := f.lastSearch.Load().(url.Values)
	assert.Equal(t, []string{"calm breathing"}, q["q"])
	assert.Equal(t, []string{"5"}, q["maxResults"])
	assert.Equal(t, []string{"video"}, q["type"])
	assert.Equal(t, []string{"medium"}, q["videoDuration"])
	assert.Equal(t, []string{"high"}, q["videoDefinition"])

	assert.Equal(t, Video{
		ID:          "abc",
		Title:       "Box Breathing",
		Thumbnail:   "https://img/abc-medium.jpg",
		Channel:     "Calm Channel",
		Duration:    "1:02:03",
		Description: strings.Repeat("d", 100) + "...",
		PublishedAt: "2024-01-02T03:04:05Z",
	}, got[0])
	assert.Equal(t, "Unknown", got[1].Duration)
	assert.Equal(t, "https://img/def-default.jpg", got[1].Thumbnail)
	assert.Equal(t, "short...", got[1].Description)
}

func TestYouTubeSearchDetailsFailureKeepsResults(t *testing.T) {
	f := &fakeYouTube{detailsStatus: http.StatusInternalServerError}
	got, err := newClient(t, f).Search(context.Background(), "sleep")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Unknown", got[0].Duration)
	assert.Equal(t, int32(1), f.detailCalls.Load())
}

func TestYouTubeSearchError(t *testing.T) {
	f := &fakeYouTube{searchStatus: http.StatusForbidden}
	_, err := newClient(t, f).Search(context.Background(), "sleep")
	require.Error(t, err)
	assert.Zero(t, f.detailCalls.Load())
}

func TestNewFromEnvRequiresKey(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "")
	_, err := NewFromEnv(context.Background())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PT1H2M3S", "1:02:03"},
		{"PT10M", "10:00"},
		{"PT4M5S", "4:05"},
		{"PT45S", "0:45"},
		{"PT2H", "2:00:00"},
		{"P1DT2H", "Unknown"},
		{"PT", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in)
	}
}

type stubSearcher struct {
	videos []Video
	err    error
}

func (s stubSearcher) Search(context.Context, string) ([]Video, error) { return s.videos, s.err }

func get(t *testing.T, s Searcher, target string) (*httptest.ResponseRecorder, searchResponse) {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, s, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSearchRoute(t *testing.T) {
	found := []Video{{ID: "abc", Title: "Box Breathing", Duration: "4:00"}}

	rec, body := get(t, stubSearcher{videos: found}, SearchPath+"?q=breathing")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, found, body.Videos)
	assert.False(t, body.Fallback)

	rec, body = get(t, stubSearcher{videos: []Video{}}, SearchPath+"?q=nothing")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body.Videos)
	assert.Empty(t, body.Videos)

	rec, body = get(t, stubSearcher{}, SearchPath)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Query parameter is required", body.Error)

	rec, body = get(t, nil, SearchPath+"?q=breathing")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body.Error, "YouTube API key missing")
}

func TestSearchRouteFallsBack(t *testing.T) {
	rec, body := get(t, stubSearcher{err: errors.New("quota exceeded")}, SearchPath+"?q=breathing")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, body.Fallback)
	assert.Equal(t, "Failed to fetch videos: quota exceeded", body.Error)
	require.Len(t, body.Videos, 2)
	for _, v := range body.Videos {
		assert.True(t, v.IsFallback, v.ID)
	}
}

func TestSearchRouteWithYouTubeClient(t *testing.T) {
	yt := newClient(t, &fakeYouTube{searchStatus: http.StatusForbidden})
	rec, body := get(t, yt, SearchPath+"?q=breathing")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, body.Fallback)

	yt = newClient(t, &fakeYouTube{})
	rec, body = get(t, yt, SearchPath+"?q=breathing")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Videos, 2)
	assert.Equal(t, "1:02:03", body.Videos[0].Duration)
}
