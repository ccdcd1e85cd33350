package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aden1ke/Thera/internal/analysis"
	"github.com/Aden1ke/Thera/internal/db"
	"github.com/Aden1ke/Thera/internal/server"
)

type stubAnalyzer struct {
	result analysis.Result
	err    error
}

func (s *stubAnalyzer) Name() string { return "stub" }

func (s *stubAnalyzer) Analyze(context.Context, string) (analysis.Result, error) {
	if s.err != nil {
		return analysis.Result{}, s.err
	}
	return s.result, nil
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSQLStore(database)
}

// clock returns a now func that advances one minute per call from start.
func clock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func TestAnalyzeAndStorePersistsDerivedRecords(t *testing.T) {
	store := newSQLStore(t)
	analyzer := &stubAnalyzer{result: analysis.Result{Emotions: []string{"anxious", "sad"}, DistressScore: 8}}
	var logs bytes.Buffer
	svc := NewService(store, analyzer, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := context.Background()

	stored, err := svc.AnalyzeAndStore(ctx, "user1", "I could not sleep again")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Entry.ID)
	assert.Equal(t, "anxious, sad", stored.DistressLog.DetectedEmotion)
	assert.Equal(t, float64(DefaultAlertThreshold), stored.DistressLog.UserThreshold)
	assert.Equal(t, stored.Entry.ID, stored.DistressLog.JournalRef)

	got, err := store.GetJournal(ctx, "user1", stored.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "I could not sleep again", got.Text)
	assert.Equal(t, []string{"anxious", "sad"}, got.Emotions)

	memories, err := store.HealingMemories(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "Summary: I could not sleep again...", memories[0].MemorySummary)
	assert.Equal(t, stored.Entry.ID, memories[0].JournalRef)

	assert.Contains(t, logs.String(), "distress alert")
}

func TestAnalyzeAndStoreUnknownEmotionAndNoAlert(t *testing.T) {
	store := newSQLStore(t)
	var logs bytes.Buffer
	svc := NewService(store, &stubAnalyzer{result: analysis.Result{DistressScore: 3}},
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	stored, err := svc.AnalyzeAndStore(context.Background(), "user1", "quiet day")
	require.NoError(t, err)
	assert.Equal(t, "unknown", stored.DistressLog.DetectedEmotion)
	assert.NotContains(t, logs.String(), "distress alert")
}

func TestAnalyzeAndStoreFailures(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	svc := NewService(store, &stubAnalyzer{err: analysis.ErrFailed})
	_, err := svc.AnalyzeAndStore(ctx, "user1", "text")
	assert.ErrorIs(t, err, analysis.ErrFailed)

	entries, err := store.ListJournals(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is stored when analysis fails")

	_, err = svc.AnalyzeAndStore(ctx, "", "text")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AnalyzeAndStore(ctx, "user1", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeAndStoreLeavesNothingOnStoreFailure(t *testing.T) {
	for _, table := range []string{"distress_logs", "healing_memories"} {
		t.Run(table, func(t *testing.T) {
			store := newSQLStore(t)
			ctx := context.Background()
			_, err := store.db.ExecContext(ctx, "DROP TABLE "+table)
			require.NoError(t, err)

			svc := NewService(store, &stubAnalyzer{result: analysis.Result{Emotions: []string{"sad"}, DistressScore: 9}})
			stored, err := svc.AnalyzeAndStore(ctx, "user1", "everything feels heavy")
			require.Error(t, err)
			assert.Nil(t, stored)
			assert.NotErrorIs(t, err, analysis.ErrFailed)

			entries, err := store.ListJournals(ctx, "user1")
			require.NoError(t, err)
			assert.Empty(t, entries, "entry rolled back")
		})
	}
}

func TestCreateEntryRecordsRollsBack(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	first := &Entry{UserID: "user1", Text: "first"}
	require.NoError(t, store.CreateEntryRecords(ctx, first,
		&DistressLog{UserID: "user1", DetectedEmotion: "sad", Level: 4},
		&HealingMemory{ID: "memory-1", UserID: "user1", MemorySummary: "Summary: first..."}))

	// A duplicate memory id fails the last insert of the batch.
	err := store.CreateEntryRecords(ctx, &Entry{UserID: "user1", Text: "second"},
		&DistressLog{UserID: "user1", DetectedEmotion: "angry", Level: 6},
		&HealingMemory{ID: "memory-1", UserID: "user1", MemorySummary: "Summary: second..."})
	require.Error(t, err)

	entries, err := store.ListJournals(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Text)

	logs, err := store.EmotionLogs(ctx, "user1", EmotionFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, first.ID, logs[0].JournalRef)
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := Summarize(long)
	assert.Equal(t, "Summary: "+strings.Repeat("é", 150)+"...", got)
	assert.Equal(t, "Summary: short...", Summarize("short"))
}

func TestListAndGetJournalOwnership(t *testing.T) {
	store := newSQLStore(t)
	store.now = clock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first := &Entry{UserID: "user1", Text: "first"}
	second := &Entry{UserID: "user1", Text: "second"}
	other := &Entry{UserID: "user2", Text: "not yours"}
	for _, e := range []*Entry{first, other, second} {
		require.NoError(t, store.CreateEntry(ctx, e))
	}

	entries, err := store.ListJournals(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Text)
	assert.Equal(t, "first", entries[1].Text)

	_, err = store.GetJournal(ctx, "user1", other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetJournal(ctx, "user1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := store.AllJournals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Text)
}

func TestEmotionLogsFilter(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	entry := &Entry{UserID: "user1", Text: "x"}
	require.NoError(t, store.CreateEntry(ctx, entry))

	day := func(d int) time.Time { return time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC) }
	for _, l := range []*DistressLog{
		{UserID: "user1", DetectedEmotion: "Sad, anxious", Level: 6, CreatedAt: day(1)},
		{UserID: "user1", DetectedEmotion: "angry", Level: 8, CreatedAt: day(3)},
		{UserID: "user1", DetectedEmotion: "sadness", Level: 4, CreatedAt: day(5)},
		{UserID: "user2", DetectedEmotion: "sad", Level: 9, CreatedAt: day(3)},
	} {
		l.JournalRef = entry.ID
		require.NoError(t, store.CreateDistressLog(ctx, l))
	}

	logs, err := store.EmotionLogs(ctx, "user1", EmotionFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "sadness", logs[0].DetectedEmotion, "newest first")

	logs, err = store.EmotionLogs(ctx, "user1", EmotionFilter{Emotion: "SAD"})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	to, err := ParseBound("2024-05-03", true)
	require.NoError(t, err)
	logs, err = store.EmotionLogs(ctx, "user1", EmotionFilter{From: day(3), To: to})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "angry", logs[0].DetectedEmotion)
}

func TestFindWoundSeeds(t *testing.T) {
	at := func(d int) time.Time { return time.Date(2024, 1, d, 8, 0, 0, 0, time.UTC) }
	memories := []HealingMemory{
		{MemorySummary: "Summary: I felt sad and lonely...", CreatedAt: at(2)},
		{MemorySummary: "Summary: SAD again, so sad...", CreatedAt: at(4)},
		{MemorySummary: "Summary: lonely, saddened by hurt...", CreatedAt: at(9)},
		{MemorySummary: "Summary: lonely...", CreatedAt: at(11)},
	}

	seeds := FindWoundSeeds(memories, 3)
	require.Len(t, seeds, 2)
	assert.Equal(t, WoundSeed{Emotion: "lonely", Occurrences: 3, FirstSeen: "2024-01-02", LastSeen: "2024-01-11"}, seeds[0])
	assert.Equal(t, WoundSeed{Emotion: "sad", Occurrences: 3, FirstSeen: "2024-01-02", LastSeen: "2024-01-04"}, seeds[1])

	assert.Empty(t, FindWoundSeeds(nil, 3))
	assert.Len(t, FindWoundSeeds(memories, 1), 3)
}

func TestPatternSweeperRunOnce(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	svc := NewService(store, &stubAnalyzer{result: analysis.Result{Emotions: []string{"sad"}, DistressScore: 2}})

	for i := 0; i < 3; i++ {
		_, err := svc.AnalyzeAndStore(ctx, "user1", "I feel sad today")
		require.NoError(t, err)
	}
	_, err := svc.AnalyzeAndStore(ctx, "user2", "I feel sad once")
	require.NoError(t, err)

	sweeper := NewPatternSweeper(svc, time.Hour, 24*time.Hour, nil)
	found, err := sweeper.RunOnce(ctx)
	require.NoError(t, err)
	require.Contains(t, found, "user1")
	assert.NotContains(t, found, "user2")
	assert.Equal(t, 3, found["user1"][0].Occurrences)

	require.NoError(t, sweeper.Start())
	sweeper.Stop()
}

func TestSeedsRoundTripThroughStore(t *testing.T) {
	store := newSQLStore(t)
	store.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	n, err := InstallSeeds(ctx, store, DefaultSeeds())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	seeds, err := store.ListAllSeeds(ctx)
	require.NoError(t, err)
	require.Len(t, seeds, 5)
	assert.Equal(t, []string{"anxious", "nervous"}, seeds[0].EmotionTags)
	assert.Equal(t, "Take five deep breaths slowly. Inhale... exhale... anxious nervous distress: 8", SeedText(seeds[0]))
}

func TestLoadSeedFiles(t *testing.T) {
	seeds, err := LoadSeedFiles("testdata/rituals/**/*.{yml,yaml}")
	require.NoError(t, err)
	require.Len(t, seeds, 3)

	prompts := []string{}
	for _, s := range seeds {
		prompts = append(prompts, s.Prompt)
	}
	assert.Contains(t, prompts, "Dim the lights and write one sentence about the best moment of today.")

	inputs := SeedInputs(seeds)
	assert.Equal(t, seeds[0].Prompt, inputs[0].Metadata.Prompt)
	assert.True(t, strings.HasSuffix(inputs[0].Text, "distress: "+strconv.FormatFloat(seeds[0].DistressLevel, 'f', -1, 64)))
}

func TestLoadSeedFilesRejectsMissingPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/bad.yml", []byte("- emotion_tags: [x]\n  distress_level: 3\n"), 0o644))
	_, err := LoadSeedFiles(dir + "/*.yml")
	assert.Error(t, err)
}

func TestJournalInputsUseRawText(t *testing.T) {
	inputs := JournalInputs([]Entry{{ID: "j1", UserID: "u1", Text: "raw entry", Emotions: []string{"calm"}}})
	require.Len(t, inputs, 1)
	assert.Equal(t, "raw entry", inputs[0].Text)
	assert.Equal(t, "u1", inputs[0].Metadata.OwnerID)
	assert.Equal(t, "j1", inputs[0].Metadata.JournalID)
}

func TestParseBound(t *testing.T) {
	zero, err := ParseBound("", true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	lower, err := ParseBound("2024-05-03", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), lower)

	upper, err := ParseBound("2024-05-03", true)
	require.NoError(t, err)
	assert.Equal(t, 3, upper.Day())
	assert.Equal(t, 23, upper.Hour())

	_, err = ParseBound("yesterday", false)
	assert.Error(t, err)
}

func newRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(server.RequireUser)
	RegisterRoutes(r, svc, nil)
	return r
}

func doGet(t *testing.T, h http.Handler, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(server.UserHeader, user)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	store := newSQLStore(t)
	svc := NewService(store, &stubAnalyzer{result: analysis.Result{Emotions: []string{"hurt"}, DistressScore: 5}})
	ctx := context.Background()
	var id string
	for i := 0; i < 3; i++ {
		stored, err := svc.AnalyzeAndStore(ctx, "user1", "it hurt to hear that")
		require.NoError(t, err)
		id = stored.Entry.ID
	}
	h := newRouter(svc)

	w := doGet(t, h, "/api/journal", "user1")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)

	w = doGet(t, h, "/api/journal", "user2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	assert.Equal(t, http.StatusOK, doGet(t, h, "/api/journal/"+id, "user1").Code)
	assert.Equal(t, http.StatusNotFound, doGet(t, h, "/api/journal/"+id, "user2").Code)

	w = doGet(t, h, "/api/journal/emotion-log?emotion=HURT", "user1")
	require.Equal(t, http.StatusOK, w.Code)
	var logs []DistressLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Len(t, logs, 3)

	assert.Equal(t, http.StatusBadRequest, doGet(t, h, "/api/journal/emotion-log?from=soon", "user1").Code)

	w = doGet(t, h, "/api/wounds/wound-seeds", "user1")
	require.Equal(t, http.StatusOK, w.Code)
	var seeds []WoundSeed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seeds))
	require.Len(t, seeds, 1)
	assert.Equal(t, "hurt", seeds[0].Emotion)

	assert.Equal(t, http.StatusUnauthorized, doGet(t, h, "/api/journal", "").Code)
}

func TestStoreErrorsSurfaceAs500(t *testing.T) {
	svc := NewService(failingStore{}, &stubAnalyzer{})
	h := newRouter(svc)
	for _, path := range []string{"/api/journal", "/api/journal/x", "/api/journal/emotion-log", "/api/wounds/wound-seeds"} {
		assert.Equal(t, http.StatusInternalServerError, doGet(t, h, path, "u").Code, path)
	}
}

var errStore = errors.New("store offline")

type failingStore struct{ Store }

func (failingStore) ListJournals(context.Context, string) ([]Entry, error)      { return nil, errStore }
func (failingStore) GetJournal(context.Context, string, string) (*Entry, error) { return nil, errStore }
func (failingStore) EmotionLogs(context.Context, string, EmotionFilter) ([]DistressLog, error) {
	return nil, errStore
}
func (failingStore) HealingMemories(context.Context, string) ([]HealingMemory, error) {
	return nil, errStore
}
