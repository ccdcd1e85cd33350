package videos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/Aden1ke/Thera/internal/telemetry"
)

const (
	// DefaultMaxResults is how many videos a search returns.
	DefaultMaxResults = 5
	descriptionRunes  = 100
	searchTimeout     = 10 * time.Second
)

// ErrNoAPIKey is returned by NewFromEnv when YOUTUBE_API_KEY is unset.
var ErrNoAPIKey = errors.New("YOUTUBE_API_KEY environment variable is not set")

// Video is one ritual video as returned to clients.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt,omitempty"`
	IsFallback  bool   `json:"isFallback,omitempty"`
}

// Searcher finds ritual videos for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Video, error)
}

// YouTube searches medium-length, high-definition videos through the
// YouTube Data API.
type YouTube struct {
	svc        *youtube.Service
	maxResults int64
}

// NewYouTube creates a client authenticated with apiKey. Extra options are
// appended after the key.
func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube client: %w", err)
	}
	return &YouTube{svc: svc, maxResults: DefaultMaxResults}, nil
}

// NewFromEnv creates a client from YOUTUBE_API_KEY.
func NewFromEnv(ctx context.Context) (*YouTube, error) {
	key := os.Getenv("YOUTUBE_API_KEY")
	if key == "" {
		return nil, ErrNoAPIKey
	}
	return NewYouTube(ctx, key)
}

// Search runs the query and then looks up the durations of the hits. A
// failed duration lookup leaves durations as "Unknown".
func (y *YouTube) Search(ctx context.Context, query string) ([]Video, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	ctx, span := telemetry.Tracer().Start(ctx, "videos.search")
	defer span.End()

	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(y.maxResults).
		Type("video").
		VideoDuration("medium").
		VideoDefinition("high").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("searching youtube: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	span.SetAttributes(attribute.Int("videos.results", len(ids)))
	if len(ids) == 0 {
		return []Video{}, nil
	}

	durations := map[string]string{}
	details, err := y.svc.Videos.List([]string{"contentDetails"}).Id(ids...).Context(ctx).Do()
	if err == nil {
		for _, v := range details.Items {
			if v.ContentDetails != nil {
				durations[v.Id] = FormatDuration(v.ContentDetails.Duration)
			}
		}
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		v := Video{ID: item.Id.VideoId, Duration: "Unknown"}
		if d, ok := durations[v.ID]; ok {
			v.Duration = d
		}
		if sn := item.Snippet; sn != nil {
			v.Title = sn.Title
			v.Channel = sn.ChannelTitle
			v.PublishedAt = sn.PublishedAt
			v.Description = truncateDescription(sn.Description)
			v.Thumbnail = thumbnailURL(sn.Thumbnails)
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	if t.Medium != nil && t.Medium.Url != "" {
		return t.Medium.Url
	}
	if t.Default != nil {
		return t.Default.Url
	}
	return ""
}

func truncateDescription(s string) string {
	r := []rune(s)
	if len(r) > descriptionRunes {
		r = r[:descriptionRunes]
	}
	return string(r) + "..."
}

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// FormatDuration turns an ISO 8601 duration such as PT1H2M3S into clock
// form ("1:02:03", "4:05"). Anything else yields "Unknown".
func FormatDuration(iso string) string {
	m := durationPattern.FindStringSubmatch(iso)
	if m == nil || iso == "PT" {
		return "Unknown"
	}
	part := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	hours, minutes, seconds := part(m[1]), part(m[2]), part(m[3])

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%d:%02d", hours, minutes)
	} else {
		fmt.Fprintf(&b, "%d", minutes)
	}
	fmt.Fprintf(&b, ":%02d", seconds)
	return b.String()
}

// Fallback is served when the search fails.
func Fallback() []Video {
	return []Video{
		{
			ID:          "fallback-breathing",
			Title:       "Guided Breathing Exercise - 5 Minutes",
			Thumbnail:   "https://i.ytimg.com/vi/S7P2yR5Q_2Q/mqdefault.jpg",
			Channel:     "Mindfulness Guides",
			Duration:    "5:00",
			Description: "A gentle breathing exercise to calm your mind...",
			IsFallback:  true,
		},
		{
			ID:          "fallback-meditation",
			Title:       "Beginner's Meditation - 10 Minutes",
			Thumbnail:   "https://i.ytimg.com/vi/aL3Fh4YJ3eU/mqdefault.jpg",
			Channel:     "Calm Mind",
			Duration:    "10:00",
			Description: "Find peace through mindful awareness...",
			IsFallback:  true,
		},
	}
}
