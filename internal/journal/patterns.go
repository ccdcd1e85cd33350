package journal

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultMinOccurrences is how often an emotion must recur to become a
// wound seed.
const DefaultMinOccurrences = 3

var woundPattern = regexp.MustCompile(`(?i)\b(sad|angry|fear|shame|lonely|guilt|hurt|worthless)\b`)

type emotionStats struct {
	count     int
	firstSeen time.Time
	lastSeen  time.Time
}

// Patterns scans the user's healing memories and returns the emotions that
// recur at least the configured number of times.
func (s *Service) Patterns(ctx context.Context, userID string) ([]WoundSeed, error) {
	memories, err := s.store.HealingMemories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FindWoundSeeds(memories, s.minOccurrences), nil
}

// FindWoundSeeds counts wound words across memories, which must be in
// creation order, and flags those seen at least minOccurrences times.
// Results are sorted by occurrences, most frequent first.
func FindWoundSeeds(memories []HealingMemory, minOccurrences int) []WoundSeed {
	stats := map[string]*emotionStats{}
	for _, m := range memories {
		for _, match := range woundPattern.FindAllString(m.MemorySummary, -1) {
			e := strings.ToLower(match)
			st, ok := stats[e]
			if !ok {
				stats[e] = &emotionStats{count: 1, firstSeen: m.CreatedAt, lastSeen: m.CreatedAt}
				continue
			}
			st.count++
			st.lastSeen = m.CreatedAt
		}
	}

	seeds := []WoundSeed{}
	for emotion, st := range stats {
		if st.count < minOccurrences {
			continue
		}
		seeds = append(seeds, WoundSeed{
			Emotion:     emotion,
			Occurrences: st.count,
			FirstSeen:   st.firstSeen.Format(time.DateOnly),
			LastSeen:    st.lastSeen.Format(time.DateOnly),
		})
	}
	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].Occurrences != seeds[j].Occurrences {
			return seeds[i].Occurrences > seeds[j].Occurrences
		}
		return seeds[i].Emotion < seeds[j].Emotion
	})
	return seeds
}
