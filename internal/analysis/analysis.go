// Package analysis detects emotions and a distress score in journal text.
package analysis

import (
	"context"
	"errors"
	"sort"
)

// ErrFailed wraps every analyzer failure.
var ErrFailed = errors.New("emotion analysis failed")

// Result is the outcome of analyzing one entry. DistressScore is on a
// 0 to 10 scale.
type Result struct {
	Emotions      []string `json:"emotions"`
	DistressScore float64  `json:"distress_score"`
}

// Analyzer classifies journal text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
	Name() string
}

// payload is the shape returned by both analyzers: emotions keyed by
// label with a confidence, plus an overall distress score.
type payload struct {
	Emotions      map[string]float64 `json:"emotions"`
	DistressScore *float64           `json:"distress_score"`
}

func (p payload) result() Result {
	emotions := make([]string, 0, len(p.Emotions))
	for k := range p.Emotions {
		emotions = append(emotions, k)
	}
	sort.Strings(emotions)

	r := Result{Emotions: emotions}
	if p.DistressScore != nil {
		r.DistressScore = clamp(*p.DistressScore)
	}
	return r
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
