package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/Aden1ke/Thera/internal/vectordb"
)

// DefaultSeeds returns the built-in coping rituals.
func DefaultSeeds() []Seed {
	return []Seed{
		{
			EmotionTags:   []string{"anxious", "nervous"},
			DistressLevel: 8,
			Prompt:        "Take five deep breaths slowly. Inhale... exhale...",
			VisualCue:     "https://example.com/breathing-circle.gif",
		},
		{
			EmotionTags:   []string{"sad", "down"},
			DistressLevel: 6,
			Prompt:        "Write down 3 things you're grateful for right now.",
		},
		{
			EmotionTags:   []string{"angry", "frustrated"},
			DistressLevel: 7,
			Prompt:        "Go for a 10-minute walk outside to clear your mind.",
			VisualCue:     "https://example.com/walk-outside.gif",
		},
		{
			EmotionTags:   []string{"stressed", "overwhelmed"},
			DistressLevel: 9,
			Prompt:        "Try progressive muscle relaxation. Tense and relax each muscle group.",
		},
		{
			EmotionTags:   []string{"lonely", "isolated"},
			DistressLevel: 5,
			Prompt:        "Call or text a friend or family member to talk.",
		},
	}
}

// seedFile is the YAML layout of a seed file: either a list of seeds or
// a mapping with a seeds key.
type seedFile struct {
	Seeds []Seed `yaml:"seeds"`
}

// LoadSeedFiles reads every YAML file matching pattern (doublestar syntax,
// e.g. "rituals/**/*.yml") and returns their seeds in file order.
func LoadSeedFiles(pattern string) ([]Seed, error) {
	base, glob := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(base), glob)
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", pattern, err)
	}

	var seeds []Seed
	for _, m := range matches {
		path := filepath.Join(base, m)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		parsed, err := parseSeeds(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for i, s := range parsed {
			if strings.TrimSpace(s.Prompt) == "" {
				return nil, fmt.Errorf("%s: seed %d has no prompt", path, i)
			}
		}
		seeds = append(seeds, parsed...)
	}
	return seeds, nil
}

func parseSeeds(data []byte) ([]Seed, error) {
	var list []Seed
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Seeds, nil
}

// SeedText is the text embedded for a seed.
func SeedText(s Seed) string {
	return s.Prompt + " " + strings.Join(s.EmotionTags, " ") + " distress: " + strconv.FormatFloat(s.DistressLevel, 'f', -1, 64)
}

// SeedInputs converts seeds into seed index inputs.
func SeedInputs(seeds []Seed) []vectordb.Input[SeedMetadata] {
	inputs := make([]vectordb.Input[SeedMetadata], len(seeds))
	for i, s := range seeds {
		inputs[i] = vectordb.Input[SeedMetadata]{
			Text: SeedText(s),
			Metadata: SeedMetadata{
				SeedID:        s.ID,
				EmotionTags:   s.EmotionTags,
				DistressLevel: s.DistressLevel,
				Prompt:        s.Prompt,
				VisualCue:     s.VisualCue,
			},
		}
	}
	return inputs
}

// JournalInputs converts entries into journal index inputs. The raw entry
// text is embedded.
func JournalInputs(entries []Entry) []vectordb.Input[JournalMetadata] {
	inputs := make([]vectordb.Input[JournalMetadata], len(entries))
	for i, e := range entries {
		inputs[i] = vectordb.Input[JournalMetadata]{Text: e.Text, Metadata: JournalMeta(e)}
	}
	return inputs
}

// JournalMeta builds the index metadata for an entry.
func JournalMeta(e Entry) JournalMetadata {
	return JournalMetadata{
		JournalID:     e.ID,
		OwnerID:       e.UserID,
		Emotions:      e.Emotions,
		DistressScore: e.DistressScore,
		CreatedAt:     e.CreatedAt,
	}
}

// InstallSeeds stores every seed. It stops at the first failure and
// reports how many were stored.
func InstallSeeds(ctx context.Context, store SeedStore, seeds []Seed) (int, error) {
	for i := range seeds {
		if err := store.CreateSeed(ctx, &seeds[i]); err != nil {
			return i, err
		}
	}
	return len(seeds), nil
}
