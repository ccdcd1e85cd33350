package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aden1ke/Thera/internal/contextengine"
	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/retrieval"
	"github.com/Aden1ke/Thera/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the ritual index, or preview the context a chat turn would get",
	Long: `Searches the ritual seeds semantically. With --user, journals are replayed
and the command prints the exact context the chat flow would send for
that user, emotions and distress score.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 4, "maximum number of rituals")
	queryCmd.Flags().String("user", "", "preview the chat context for this user")
	queryCmd.Flags().StringSlice("emotions", nil, "emotions for the context preview")
	queryCmd.Flags().Float64("distress", 0, "distress score for the context preview")
	queryCmd.Flags().Bool("json", false, "output rituals as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	text := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	userID, _ := cmd.Flags().GetString("user")
	emotions, _ := cmd.Flags().GetStringSlice("emotions")
	distress, _ := cmd.Flags().GetFloat64("distress")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	emb, closeEmb, err := createEmbedderFromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer closeEmb()

	if userID != "" {
		cfg.Index.ReplayJournals = true
	}
	idx, err := buildIndexes(ctx, cfg, store, emb, logger)
	if err != nil {
		return err
	}
	retriever := retrieval.NewService(retrieval.WithLogger(logger))
	out := cmd.OutOrStdout()

	if userID != "" {
		assembler := contextengine.NewAssembler(idx.journals, idx.seeds, retriever,
			contextengine.WithDistressThreshold(cfg.Retrieval.DistressThreshold),
			contextengine.WithTopK(cfg.Retrieval.JournalTopK, cfg.Retrieval.SeedTopK),
			contextengine.WithLogger(logger),
		)
		contextText := assembler.BuildContext(ctx, text, emotions, distress, userID)
		if contextText == "" {
			fmt.Fprintln(out, "No context.")
			return nil
		}
		fmt.Fprintln(out, contextText)
		return nil
	}

	results, err := retrieval.Retrieve[journal.SeedMetadata](ctx, retriever, idx.seeds, text, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No rituals found. Run `thera seed defaults` to install the default set.")
		return nil
	}

	if jsonOutput {
		return printRitualsJSON(out, results)
	}
	printRitualsTable(out, results)
	return nil
}

type ritualJSON struct {
	Rank          int      `json:"rank"`
	Similarity    float64  `json:"similarity"`
	SeedID        string   `json:"seed_id,omitempty"`
	EmotionTags   []string `json:"emotion_tags"`
	DistressLevel float64  `json:"distress_level"`
	Prompt        string   `json:"prompt"`
}

func printRitualsJSON(w io.Writer, results []vectordb.SearchResult[journal.SeedMetadata]) error {
	out := make([]ritualJSON, 0, len(results))
	for i, r := range results {
		m := r.Document.Metadata
		out = append(out, ritualJSON{
			Rank:          i + 1,
			Similarity:    float64(r.Similarity),
			SeedID:        m.SeedID,
			EmotionTags:   m.EmotionTags,
			DistressLevel: m.DistressLevel,
			Prompt:        m.Prompt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printRitualsTable(w io.Writer, results []vectordb.SearchResult[journal.SeedMetadata]) {
	fmt.Fprintf(w, "Found %d rituals:\n\n", len(results))
	for i, r := range results {
		m := r.Document.Metadata
		fmt.Fprintf(w, "  %d. [%.1f%%] %s\n", i+1, r.Similarity*100, strings.Join(m.EmotionTags, ", "))
		fmt.Fprintf(w, "     Distress: %g\n", m.DistressLevel)
		fmt.Fprintf(w, "     %s\n\n", truncate(m.Prompt, 120))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
