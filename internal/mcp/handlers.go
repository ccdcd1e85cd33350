package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/retrieval"
	"github.com/Aden1ke/Thera/internal/vectordb"
)

func (s *Server) handleSearchRituals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	results, err := retrieval.Retrieve(ctx, s.retriever, s.seeds, query, request.GetInt("limit", 0))
	if err != nil {
		return searchError(err), nil
	}
	return mcp.NewToolResultText(vectordb.FormatResults(results, describeSeed)), nil
}

func (s *Server) handleSearchJournal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || strings.TrimSpace(userID) == "" {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 0)
	if limit <= 0 {
		limit = s.retriever.DefaultTopK()
	}

	// The index is shared by all users, so over-fetch before filtering.
	results, err := retrieval.Retrieve(ctx, s.retriever, s.journals, query, limit*4)
	if err != nil {
		return searchError(err), nil
	}

	owned := make([]vectordb.SearchResult[journal.JournalMetadata], 0, limit)
	for _, r := range results {
		if r.Document.Metadata.OwnerID == userID && len(owned) < limit {
			owned = append(owned, r)
		}
	}
	return mcp.NewToolResultText(vectordb.FormatResults(owned, describeEntry)), nil
}

func (s *Server) handleListWoundSeeds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || strings.TrimSpace(userID) == "" {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	seeds, err := s.patterns.Patterns(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pattern scan failed: %v", err)), nil
	}
	if len(seeds) == 0 {
		return mcp.NewToolResultText("No recurring emotions found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d recurring emotion(s):\n", len(seeds))
	for _, w := range seeds {
		fmt.Fprintf(&sb, "- %s: %d times (first %s, last %s)\n", w.Emotion, w.Occurrences, w.FirstSeen, w.LastSeen)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func searchError(err error) *mcp.CallToolResult {
	if errors.Is(err, vectordb.ErrNotInitialized) {
		return mcp.NewToolResultError("The index is not loaded yet. Run `thera seed defaults` or start the server with journal replay enabled.")
	}
	return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err))
}

func describeSeed(m journal.SeedMetadata) []string {
	lines := []string{
		"Emotions: " + strings.Join(m.EmotionTags, ", "),
		"Distress level: " + strconv.FormatFloat(m.DistressLevel, 'f', -1, 64),
	}
	if m.VisualCue != "" {
		lines = append(lines, "Visual cue: "+m.VisualCue)
	}
	return lines
}

func describeEntry(m journal.JournalMetadata) []string {
	return []string{
		"Written: " + m.CreatedAt.Format("2006-01-02 15:04"),
		"Emotions: " + strings.Join(m.Emotions, ", "),
		"Distress: " + strconv.FormatFloat(m.DistressScore, 'f', -1, 64),
	}
}
