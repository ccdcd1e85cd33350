// Package mcp exposes ritual search, journal search and wound-seed
// listing as MCP tools.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/retrieval"
)

// Version is set via ldflags at build time.
var Version = "dev"

// PatternSource finds a user's wound seeds.
type PatternSource interface {
	Patterns(ctx context.Context, userID string) ([]journal.WoundSeed, error)
}

// Server wraps an MCP server over the Thera indexes.
type Server struct {
	journals  retrieval.Searcher[journal.JournalMetadata]
	seeds     retrieval.Searcher[journal.SeedMetadata]
	patterns  PatternSource
	retriever *retrieval.Service
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server. patterns may be nil, in which case
// list_wound_seeds is not offered.
func NewServer(
	journals retrieval.Searcher[journal.JournalMetadata],
	seeds retrieval.Searcher[journal.SeedMetadata],
	patterns PatternSource,
	retriever *retrieval.Service,
) *Server {
	if retriever == nil {
		retriever = retrieval.NewService()
	}
	s := &Server{
		journals:  journals,
		seeds:     seeds,
		patterns:  patterns,
		retriever: retriever,
	}

	s.mcp = server.NewMCPServer(
		"thera",
		Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchRitualsTool, s.handleSearchRituals)
	s.mcp.AddTool(searchJournalTool, s.handleSearchJournal)
	if s.patterns != nil {
		s.mcp.AddTool(listWoundSeedsTool, s.handleListWoundSeeds)
	}
}

// Serve starts the MCP server on stdio. Stdout carries protocol messages,
// so all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
