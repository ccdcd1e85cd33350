package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchRitualsTool = mcp.NewTool("search_rituals",
	mcp.WithDescription("Find coping rituals that match a feeling or situation."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("What the person is going through, in natural language"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of rituals to return (default 4)"),
	),
)

var searchJournalTool = mcp.NewTool("search_journal",
	mcp.WithDescription("Search one user's previous journal entries semantically."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Owner of the entries to search"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 4)"),
	),
)

var listWoundSeedsTool = mcp.NewTool("list_wound_seeds",
	mcp.WithDescription("List the emotions that keep recurring in a user's journal."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("User to scan"),
	),
)
