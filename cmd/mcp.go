package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"maharajah/internal/search"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing code-search tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx, false, 0)
		if err != nil {
			return err
		}
		defer app.Close()

		s := mcpserver.NewMCPServer("maharajah", "1.0.0", mcpserver.WithToolCapabilities(false))
		s.AddTool(findCodeTool(), makeSearchHandler(app, func(ctx context.Context, q string, k int) ([]search.Result, error) {
			return app.retriever.Find(ctx, q, k, nil)
		}))
		s.AddTool(queryCodeTool(), makeSearchHandler(app, func(ctx context.Context, q string, k int) ([]search.Result, error) {
			return app.retriever.Query(ctx, q, k, nil)
		}))

		return mcpserver.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func findCodeTool() mcp.Tool {
	return mcp.NewTool("find_code",
		mcp.WithDescription("Semantically search the indexed codebase by content-vector similarity. Returns ranked code chunks with file paths and line numbers."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the code to find"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default 10)"),
		),
	)
}

func queryCodeTool() mcp.Tool {
	return mcp.NewTool("query_code",
		mcp.WithDescription("Search the indexed codebase with dual-vector rank fusion over content and doc-comment summaries. Better recall for conceptual questions."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language question about the codebase"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default 10)"),
		),
	)
}

func makeSearchHandler(app *app, retrieve func(context.Context, string, int) ([]search.Result, error)) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", 10)
		if k <= 0 {
			k = 10
		}

		// Keep results current for agents editing the tree. Nothing may be
		// written to stdout here; it belongs to the MCP transport.
		if _, err := app.refresh(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
		}

		results, err := retrieve(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatMCPResults(query, results)), nil
	}
}

func formatMCPResults(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(results))
	for _, r := range results {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", r.Rank, r.FilePath)
		fmt.Fprintf(&sb, "**Symbol:** %s  \n**Lines:** %d-%d  \n**Score:** %.4f\n\n",
			r.Symbol, r.StartLine, r.EndLine, r.Score)
		if r.Summary != nil {
			fmt.Fprintf(&sb, "%s\n\n", *r.Summary)
		}
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", r.Content)
	}
	return sb.String()
}
