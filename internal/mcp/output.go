package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/noderun/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type outputParams struct {
	RunID   string `json:"run_id" jsonschema:"the run ID from a node_* or npm_* result"`
	Pattern string `json:"pattern,omitempty" jsonschema:"regular expression selecting output lines; all lines when omitted"`
}

func (h *handler) outputHandler(ctx context.Context, req *mcp.CallToolRequest, params outputParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	if h.store == nil {
		return errorResult("Run history is disabled.")
	}

	rec, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	matches, err := report.Grep(rec, params.Pattern)
	if err != nil {
		return errorResult(err.Error())
	}

	return textResult(formatOutput(rec, params.Pattern, matches))
}

func formatOutput(rec *report.Record, pattern string, matches []report.Match) string {
	var b strings.Builder
	b.WriteString(rec.Summary())
	fmt.Fprintln(&b)

	if len(matches) == 0 {
		if pattern != "" {
			fmt.Fprintf(&b, "No lines match %q.\n", pattern)
		} else {
			fmt.Fprintln(&b, "No output.")
		}
		return b.String()
	}

	if pattern != "" {
		fmt.Fprintf(&b, "%d lines match %q:\n", len(matches), pattern)
	}
	width := len(fmt.Sprint(matches[len(matches)-1].Line))
	for _, m := range matches {
		fmt.Fprintf(&b, "%*d: %s\n", width, m.Line, m.Text)
	}
	return b.String()
}
