package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/noderun/internal/dispatch"
	"github.com/deixis/noderun/internal/editor"
	"github.com/deixis/noderun/internal/report"
	"github.com/deixis/noderun/internal/runner"
)

// toolActions maps tool names to dispatch actions.
var toolActions = []struct {
	tool   string
	action string
}{
	{"node_run", "run"},
	{"node_debug", "debug"},
	{"node_run_args", "run-args"},
	{"node_debug_args", "debug-args"},
	{"npm", "npm"},
	{"npm_install", "npm-install"},
	{"npm_uninstall", "npm-uninstall"},
	{"npm_search", "npm-search"},
	{"npm_publish", "npm-publish"},
	{"npm_update", "npm-update"},
	{"npm_list", "npm-list"},
	{"node_minify", "minify"},
	{"node_build_docs", "build-docs"},
}

type actionParams struct {
	File string `json:"file,omitempty" jsonschema:"absolute path of the script; required by node_run, node_debug, node_run_args, node_debug_args and node_minify"`
	Dir  string `json:"dir,omitempty" jsonschema:"working directory when no file is given; defaults to the project root"`
	Args string `json:"args,omitempty" jsonschema:"arguments for tools that take them, split on whitespace"`
}

func registerActionTools(s *mcp.Server, h *handler) {
	for _, ta := range toolActions {
		a, err := dispatch.Lookup(ta.action)
		if err != nil {
			panic(err) // table and dispatch.Actions disagree
		}
		desc := a.Summary + "."
		if a.Caption != "" {
			desc += fmt.Sprintf(" Takes %s via args.", strings.ToLower(a.Caption))
		}
		if a.NeedsFile {
			desc += " Requires file."
		}
		mcp.AddTool(s, &mcp.Tool{Name: ta.tool, Description: desc}, h.actionHandler(ta.action))
	}
}

func (h *handler) actionHandler(action string) func(context.Context, *mcp.CallToolRequest, actionParams) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, params actionParams) (*mcp.CallToolResult, any, error) {
		res, err := h.dispatch(ctx, action, params)
		if err != nil {
			return errorResult(err.Error())
		}
		if res == nil {
			return textResult("Nothing was run.")
		}
		text := formatRun(action, res)
		if res.Category == runner.CategoryConfig || res.Category == runner.CategoryLaunch {
			return errorResult(text)
		}
		return textResult(text)
	}
}

// dispatch runs action on the host loop against an in-memory window and
// waits for its result. A nil result means nothing was launched.
func (h *handler) dispatch(ctx context.Context, action string, params actionParams) (*runner.Result, error) {
	dir := params.Dir
	if dir == "" {
		dir = h.projectRoot()
	}
	var folders []string
	if dir != "" {
		folders = []string{dir}
	}
	file := params.File
	if file != "" && dir != "" && !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	w := editor.NewMemory(file, folders...)
	w.Inputs = []string{params.Args}

	done := make(chan *runner.Result, 1)
	d := &dispatch.Dispatcher{
		Config:      h.cfg,
		Runner:      h.runner,
		Store:       h.store,
		Logger:      h.logger,
		ProjectRoot: h.projectRoot(),
		OnComplete: func(_ string, res *runner.Result) {
			done <- res
		},
	}

	errc := make(chan error, 1)
	h.loop.Post(func() {
		errc <- d.Dispatch(ctx, dispatch.WindowContext{W: w}, action)
	})

	select {
	case err := <-errc:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func formatRun(action string, res *runner.Result) string {
	var b strings.Builder
	b.WriteString(report.FromResult(action, res).Summary())
	if res.Lossy {
		fmt.Fprintln(&b, "Output contained invalid UTF-8; undecodable bytes were replaced.")
	}
	if strings.TrimSpace(res.Output) != "" {
		fmt.Fprintln(&b)
		b.WriteString(res.Output)
	}
	return b.String()
}
