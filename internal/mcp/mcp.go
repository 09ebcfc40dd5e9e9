// Package mcp provides the noderun MCP server: one tool per dispatch
// action plus history and workspace inspection.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/noderun"
	"github.com/deixis/noderun/internal/config"
	"github.com/deixis/noderun/internal/host"
	"github.com/deixis/noderun/internal/report"
	"github.com/deixis/noderun/internal/runner"
)

//go:embed instructions.md
var Instructions string

// retargeter is implemented by providers that can follow the client's
// workspace root, such as *config.FileProvider.
type retargeter interface {
	Retarget(dir string) error
	ProjectRoot() string
}

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg    config.Provider
	runner *runner.Runner
	loop   *host.Loop
	store  report.Store
	logger *log.Logger

	mu   sync.RWMutex
	root string // default working directory
}

// ServerOption configures the server.
type ServerOption func(*handler)

// WithLogger sets the server's logger.
func WithLogger(l *log.Logger) ServerOption {
	return func(h *handler) {
		h.logger = l
	}
}

// NewServer creates an MCP server with every tool registered. Results of
// r are delivered on loop, which the caller must keep running.
func NewServer(cfg config.Provider, r *runner.Runner, loop *host.Loop, store report.Store, root string, opts ...ServerOption) *mcp.Server {
	h := &handler{
		cfg:    cfg,
		runner: r,
		loop:   loop,
		store:  store,
		logger: log.Default(),
		root:   root,
	}
	for _, o := range opts {
		o(h)
	}

	s := mcp.NewServer(&mcp.Implementation{Name: "noderun", Version: noderun.Version}, &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateRootFromClient(ctx, req.Session)
		},
	})

	registerActionTools(s, h)

	mcp.AddTool(s, &mcp.Tool{
		Name: "node_output",
		Description: `Show the stored output of a previous run.

Pass the run_id printed by any node_* or npm_* tool. An optional pattern
(regular expression) keeps only matching lines, with their line numbers.`,
	}, h.outputHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "node_workspace",
		Description: "Summarise the project: package name and version, npm scripts, node and npm versions, and the settings file in use.",
	}, h.workspaceHandler)

	return s
}

func (h *handler) projectRoot() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.root
}

// updateRootFromClient asks the client for its roots and, when the first
// one is a local directory, makes it the default working directory.
func (h *handler) updateRootFromClient(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}
	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	root := u.Path
	if rt, ok := h.cfg.(retargeter); ok {
		if err := rt.Retarget(u.Path); err != nil {
			h.logger.Warn("ignoring client root", "root", u.Path, "err", err)
			return
		}
		root = rt.ProjectRoot()
	}
	h.mu.Lock()
	h.root = root
	h.mu.Unlock()
	h.logger.Debug("workspace root from client", "root", root)
}

func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
