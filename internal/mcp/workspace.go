package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/noderun/internal/config"
	"github.com/deixis/noderun/internal/runner"
)

type workspaceParams struct{}

// packageInfo holds the relevant fields of package.json.
type packageInfo struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Scripts map[string]string `json:"scripts"`
}

func (h *handler) workspaceHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ workspaceParams) (*sdkmcp.CallToolResult, any, error) {
	root := h.projectRoot()
	if root == "" {
		return errorResult("No project root. Start the server inside a project or expose a root from the client.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", root)

	pkg, err := readPackage(root)
	switch {
	case err == nil:
		name := pkg.Name
		if name == "" {
			name = "(unnamed)"
		}
		if pkg.Version != "" {
			name += "@" + pkg.Version
		}
		fmt.Fprintf(&b, "Package: %s\n", name)
		if len(pkg.Scripts) > 0 {
			scripts := make([]string, 0, len(pkg.Scripts))
			for s := range pkg.Scripts {
				scripts = append(scripts, s)
			}
			slices.Sort(scripts)
			fmt.Fprintf(&b, "Scripts: %s\n", strings.Join(scripts, ", "))
		}
	case os.IsNotExist(err):
		fmt.Fprintln(&b, "Package: (no package.json)")
	default:
		fmt.Fprintf(&b, "Package: (unreadable: %v)\n", err)
	}

	// Version probes are independent of the host loop.
	fmt.Fprintf(&b, "Node: %s\n", h.probeVersion(ctx, "node", root))
	fmt.Fprintf(&b, "npm: %s\n", h.probeVersion(ctx, "npm", root))

	settings := "(defaults)"
	if p, ok := h.cfg.(interface{ Path() string }); ok && p.Path() != "" {
		settings = p.Path()
	} else if _, err := os.Stat(filepath.Join(root, config.FileName)); err == nil {
		settings = filepath.Join(root, config.FileName)
	}
	fmt.Fprintf(&b, "Settings: %s\n", settings)

	return textResult(b.String())
}

func (h *handler) probeVersion(ctx context.Context, program, dir string) string {
	res := h.runner.Run(ctx, runner.Request{Args: []string{program, "--version"}, Dir: dir})
	if !res.OK {
		return "unavailable (" + firstLine(res.Message) + ")"
	}
	return firstLine(strings.TrimSpace(res.Output))
}

func readPackage(root string) (*packageInfo, error) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil, err
	}
	var pkg packageInfo
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	return &pkg, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
