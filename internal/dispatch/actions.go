package dispatch

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/deixis/noderun/internal/editor"
)

// Helper scripts expected under the tools directory.
const (
	MinifyScript   = "uglify_js.js"
	DocsScript     = "default_build.js"
	familyNodeRuns = "run"
)

// Input is everything an argv builder may draw from.
type Input struct {
	File     string   // active file
	Args     []string // prompt answer split on whitespace
	DebugArg string
	ToolsDir string
}

// Action is one user-facing command.
type Action struct {
	Name      string
	Summary   string
	Caption   string // prompt caption; empty for no prompt
	NeedsFile bool
	Syntax    string
	Family    string // tracked process family, empty for none
	Scratch   bool   // always render into a new scratch display
	LoadEnv   bool   // layer the project's dotenv file into the environment
	Build     func(in Input) []string
}

var actions = []*Action{
	{
		Name: "run", Summary: "Run the active file with node",
		NeedsFile: true, Syntax: editor.SyntaxJavaScript, Family: familyNodeRuns, LoadEnv: true,
		Build: func(in Input) []string { return []string{"node", in.File} },
	},
	{
		Name: "debug", Summary: "Run the active file under the node debugger",
		NeedsFile: true, Syntax: editor.SyntaxJavaScript, Family: familyNodeRuns, LoadEnv: true,
		Build: func(in Input) []string { return []string{"node", in.DebugArg, in.File} },
	},
	{
		Name: "run-args", Summary: "Run the active file with arguments",
		Caption: "Arguments", NeedsFile: true, Syntax: editor.SyntaxJavaScript,
		Family: familyNodeRuns, Scratch: true, LoadEnv: true,
		Build: func(in Input) []string { return append([]string{"node", in.File}, in.Args...) },
	},
	{
		Name: "debug-args", Summary: "Run the active file under the debugger with arguments",
		Caption: "Arguments", NeedsFile: true, Syntax: editor.SyntaxJavaScript,
		Family: familyNodeRuns, LoadEnv: true,
		Build: func(in Input) []string {
			return append([]string{"node", in.DebugArg, in.File}, in.Args...)
		},
	},
	{
		Name: "npm", Summary: "Run npm with arbitrary arguments",
		Caption: "Arguments", Syntax: editor.SyntaxPlain,
		Build: func(in Input) []string { return append([]string{"npm"}, in.Args...) },
	},
	{
		Name: "npm-install", Summary: "Install the project's dependencies",
		Syntax: editor.SyntaxPlain,
		Build:  fixed("npm", "install"),
	},
	{
		Name: "npm-uninstall", Summary: "Uninstall packages",
		Caption: "Package", Syntax: editor.SyntaxPlain,
		Build: func(in Input) []string { return append([]string{"npm", "uninstall"}, in.Args...) },
	},
	{
		Name: "npm-search", Summary: "Search the npm registry",
		Caption: "Term", Syntax: editor.SyntaxPlain,
		Build: func(in Input) []string { return append([]string{"npm", "search"}, in.Args...) },
	},
	{
		Name: "npm-publish", Summary: "Publish the package",
		Syntax: editor.SyntaxPlain,
		Build:  fixed("npm", "publish"),
	},
	{
		Name: "npm-update", Summary: "Update installed packages",
		Syntax: editor.SyntaxPlain,
		Build:  fixed("npm", "update"),
	},
	{
		Name: "npm-list", Summary: "List installed packages",
		Syntax: editor.SyntaxPlain,
		Build:  fixed("npm", "ls"),
	},
	{
		Name: "minify", Summary: "Minify the active file",
		NeedsFile: true, Syntax: editor.SyntaxJavaScript,
		Build: func(in Input) []string {
			return []string{"node", filepath.Join(in.ToolsDir, MinifyScript), "-i", in.File}
		},
	},
	{
		Name: "build-docs", Summary: "Build the project documentation",
		Syntax: editor.SyntaxJavaScript, LoadEnv: true,
		Build: func(in Input) []string {
			return []string{"node", filepath.Join(in.ToolsDir, DocsScript)}
		},
	},
}

func fixed(argv ...string) func(Input) []string {
	return func(Input) []string { return slices.Clone(argv) }
}

// ErrUnknownAction is returned for an action name not in the table.
type ErrUnknownAction struct {
	Name string
}

func (e ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// Lookup returns the action named name.
func Lookup(name string) (*Action, error) {
	for _, a := range actions {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, ErrUnknownAction{Name: name}
}

// Actions returns every action in display order.
func Actions() []*Action {
	return slices.Clone(actions)
}
