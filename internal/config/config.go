// Package config loads and validates the optional .noderun.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in the project root.
const FileName = ".noderun.yaml"

// Default values for runner configuration.
const (
	DefaultNodeCommand = "node"
	DefaultNPMCommand  = "npm"
	DefaultDebugArg    = "inspect"
	DefaultToolsDir    = "tools"
	DefaultEnvFile     = ".env"
	DefaultMaxOutput   = 1 << 20 // 1 MB
)

// Config holds the parsed .noderun.yaml configuration.
// Pointer fields distinguish "unset" from an explicit zero value.
type Config struct {
	NodeCommand    *string `yaml:"node_command"`      // path to the node executable
	NPMCommand     *string `yaml:"npm_command"`       // path to the npm executable
	NodePath       string  `yaml:"node_path"`         // exported as NODE_PATH to node runs
	SaveFirst      bool    `yaml:"save_first"`        // save a dirty active document before running
	OutputToNewTab bool    `yaml:"output_to_new_tab"` // scratch display instead of the output panel
	KillPrevious   *bool   `yaml:"kill_previous"`     // kill the previous run before starting a new one
	RawDebugArg    string  `yaml:"debug_arg"`         // node subcommand/flag used for debug runs
	RawToolsDir    string  `yaml:"tools_dir"`         // directory holding uglify_js.js and default_build.js
	RawEnvFile     *string `yaml:"env_file"`          // dotenv file read from the working directory
	RawTimeout     string  `yaml:"timeout"`           // e.g. "5m", "30s"; empty means no timeout
	RawMaxOutput   int     `yaml:"max_output"`        // bytes
	HistoryDir     string  `yaml:"history_dir"`       // where run records are persisted
}

// Node returns the configured node executable. An explicitly empty value
// is returned as-is so callers can report it.
func (c *Config) Node() string {
	if c.NodeCommand == nil {
		return DefaultNodeCommand
	}
	return *c.NodeCommand
}

// NPM returns the configured npm executable.
func (c *Config) NPM() string {
	if c.NPMCommand == nil {
		return DefaultNPMCommand
	}
	return *c.NPMCommand
}

// ShouldKillPrevious reports whether a run kills the previously tracked run.
func (c *Config) ShouldKillPrevious() bool {
	if c.KillPrevious == nil {
		return true
	}
	return *c.KillPrevious
}

// DebugArg returns the argument inserted after node for debug runs.
func (c *Config) DebugArg() string {
	if c.RawDebugArg != "" {
		return c.RawDebugArg
	}
	return DefaultDebugArg
}

// ToolsDir returns the helper-script directory, resolved against root
// when relative.
func (c *Config) ToolsDir(root string) string {
	dir := c.RawToolsDir
	if dir == "" {
		dir = DefaultToolsDir
	}
	if filepath.IsAbs(dir) || root == "" {
		return dir
	}
	return filepath.Join(root, dir)
}

// EnvFile returns the dotenv file name, or "" when disabled.
func (c *Config) EnvFile() string {
	if c.RawEnvFile == nil {
		return DefaultEnvFile
	}
	return *c.RawEnvFile
}

// Timeout returns the configured timeout, or 0 when runs are unbounded.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// HistoryPath returns the directory for persisted run records.
func (c *Config) HistoryPath() string {
	if c.HistoryDir != "" {
		return c.HistoryDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "noderun", "runs")
	}
	return filepath.Join(os.TempDir(), "noderun-runs")
}

// LoadResult holds the parsed config and the discovered project root.
type LoadResult struct {
	Config      *Config
	ProjectRoot string // directory containing package.json; falls back to the start dir
	Path        string // settings file that was read, empty when defaults are used
}

// Load reads the settings file from the project root.
// The project root is discovered by walking upward from dir looking for
// package.json. If no settings file exists, a default Config is returned.
func Load(dir string) (*LoadResult, error) {
	root, err := findProjectRoot(dir)
	if err != nil {
		// No package.json found; use dir as root.
		root = dir
	}
	return LoadFile(filepath.Join(root, FileName), root)
}

// LoadFile reads settings from an explicit path. A missing file yields defaults.
func LoadFile(path, root string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, ProjectRoot: root}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &LoadResult{Config: cfg, ProjectRoot: root, Path: path}, nil
}

// findProjectRoot walks upward from dir looking for a directory containing package.json.
func findProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("package.json not found")
		}
		dir = parent
	}
}
