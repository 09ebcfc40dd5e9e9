// Package dispatch maps user-facing actions onto runner requests and
// renders each result into the editor window it came from. It is
// consumed by both the CLI and the MCP server.
package dispatch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/deixis/noderun/internal/config"
	"github.com/deixis/noderun/internal/editor"
	"github.com/deixis/noderun/internal/report"
	"github.com/deixis/noderun/internal/runner"
)

// Output surfaces.
const (
	PanelName    = "node"
	ScratchTitle = "Node Output"
)

// Launcher starts requests in the background. Implemented by
// runner.Runner.
type Launcher interface {
	Start(ctx context.Context, req runner.Request, cb runner.Callback) string
	KillFamily(family string) bool
}

// Dispatcher holds shared dependencies for all actions. Dispatch and
// every callback it schedules run on the host loop.
type Dispatcher struct {
	Config      config.Provider
	Runner      Launcher
	Store       report.Store // optional run history
	Logger      *log.Logger
	ProjectRoot string // tools_dir is resolved against this; defaults to the working dir

	// OnComplete is called exactly once per Dispatch, with nil when
	// nothing was launched.
	OnComplete func(action string, res *runner.Result)
}

// Dispatch runs the action called name in context c. Errors detected
// before launch are returned and also shown as a status message.
// Process failures are not errors here; they arrive as results.
func (d *Dispatcher) Dispatch(ctx context.Context, c Context, name string) error {
	a, err := Lookup(name)
	if err != nil {
		d.complete(name, nil)
		return err
	}
	w := c.Window()

	dir, err := c.WorkingDir()
	if err != nil {
		return d.reject(w, a, err)
	}
	file := c.ActiveFile()
	if a.NeedsFile && file == "" {
		return d.reject(w, a, ErrNoActiveFile)
	}

	if a.Caption == "" {
		d.launch(ctx, c, a, dir, file, nil)
		return nil
	}
	w.ShowInput(a.Caption, "",
		func(text string) {
			d.launch(ctx, c, a, dir, file, strings.Fields(text))
		},
		func() {
			d.logger().Debug("prompt cancelled", "action", a.Name)
			d.complete(a.Name, nil)
		})
	return nil
}

func (d *Dispatcher) reject(w editor.Window, a *Action, err error) error {
	w.StatusMessage(err.Error())
	d.complete(a.Name, nil)
	return err
}

func (d *Dispatcher) launch(ctx context.Context, c Context, a *Action, dir, file string, args []string) {
	cfg := d.Config.Config()
	w := c.Window()

	if cfg.SaveFirst {
		if v := c.View(); v != nil && v.IsDirty() {
			if err := v.Save(); err != nil {
				d.logger().Warn("save before run failed", "file", file, "err", err)
			}
		}
	}
	if a.Family != "" && cfg.ShouldKillPrevious() {
		d.Runner.KillFamily(a.Family)
	}

	root := d.ProjectRoot
	if root == "" {
		root = dir
	}
	req := runner.Request{
		Args: a.Build(Input{
			File:     file,
			Args:     args,
			DebugArg: cfg.DebugArg(),
			ToolsDir: cfg.ToolsDir(root),
		}),
		Dir:         dir,
		FilterEmpty: true,
		Family:      a.Family,
	}
	if a.LoadEnv {
		req.Env = d.loadEnv(dir, cfg.EnvFile())
	}

	w.StatusMessage(strings.Join(req.Args, " "))
	id := d.Runner.Start(ctx, req, func(res *runner.Result) {
		d.finish(w, a, res)
	})
	d.logger().Debug("dispatched", "action", a.Name, "run", id)
}

func (d *Dispatcher) finish(w editor.Window, a *Action, res *runner.Result) {
	Render(w, a, res, d.Config.Config().OutputToNewTab)
	if !res.OK {
		w.StatusMessage(res.Message)
	}
	if d.Store != nil {
		if err := d.Store.Save(report.FromResult(a.Name, res)); err != nil {
			d.logger().Warn("saving run history", "run", res.RunID, "err", err)
		}
	}
	d.complete(a.Name, res)
}

func (d *Dispatcher) complete(action string, res *runner.Result) {
	if d.OnComplete != nil {
		d.OnComplete(action, res)
	}
}

// loadEnv reads the dotenv file from dir. A missing file yields no
// overrides.
func (d *Dispatcher) loadEnv(dir, name string) map[string]string {
	if name == "" {
		return nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, name)
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger().Warn("ignoring env file", "path", path, "err", err)
		}
		return nil
	}
	return env
}

func (d *Dispatcher) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}

// Render writes res into w. Whitespace-only output produces no UI
// change. Results go to a scratch display when newTab is set or the
// action forces one, otherwise into the shared output panel.
func Render(w editor.Window, a *Action, res *runner.Result, newTab bool) {
	if strings.TrimSpace(res.Output) == "" {
		return
	}
	if newTab || a.Scratch {
		w.NewScratch(ScratchTitle, a.Syntax, res.Output)
		return
	}
	p := w.OutputPanel(PanelName)
	p.SetSyntax(a.Syntax)
	p.Replace(res.Output)
	w.ShowPanel(PanelName)
}
