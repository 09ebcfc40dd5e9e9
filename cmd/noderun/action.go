package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deixis/noderun/internal/config"
	"github.com/deixis/noderun/internal/dispatch"
	"github.com/deixis/noderun/internal/editor"
	"github.com/deixis/noderun/internal/host"
	"github.com/deixis/noderun/internal/runner"
)

// commandNames maps subcommand names to dispatch actions where they differ.
var commandNames = map[string]string{
	"npm-install":   "install",
	"npm-uninstall": "uninstall",
	"npm-search":    "search",
	"npm-publish":   "publish",
	"npm-update":    "update",
	"npm-list":      "list",
}

func actionCommands(opts *options) []*cobra.Command {
	var cmds []*cobra.Command
	for _, a := range dispatch.Actions() {
		name := a.Name
		if alias, ok := commandNames[a.Name]; ok {
			name = alias
		}
		use := name
		switch {
		case a.NeedsFile && a.Caption != "":
			use += " [file] [args...]"
		case a.NeedsFile:
			use += " [file]"
		case a.Caption != "":
			use += " [" + strings.ToLower(a.Caption) + "...]"
		}

		args := cobra.ArbitraryArgs
		if a.Caption == "" {
			if a.NeedsFile {
				args = cobra.MaximumNArgs(1)
			} else {
				args = cobra.NoArgs
			}
		}

		action := a
		c := &cobra.Command{
			Use:   use,
			Short: action.Summary,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, opts, action, args)
			},
		}
		if action.Caption != "" {
			c.Long = action.Summary + ".\n\nWithout arguments the " + strings.ToLower(action.Caption) +
				" are read from standard input. Pass flags meant for the program after --."
		}
		cmds = append(cmds, c)
	}
	return cmds
}

// runAction dispatches one action and runs the host loop on the calling
// goroutine until it completes.
func runAction(cmd *cobra.Command, opts *options, a *dispatch.Action, args []string) error {
	if a.NeedsFile && opts.file == "" && len(args) > 0 {
		opts.file, args = args[0], args[1:]
	}

	logger := opts.newLogger(cmd)
	fp, err := opts.provider()
	if err != nil {
		return err
	}
	var provider config.Provider = fp
	if opts.newTab {
		provider = newTabProvider{fp}
	}

	in := cmd.InOrStdin()
	if a.Caption != "" && len(args) > 0 {
		// Answer the prompt from the command line instead of stdin.
		in = strings.NewReader(strings.Join(args, " ") + "\n")
	}
	w := editor.NewTerminal(cmd.OutOrStdout(), in, logger)
	if opts.file != "" {
		if w.File, err = filepath.Abs(opts.file); err != nil {
			return err
		}
	}
	if w.Dirs, err = folders(opts); err != nil {
		return err
	}

	loop := host.NewLoop()
	r := runner.New(provider, loop, runner.WithLogger(logger))

	var dispatchErr error
	d := &dispatch.Dispatcher{
		Config:      provider,
		Runner:      r,
		Store:       opts.history(provider.Config()),
		Logger:      logger,
		ProjectRoot: fp.ProjectRoot(),
		OnComplete: func(_ string, res *runner.Result) {
			if res != nil {
				logger.Debug("run complete", "run", res.RunID, "ok", res.OK, "exit", res.ExitCode)
			}
			loop.Stop()
		},
	}
	loop.Post(func() {
		dispatchErr = d.Dispatch(cmd.Context(), dispatch.WindowContext{W: w}, a.Name)
	})

	if err := loop.Run(cmd.Context()); err != nil {
		return fmt.Errorf("%s interrupted: %w", a.Name, err)
	}
	return dispatchErr
}

func folders(opts *options) ([]string, error) {
	if len(opts.folders) == 0 {
		dir, err := opts.startDir()
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	out := make([]string, 0, len(opts.folders))
	for _, f := range opts.folders {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
