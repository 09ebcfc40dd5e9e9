// Command noderun runs Node.js scripts and npm commands for a project and
// keeps the output of every run.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/deixis/noderun"
	"github.com/deixis/noderun/internal/config"
	"github.com/deixis/noderun/internal/report"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	file       string
	folders    []string
	newTab     bool
	verbose    bool
	noHistory  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		log.NewWithOptions(os.Stderr, log.Options{Prefix: "noderun"}).Error(err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "noderun",
		Short: "Run Node.js scripts and npm commands",
		Long: titleStyle.Render("noderun") + subtitleStyle.Render(" - run Node.js scripts and npm commands") + `

Every action builds a command line, runs it in the background and prints
the captured output. Settings are read from ` + config.FileName + ` in the
project root (the nearest directory with a package.json).

` + subtitleStyle.Render("Examples:") + `
  noderun run app.js            Run a script
  noderun run-args app.js --x   Run a script with arguments
  noderun install               npm install in the current project
  noderun show <run-id> Error   Re-read a stored run, keeping matching lines`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "settings file (default is "+config.FileName+" in the project root)")
	pf.StringVar(&opts.file, "file", "", "active file")
	pf.StringSliceVar(&opts.folders, "folder", nil, "open project folder (repeatable; default is the current directory)")
	pf.BoolVar(&opts.newTab, "new-tab", false, "print output as a new scratch display instead of the output panel")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log every launched command line")
	pf.BoolVar(&opts.noHistory, "no-history", false, "do not store run output")

	for _, c := range actionCommands(opts) {
		root.AddCommand(c)
	}
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newMCPCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), noderun.Version)
		},
	})

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\nSee '%s --help'", err, c.CommandPath())
	})
	return root
}

// newLogger creates the process-wide logger on cmd's error stream.
func (o *options) newLogger(cmd *cobra.Command) *log.Logger {
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "noderun"})
	if o.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// provider loads settings for the working directory.
func (o *options) provider() (*config.FileProvider, error) {
	dir, err := o.startDir()
	if err != nil {
		return nil, err
	}
	p, err := config.NewFileProvider(dir, o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return p, nil
}

// startDir is where settings discovery begins: the active file's
// directory, else the first folder, else the current directory.
func (o *options) startDir() (string, error) {
	switch {
	case o.file != "":
		abs, err := filepath.Abs(o.file)
		if err != nil {
			return "", err
		}
		return filepath.Dir(abs), nil
	case len(o.folders) > 0:
		return filepath.Abs(o.folders[0])
	default:
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		return dir, nil
	}
}

func (o *options) history(cfg *config.Config) report.Store {
	if o.noHistory {
		return nil
	}
	return report.NewDiskStore(cfg.HistoryPath())
}

// newTabProvider forces output into scratch displays.
type newTabProvider struct {
	config.Provider
}

func (p newTabProvider) Config() *config.Config {
	c := *p.Provider.Config()
	c.OutputToNewTab = true
	return &c
}
