// Package runner launches external programs off the interactive host and
// delivers each outcome exactly once back on the host.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/deixis/noderun/internal/config"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// waitDelay bounds how long Wait keeps reading output after the program
// exits or is killed.
const waitDelay = 2 * time.Second

// Host runs callbacks on the interactive context. Implemented by host.Loop.
type Host interface {
	Post(fn func())
}

// Request describes one external-process launch.
type Request struct {
	Args        []string          // program token first, e.g. ["node", "app.js"]
	Dir         string            // working directory; empty inherits the current one
	Env         map[string]string // overrides layered on top of the process environment
	FilterEmpty bool              // drop empty arguments before launch
	Family      string            // tracked process family, e.g. "run"; empty disables tracking

	token string // logical program token before substitution
}

// Runner executes requests, one goroutine per request.
type Runner struct {
	cfg    config.Provider
	host   Host
	logger *log.Logger

	timeout    time.Duration
	hasTimeout bool
	maxOutput  int

	mu       sync.Mutex
	families map[string]trackedProcess
}

type trackedProcess struct {
	runID string
	proc  *os.Process
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for launch tracing.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithTimeout bounds every run. Zero disables the bound and overrides
// any timeout from the settings.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
		r.hasTimeout = true
	}
}

// WithMaxOutput caps captured output in bytes.
func WithMaxOutput(n int) Option {
	return func(r *Runner) {
		r.maxOutput = n
	}
}

// New creates a Runner that reads program paths from cfg and delivers
// results on h.
func New(cfg config.Provider, h Host, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		host:     h,
		logger:   log.Default(),
		families: make(map[string]trackedProcess),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Prepare validates req and applies settings: empty-argument filtering,
// node/npm path substitution and NODE_PATH injection. The returned
// request is ready to launch.
func (r *Runner) Prepare(req Request) (Request, error) {
	args := slices.Clone(req.Args)
	if req.FilterEmpty {
		args = slices.DeleteFunc(args, func(a string) bool { return a == "" })
	}
	if len(args) == 0 {
		return req, &ConfigError{Reason: "empty argv"}
	}

	cfg := r.cfg.Config()
	env := maps.Clone(req.Env)
	token := args[0]

	switch token {
	case "node":
		path := cfg.Node()
		if path == "" {
			return req, &ConfigError{Program: token, Reason: "node_command is empty; set it to the node executable"}
		}
		args[0] = path
		if cfg.NodePath != "" {
			if _, ok := env["NODE_PATH"]; !ok {
				if env == nil {
					env = make(map[string]string, 1)
				}
				env["NODE_PATH"] = cfg.NodePath
			}
		}
	case "npm":
		path := cfg.NPM()
		if path == "" {
			return req, &ConfigError{Program: token, Reason: "npm_command is empty; set it to the npm executable"}
		}
		args[0] = path
	case "":
		return req, &ConfigError{Reason: "empty program name"}
	}

	req.Args = args
	req.Env = env
	req.token = token
	return req, nil
}

// Run executes req synchronously and always returns a Result. It is the
// body of every worker started by Start.
func (r *Runner) Run(ctx context.Context, req Request) *Result {
	runID := uuid.New().String()
	prepared, err := r.Prepare(req)
	if err != nil {
		return configFailure(runID, req, err)
	}
	return r.run(ctx, prepared, runID)
}

// Start launches req on its own goroutine and returns its run ID without
// waiting. cb is posted to the host exactly once. A request rejected by
// Prepare never spawns a goroutine or a process; its failure is posted
// immediately.
func (r *Runner) Start(ctx context.Context, req Request, cb Callback) string {
	runID := uuid.New().String()

	var once sync.Once
	deliver := func(res *Result) {
		once.Do(func() {
			r.host.Post(func() {
				if cb != nil {
					cb(res)
				}
			})
		})
	}

	prepared, err := r.Prepare(req)
	if err != nil {
		r.logger.Debug("rejected", "run", runID, "argv", req.Args, "err", err)
		deliver(configFailure(runID, req, err))
		return runID
	}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				deliver(launchFailure(&Result{RunID: runID, Argv: prepared.Args, Dir: prepared.Dir, ExitCode: -1},
					fmt.Errorf("runner panic: %v", p)))
			}
		}()
		deliver(r.run(ctx, prepared, runID))
	}()
	return runID
}

// KillFamily kills the process currently tracked for family, together with
// any children it spawned. It reports whether a kill signal was delivered.
// Only the exact handle recorded at launch is signalled.
func (r *Runner) KillFamily(family string) bool {
	if family == "" {
		return false
	}
	r.mu.Lock()
	t, ok := r.families[family]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if err := killProcess(t.proc); err != nil {
		r.logger.Debug("kill previous failed", "family", family, "run", t.runID, "err", err)
		return false
	}
	r.logger.Debug("killed previous run", "family", family, "run", t.runID, "pid", t.proc.Pid)
	return true
}

// Tracked returns the pid tracked for family, or 0.
func (r *Runner) Tracked(family string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.families[family]; ok {
		return t.proc.Pid
	}
	return 0
}

func (r *Runner) run(ctx context.Context, req Request, runID string) *Result {
	res := &Result{RunID: runID, Argv: req.Args, Dir: req.Dir, ExitCode: -1}

	lookup := req.Args[0]
	if strings.ContainsRune(lookup, filepath.Separator) && !filepath.IsAbs(lookup) && req.Dir != "" {
		lookup = filepath.Join(req.Dir, lookup)
	}
	path, err := exec.LookPath(lookup)
	if err != nil {
		return launchFailure(res, NewErrProgramUnavailable(req.token, req.Args[0], err))
	}

	if timeout := r.limitTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, req.Args[1:]...)
	cmd.Dir = req.Dir
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)
	if len(req.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), req.Env)
	}

	var out bytes.Buffer
	w := &limitWriter{buf: &out, limit: r.limitOutput()}
	cmd.Stdout = w
	cmd.Stderr = w

	r.logger.Debug("launching", "run", runID, "argv", req.Args, "dir", req.Dir)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return launchFailure(res, fmt.Errorf("starting %s: %w", req.Args[0], err))
	}

	r.track(req.Family, runID, cmd.Process)
	defer r.untrack(req.Family, runID)

	waitErr := cmd.Wait()
	res.Duration = time.Since(start)
	b := out.Bytes()
	if w.truncated {
		b = trimPartialRune(b)
	}
	res.Output, res.Lossy = decode(b)
	res.Truncated = w.truncated

	switch {
	case waitErr == nil:
		res.OK = true
		res.ExitCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Category = CategoryExit
		res.Message = fmt.Sprintf("%s timed out after %s", filepath.Base(req.Args[0]), r.limitTimeout())
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// Exited cleanly; a background child kept the output open.
		res.OK = true
		res.ExitCode = 0
	default:
		res.Category = CategoryExit
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode >= 0 {
				res.Message = fmt.Sprintf("%s exited with status %d", filepath.Base(req.Args[0]), res.ExitCode)
			} else {
				res.Message = fmt.Sprintf("%s was terminated: %v", filepath.Base(req.Args[0]), waitErr)
			}
		} else {
			res.Message = fmt.Sprintf("waiting for %s: %v", filepath.Base(req.Args[0]), waitErr)
		}
	}
	if !res.OK && strings.TrimSpace(res.Output) == "" {
		res.Output = res.Message + "\n"
	}

	r.logger.Debug("finished", "run", runID, "exit", res.ExitCode, "duration", res.Duration, "bytes", out.Len())
	return res
}

func (r *Runner) limitTimeout() time.Duration {
	if r.hasTimeout {
		return r.timeout
	}
	return r.cfg.Config().Timeout()
}

func (r *Runner) limitOutput() int {
	if r.maxOutput > 0 {
		return r.maxOutput
	}
	return r.cfg.Config().MaxOutputBytes()
}

func (r *Runner) track(family, runID string, proc *os.Process) {
	if family == "" || proc == nil {
		return
	}
	r.mu.Lock()
	r.families[family] = trackedProcess{runID: runID, proc: proc}
	r.mu.Unlock()
}

func (r *Runner) untrack(family, runID string) {
	if family == "" {
		return
	}
	r.mu.Lock()
	if t, ok := r.families[family]; ok && t.runID == runID {
		delete(r.families, family)
	}
	r.mu.Unlock()
}

func configFailure(runID string, req Request, err error) *Result {
	return &Result{
		RunID:    runID,
		Argv:     req.Args,
		Dir:      req.Dir,
		Output:   err.Error() + "\n",
		Category: CategoryConfig,
		Message:  err.Error(),
		ExitCode: -1,
	}
}

func launchFailure(res *Result, err error) *Result {
	res.Category = CategoryLaunch
	res.Message = err.Error()
	res.Output = err.Error() + "\n"
	return res
}

// mergeEnv overlays overrides on base, keeping base order and appending
// new keys sorted for stable output.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if v, ok := overrides[k]; ok {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

// decode returns b as text, replacing invalid UTF-8 with U+FFFD.
func decode(b []byte) (string, bool) {
	if utf8.Valid(b) {
		return string(b), false
	}
	text, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD"), true
	}
	return string(text), true
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of b
// by truncation.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if !utf8.RuneStart(b[len(b)-i]) {
			continue
		}
		if !utf8.FullRune(b[len(b)-i:]) {
			return b[:len(b)-i]
		}
		break
	}
	return b
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf       *bytes.Buffer
	limit     int
	truncated bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.truncated = w.truncated || len(p) > 0
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
