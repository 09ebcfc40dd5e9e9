// Package report persists completed runs so their output can be
// inspected after the editor surface has moved on.
package report

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/deixis/noderun/internal/runner"
)

// ErrNotFound is returned by Load when no record exists for a run ID.
var ErrNotFound = errors.New("run not found")

// Store persists and retrieves run records.
type Store interface {
	Save(rec *Record) error
	Load(runID string) (*Record, error)
}

// Record is the persisted form of one completed invocation.
type Record struct {
	ID       string          `json:"id"`
	Action   string          `json:"action"`
	Argv     []string        `json:"argv"`
	Dir      string          `json:"dir,omitempty"`
	Output   string          `json:"output"`
	OK       bool            `json:"ok"`
	Category runner.Category `json:"category,omitempty"`
	Message  string          `json:"message,omitempty"`
	ExitCode int             `json:"exit_code"`

	Lossy     bool `json:"lossy,omitempty"`     // output contained invalid UTF-8
	Truncated bool `json:"truncated,omitempty"` // output exceeded max_output

	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// FromResult converts a runner result into a record for action.
func FromResult(action string, res *runner.Result) *Record {
	return &Record{
		ID:        res.RunID,
		Action:    action,
		Argv:      res.Argv,
		Dir:       res.Dir,
		Output:    res.Output,
		OK:        res.OK,
		Category:  res.Category,
		Message:   res.Message,
		ExitCode:  res.ExitCode,
		Lossy:     res.Lossy,
		Truncated: res.Truncated,
		Started:   time.Now().Add(-res.Duration),
		Duration:  res.Duration,
	}
}

// Status is a short outcome label: "ok", "exit N", "launch failed" or
// "config error".
func (r *Record) Status() string {
	switch {
	case r.OK:
		return "ok"
	case r.Category == runner.CategoryExit && r.ExitCode >= 0:
		return fmt.Sprintf("exit %d", r.ExitCode)
	case r.Category == runner.CategoryExit:
		return "terminated"
	case r.Category == runner.CategoryLaunch:
		return "launch failed"
	default:
		return "config error"
	}
}

// Summary renders the record header: run ID, action, command line and
// outcome.
func (r *Record) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	fmt.Fprintf(&b, "Action: %s\n", r.Action)
	fmt.Fprintf(&b, "Command: %s\n", strings.Join(r.Argv, " "))
	if r.Dir != "" {
		fmt.Fprintf(&b, "Dir: %s\n", r.Dir)
	}
	fmt.Fprintf(&b, "Status: %s", r.Status())
	if r.Duration > 0 {
		fmt.Fprintf(&b, " (%s)", r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(&b)
	if r.Truncated {
		fmt.Fprintln(&b, "Output was truncated.")
	}
	return b.String()
}

// Match is one output line selected by Grep. Line is 1-based.
type Match struct {
	Line int
	Text string
}

// Grep returns the output lines of rec matching the regular expression
// pattern. An empty pattern matches every line.
func Grep(rec *Record, pattern string) ([]Match, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
		}
	}

	var out []Match
	lines := strings.Split(strings.TrimSuffix(rec.Output, "\n"), "\n")
	for i, line := range lines {
		if re == nil || re.MatchString(line) {
			out = append(out, Match{Line: i + 1, Text: line})
		}
	}
	return out, nil
}
