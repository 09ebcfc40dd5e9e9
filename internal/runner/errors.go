package runner

import (
	"fmt"
	"strings"

	"github.com/deixis/noderun/internal/config"
)

// ConfigError is returned when a request cannot be launched because the
// settings or the request itself are unusable.
type ConfigError struct {
	Program string // logical program token, e.g. "node"
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Program == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Program, e.Reason)
}

// programInfo holds install metadata for a known program.
type programInfo struct {
	Setting string // settings key that overrides the path
	Install string // install instructions
}

// knownPrograms maps logical program tokens to their install metadata.
var knownPrograms = map[string]programInfo{
	"node": {Setting: "node_command", Install: "https://nodejs.org/en/download"},
	"npm":  {Setting: "npm_command", Install: "https://docs.npmjs.com/downloading-and-installing-node-js-and-npm"},
}

// ErrProgramUnavailable is returned when the resolved program cannot be
// found. It includes actionable instructions when the program is known.
type ErrProgramUnavailable struct {
	Name  string // logical token or argv[0]
	Path  string // the path that was looked up
	Cause error
	Info  *programInfo
}

// NewErrProgramUnavailable builds the error for token resolved to path.
func NewErrProgramUnavailable(token, path string, cause error) ErrProgramUnavailable {
	e := ErrProgramUnavailable{Name: token, Path: path, Cause: cause}
	if info, ok := knownPrograms[token]; ok {
		e.Info = &info
	}
	return e
}

func (e ErrProgramUnavailable) Error() string {
	var b strings.Builder
	if e.Path != "" && e.Path != e.Name {
		fmt.Fprintf(&b, "%s (%s) is required but could not be found", e.Name, e.Path)
	} else {
		fmt.Fprintf(&b, "%s is required but could not be found", e.Name)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	b.WriteString(".")

	if e.Info == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "\n\nInstall: %s", e.Info.Install)
	fmt.Fprintf(&b, "\nOr set %q in %s to the full path of the executable.", e.Info.Setting, config.FileName)
	return b.String()
}

func (e ErrProgramUnavailable) Unwrap() error {
	return e.Cause
}
