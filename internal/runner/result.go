package runner

import "time"

// Category classifies how an invocation ended.
type Category string

const (
	// CategoryNone means the process ran and exited with status 0.
	CategoryNone Category = ""
	// CategoryConfig means the request was rejected before launch.
	CategoryConfig Category = "config"
	// CategoryLaunch means the OS could not start the process.
	CategoryLaunch Category = "launch"
	// CategoryExit means the process ran but exited non-zero or was killed.
	CategoryExit Category = "exit"
)

// Result holds the outcome of one invocation. It is built once and never
// modified after it is handed to a Callback.
type Result struct {
	RunID     string        // unique identifier for this run
	Argv      []string      // effective argv after substitution and filtering
	Dir       string        // working directory the process ran in
	Output    string        // combined stdout and stderr, decoded as UTF-8
	OK        bool          // true when the process exited with status 0
	Category  Category      // failure class; empty on success
	Message   string        // human-readable diagnostic on failure
	ExitCode  int           // process exit code, -1 when it never ran
	Lossy     bool          // true if undecodable bytes were replaced
	Truncated bool          // true if output exceeded the size cap
	Duration  time.Duration // wall time from launch to exit
}

// Callback receives exactly one Result per request.
type Callback func(*Result)
