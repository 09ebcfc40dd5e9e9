package dispatch

import (
	"errors"
	"path/filepath"

	"github.com/deixis/noderun/internal/editor"
)

var (
	// ErrNothingRunnable is returned when no working directory can be
	// derived: there is no active file and no open folder.
	ErrNothingRunnable = errors.New("nothing to run: no active file and no open folder")

	// ErrNoActiveFile is returned by actions that operate on the active
	// file when there is none.
	ErrNoActiveFile = errors.New("no active file")
)

// Context is what a command knows about where it was invoked.
type Context interface {
	ActiveFile() string // empty when the view is unsaved or absent
	WorkingDir() (string, error)
	Window() editor.Window
	View() editor.View // may be nil
}

// TextContext is bound to one view. Its working directory is the
// directory of the view's file.
type TextContext struct {
	W editor.Window
	V editor.View
}

// NewTextContext binds to the window's active view.
func NewTextContext(w editor.Window) TextContext {
	return TextContext{W: w, V: w.ActiveView()}
}

func (c TextContext) ActiveFile() string    { return fileName(c.V) }
func (c TextContext) Window() editor.Window { return c.W }
func (c TextContext) View() editor.View     { return c.V }

func (c TextContext) WorkingDir() (string, error) {
	f := c.ActiveFile()
	if f == "" {
		return "", ErrNothingRunnable
	}
	return filepath.Dir(f), nil
}

// WindowContext resolves against the whole window: the active file's
// directory, else the first open folder.
type WindowContext struct {
	W editor.Window
}

func (c WindowContext) ActiveFile() string    { return fileName(c.W.ActiveView()) }
func (c WindowContext) Window() editor.Window { return c.W }
func (c WindowContext) View() editor.View     { return c.W.ActiveView() }

func (c WindowContext) WorkingDir() (string, error) {
	if f := c.ActiveFile(); f != "" {
		return filepath.Dir(f), nil
	}
	if folders := c.W.Folders(); len(folders) > 0 && folders[0] != "" {
		return folders[0], nil
	}
	return "", ErrNothingRunnable
}

func fileName(v editor.View) string {
	if v == nil {
		return ""
	}
	return v.FileName()
}
