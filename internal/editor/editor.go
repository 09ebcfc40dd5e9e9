// Package editor defines the host UI capabilities the dispatch layer
// renders into, and two hosts implementing them: a terminal and an
// in-memory window.
package editor

// Display syntaxes assigned to rendered output.
const (
	SyntaxJavaScript = "javascript"
	SyntaxPlain      = "plain"
)

// View is an open document.
type View interface {
	FileName() string // empty for unsaved buffers
	IsDirty() bool
	Save() error
}

// Panel is a persistent output surface that is cleared on every write.
type Panel interface {
	SetSyntax(syntax string)
	Replace(text string)
}

// Window is the set of UI primitives a command may use. All methods are
// called from the host loop.
type Window interface {
	ActiveView() View // nil when no document is focused
	Folders() []string
	// ShowInput asks for one line of text. Exactly one of onDone or
	// onCancel is called.
	ShowInput(caption, initial string, onDone func(string), onCancel func())
	NewScratch(title, syntax, text string)
	OutputPanel(name string) Panel // created on first use, then reused
	ShowPanel(name string)
	StatusMessage(msg string)
}
