package editor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	syntaxStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
)

// Terminal is a Window backed by a terminal session. Panels and scratch
// displays are printed to Out; prompts read lines from In.
type Terminal struct {
	Out     io.Writer
	In      *bufio.Reader
	Logger  *log.Logger
	File    string   // active document, empty for none
	Dirs    []string // open project folders
	Compact bool     // omit headers, print raw output only

	panels map[string]*termPanel
}

// NewTerminal creates a terminal window.
func NewTerminal(out io.Writer, in io.Reader, logger *log.Logger) *Terminal {
	return &Terminal{
		Out:    out,
		In:     bufio.NewReader(in),
		Logger: logger,
		panels: make(map[string]*termPanel),
	}
}

type termView struct {
	path string
}

func (v termView) FileName() string { return v.path }

// Files given on the command line are already on disk.
func (v termView) IsDirty() bool { return false }
func (v termView) Save() error   { return nil }

type termPanel struct {
	syntax string
	text   string
}

func (p *termPanel) SetSyntax(syntax string) { p.syntax = syntax }
func (p *termPanel) Replace(text string)     { p.text = text }

// ActiveView implements Window.
func (t *Terminal) ActiveView() View {
	if t.File == "" {
		return nil
	}
	return termView{path: t.File}
}

// Folders implements Window.
func (t *Terminal) Folders() []string {
	return t.Dirs
}

// ShowInput implements Window. An empty line accepts initial; end of
// input cancels.
func (t *Terminal) ShowInput(caption, initial string, onDone func(string), onCancel func()) {
	fmt.Fprint(t.Out, promptStyle.Render(caption+":")+" ")
	if initial != "" {
		fmt.Fprintf(t.Out, "[%s] ", initial)
	}
	line, err := t.In.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		fmt.Fprintln(t.Out)
		if onCancel != nil {
			onCancel()
		}
		return
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		line = initial
	}
	onDone(line)
}

// NewScratch implements Window by printing the text under a title.
func (t *Terminal) NewScratch(title, syntax, text string) {
	t.print(title, syntax, text)
}

// OutputPanel implements Window.
func (t *Terminal) OutputPanel(name string) Panel {
	if t.panels == nil {
		t.panels = make(map[string]*termPanel)
	}
	p, ok := t.panels[name]
	if !ok {
		p = &termPanel{}
		t.panels[name] = p
	}
	return p
}

// ShowPanel implements Window by printing the panel's current contents.
func (t *Terminal) ShowPanel(name string) {
	p, ok := t.panels[name]
	if !ok {
		return
	}
	t.print("output."+name, p.syntax, p.text)
}

// StatusMessage implements Window.
func (t *Terminal) StatusMessage(msg string) {
	if t.Logger != nil {
		t.Logger.Info(msg)
	}
}

func (t *Terminal) print(title, syntax, text string) {
	if !t.Compact {
		header := headerStyle.Render("── " + title)
		if syntax != "" {
			header += " " + syntaxStyle.Render("("+syntax+")")
		}
		fmt.Fprintln(t.Out, header)
	}
	fmt.Fprint(t.Out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(t.Out)
	}
}
