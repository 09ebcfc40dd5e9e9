package editor

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Window = (*Terminal)(nil)
	_ Window = (*Memory)(nil)
	_ View   = (*MemoryView)(nil)
	_ Panel  = (*MemoryPanel)(nil)
)

func TestTerminal_ActiveView(t *testing.T) {
	term := NewTerminal(&bytes.Buffer{}, strings.NewReader(""), nil)
	assert.Nil(t, term.ActiveView())

	term.File = "/proj/app.js"
	v := term.ActiveView()
	require.NotNil(t, v)
	assert.Equal(t, "/proj/app.js", v.FileName())
	assert.False(t, v.IsDirty())
	assert.NoError(t, v.Save())
}

func TestTerminal_ShowInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		initial   string
		want      string
		cancelled bool
	}{
		{name: "line", input: "install lodash\n", want: "install lodash"},
		{name: "crlf", input: "list\r\n", want: "list"},
		{name: "no trailing newline", input: "ls", want: "ls"},
		{name: "empty uses initial", input: "\n", initial: "--depth 0", want: "--depth 0"},
		{name: "eof cancels", input: "", cancelled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(&out, strings.NewReader(tt.input), nil)

			var got string
			var done, cancelled bool
			term.ShowInput("Arguments", tt.initial,
				func(s string) { got, done = s, true },
				func() { cancelled = true })

			assert.Equal(t, tt.cancelled, cancelled)
			assert.Equal(t, !tt.cancelled, done)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Arguments:")
		})
	}
}

func TestTerminal_Scratch(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, strings.NewReader(""), nil)

	term.NewScratch("Node Output", SyntaxJavaScript, "hello")

	s := out.String()
	assert.Contains(t, s, "Node Output")
	assert.Contains(t, s, "javascript")
	assert.True(t, strings.HasSuffix(s, "hello\n"))
}

func TestTerminal_PanelPrintsLatestText(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, strings.NewReader(""), nil)
	term.Compact = true

	p := term.OutputPanel("node")
	p.SetSyntax(SyntaxPlain)
	p.Replace("first\n")
	p.Replace("second\n")
	assert.Same(t, p, term.OutputPanel("node"))

	term.ShowPanel("node")
	assert.Equal(t, "second\n", out.String())

	term.ShowPanel("missing")
	assert.Equal(t, "second\n", out.String())
}

func TestTerminal_StatusGoesToLogger(t *testing.T) {
	var out, logs bytes.Buffer
	term := NewTerminal(&out, strings.NewReader(""), log.New(&logs))

	term.StatusMessage("node app.js")

	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "node app.js")
}

func TestMemory_Prompts(t *testing.T) {
	m := NewMemory("")
	m.Inputs = []string{"a b"}

	var answers []string
	var cancels int
	for range 2 {
		m.ShowInput("Arguments", "",
			func(s string) { answers = append(answers, s) },
			func() { cancels++ })
	}

	assert.Equal(t, []string{"a b"}, answers)
	assert.Equal(t, 1, cancels)
	assert.Equal(t, []string{"Arguments", "Arguments"}, m.Prompts())
}

func TestMemory_ViewSave(t *testing.T) {
	m := NewMemory("/proj/app.js", "/proj")
	require.NotNil(t, m.ActiveView())
	assert.Equal(t, []string{"/proj"}, m.Folders())

	m.Active.Dirty = true
	require.NoError(t, m.ActiveView().Save())
	assert.False(t, m.Active.IsDirty())
	assert.Equal(t, 1, m.Active.Saves())

	m.Active.SaveErr = errors.New("read-only")
	assert.Error(t, m.ActiveView().Save())
	assert.Equal(t, 1, m.Active.Saves())
}

func TestMemory_NoActiveView(t *testing.T) {
	m := NewMemory("")
	assert.Nil(t, m.ActiveView())
}

func TestMemory_Rendered(t *testing.T) {
	m := NewMemory("")
	_, ok := m.Rendered()
	assert.False(t, ok)

	p := m.OutputPanel("node")
	p.Replace("one")
	m.ShowPanel("node")
	text, ok := m.Rendered()
	require.True(t, ok)
	assert.Equal(t, "one", text)
	assert.Equal(t, 1, m.Panel("node").Writes)

	m.NewScratch("Node Output", SyntaxPlain, "two")
	text, _ = m.Rendered()
	assert.Equal(t, "two", text)
	assert.Len(t, m.Scratches(), 1)
}
