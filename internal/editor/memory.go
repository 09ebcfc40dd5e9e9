package editor

import (
	"sync"
)

// Scratch is a scratch display opened on a Memory window.
type Scratch struct {
	Title  string
	Syntax string
	Text   string
}

// MemoryView is an in-memory document.
type MemoryView struct {
	mu      sync.Mutex
	Path    string
	Dirty   bool
	SaveErr error
	saves   int
}

// FileName implements View.
func (v *MemoryView) FileName() string { return v.Path }

// IsDirty implements View.
func (v *MemoryView) IsDirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Dirty
}

// Save implements View.
func (v *MemoryView) Save() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.SaveErr != nil {
		return v.SaveErr
	}
	v.saves++
	v.Dirty = false
	return nil
}

// Saves returns how many times Save succeeded.
func (v *MemoryView) Saves() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saves
}

// MemoryPanel is an in-memory output panel.
type MemoryPanel struct {
	Syntax string
	Text   string
	Writes int
}

// SetSyntax implements Panel.
func (p *MemoryPanel) SetSyntax(syntax string) { p.Syntax = syntax }

// Replace implements Panel.
func (p *MemoryPanel) Replace(text string) {
	p.Text = text
	p.Writes++
}

// Memory is a Window that records everything rendered into it. Prompts
// are answered from Inputs in order; an exhausted queue cancels.
type Memory struct {
	mu sync.Mutex

	Active *MemoryView
	Dirs   []string
	Inputs []string

	prompts   []string
	scratches []Scratch
	panels    map[string]*MemoryPanel
	shown     []string
	statuses  []string
}

// NewMemory creates a window with an optional active file and folders.
func NewMemory(file string, folders ...string) *Memory {
	m := &Memory{Dirs: folders, panels: make(map[string]*MemoryPanel)}
	if file != "" {
		m.Active = &MemoryView{Path: file}
	}
	return m
}

// ActiveView implements Window.
func (m *Memory) ActiveView() View {
	if m.Active == nil {
		return nil
	}
	return m.Active
}

// Folders implements Window.
func (m *Memory) Folders() []string { return m.Dirs }

// ShowInput implements Window.
func (m *Memory) ShowInput(caption, initial string, onDone func(string), onCancel func()) {
	m.mu.Lock()
	m.prompts = append(m.prompts, caption)
	if len(m.Inputs) == 0 {
		m.mu.Unlock()
		if onCancel != nil {
			onCancel()
		}
		return
	}
	answer := m.Inputs[0]
	m.Inputs = m.Inputs[1:]
	m.mu.Unlock()
	onDone(answer)
}

// NewScratch implements Window.
func (m *Memory) NewScratch(title, syntax, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scratches = append(m.scratches, Scratch{Title: title, Syntax: syntax, Text: text})
}

// OutputPanel implements Window.
func (m *Memory) OutputPanel(name string) Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panels == nil {
		m.panels = make(map[string]*MemoryPanel)
	}
	p, ok := m.panels[name]
	if !ok {
		p = &MemoryPanel{}
		m.panels[name] = p
	}
	return p
}

// ShowPanel implements Window.
func (m *Memory) ShowPanel(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, name)
}

// StatusMessage implements Window.
func (m *Memory) StatusMessage(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, msg)
}

// Prompts returns the captions of every prompt shown.
func (m *Memory) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Scratches returns every scratch display opened.
func (m *Memory) Scratches() []Scratch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Scratch(nil), m.scratches...)
}

// Panel returns the named panel, or nil if it was never created.
func (m *Memory) Panel(name string) *MemoryPanel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panels[name]
}

// Shown returns the names of panels shown, in order.
func (m *Memory) Shown() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.shown...)
}

// Statuses returns every status message.
func (m *Memory) Statuses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statuses...)
}

// Rendered returns the last text shown in a scratch or panel, and
// whether anything was rendered at all.
func (m *Memory) Rendered() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.scratches) > 0 {
		return m.scratches[len(m.scratches)-1].Text, true
	}
	if len(m.shown) > 0 {
		if p, ok := m.panels[m.shown[len(m.shown)-1]]; ok {
			return p.Text, true
		}
	}
	return "", false
}
