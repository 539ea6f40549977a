package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/folio/data"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/render"
)

// Preview browses the available templates and shows each one rendered
// against the context data files.
type Preview struct {
	Filter string `arg:"" help:"Initial template filter" optional:""`
}

// Run executes the preview command.
func (p *Preview) Run(ctx context.Context, t *Template) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := contextValue(ctx)
	if err != nil {
		return err
	}

	s, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	paths, err := s.paths(ctx, t)
	if err != nil {
		return err
	}

	log.TraceContext(ctx, "preview start",
		slog.Int("templates", len(paths)),
		slog.String("filter", p.Filter),
	)

	m := newPreviewModel(ctx, s.renderer, c, paths, p.Filter)

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()

	return err
}

const (
	filterPrompt  = "❯ "
	listHeight    = 8
	defaultWidth  = 80
	defaultHeight = 24
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	ruleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderedMsg carries the outcome of rendering one template.
type renderedMsg struct {
	path string
	view render.View
	err  error
}

// previewModel is the Bubble Tea model for the preview command.
type previewModel struct {
	ctxFunc    func() context.Context
	renderer   *render.Renderer
	context    data.Value
	input      textinput.Model
	viewport   viewport.Model
	candidates []string
	matches    fuzzy.Matches
	selected   int
	current    string // path the viewport is showing or waiting for
	err        error
	width      int
	quitting   bool
}

func newPreviewModel(
	ctx context.Context,
	r *render.Renderer,
	c data.Value,
	paths []string,
	filter string,
) previewModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(filterPrompt)
	ti.Placeholder = "filter templates"
	ti.SetValue(filter)
	ti.Focus()
	ti.Width = defaultWidth

	m := previewModel{
		ctxFunc:    func() context.Context { return ctx },
		renderer:   r,
		context:    c,
		input:      ti,
		viewport:   viewport.New(defaultWidth, defaultHeight-listHeight-3),
		candidates: paths,
		width:      defaultWidth,
	}

	m.filter()
	m.current, _ = m.selection()

	return m
}

func (m previewModel) Init() tea.Cmd {
	if m.current == "" {
		return textinput.Blink
	}

	return tea.Batch(textinput.Blink, m.renderPath(m.current))
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(filterPrompt) - 2
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-listHeight-3, 1)

		return m, nil

	case renderedMsg:
		if msg.path != m.current {
			return m, nil
		}

		m.err = msg.err
		if msg.err != nil {
			m.viewport.SetContent("")
		} else {
			m.viewport.SetContent(msg.view.String())
		}

		m.viewport.GotoTop()

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m previewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true

		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlP:
		return m.move(-1)

	case tea.KeyDown, tea.KeyCtrlN, tea.KeyTab:
		return m.move(+1)

	case tea.KeyShiftTab:
		return m.move(-1)

	case tea.KeyEnter:
		// Force a fresh render of the selection.
		m.current = ""

		return m, m.render()

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyCtrlU, tea.KeyCtrlD:
		var cmd tea.Cmd

		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd
	}

	before := m.input.Value()

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	if m.input.Value() == before {
		return m, cmd
	}

	m.filter()

	return m, tea.Batch(cmd, m.render())
}

// move shifts the selection by delta, wrapping at either end.
func (m previewModel) move(delta int) (tea.Model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	m.selected = (m.selected + delta + len(m.matches)) % len(m.matches)

	return m, m.render()
}

// filter recomputes the matches for the current input. An empty filter
// matches every candidate in order.
func (m *previewModel) filter() {
	pattern := strings.TrimSpace(m.input.Value())

	if pattern == "" {
		m.matches = make(fuzzy.Matches, len(m.candidates))
		for i, c := range m.candidates {
			m.matches[i] = fuzzy.Match{Str: c, Index: i}
		}
	} else {
		m.matches = fuzzy.Find(pattern, m.candidates)
	}

	if m.selected >= len(m.matches) {
		m.selected = max(len(m.matches)-1, 0)
	}
}

// selection returns the selected template path.
func (m previewModel) selection() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.matches) {
		return "", false
	}

	return m.matches[m.selected].Str, true
}

// render returns a command rendering the selection, or nil when the
// selection is already shown.
func (m *previewModel) render() tea.Cmd {
	path, ok := m.selection()
	if !ok || path == m.current {
		return nil
	}

	m.current = path

	return m.renderPath(path)
}

// renderPath returns a command delivering the rendered view of path.
func (m previewModel) renderPath(path string) tea.Cmd {
	ctx := m.ctxFunc()
	future := m.renderer.RenderPathAsync(ctx, path, m.context)

	return func() tea.Msg {
		view, err := future.Await(ctx)

		return renderedMsg{path: path, view: view, err: err}
	}
}

func (m previewModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	if len(m.matches) == 0 {
		b.WriteString(hintStyle.Render("no matching templates"))
		b.WriteString("\n")
	}

	first := max(m.selected-listHeight+1, 0)
	last := min(first+listHeight, len(m.matches))

	for i := first; i < last; i++ {
		b.WriteString(renderMatch(m.matches[i], i == m.selected))
		b.WriteString("\n")
	}

	b.WriteString(ruleStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.viewport.View())

	return b.String()
}

// renderMatch styles one candidate, highlighting its matched characters.
func renderMatch(match fuzzy.Match, selected bool) string {
	if selected {
		return selectedStyle.Render(match.Str)
	}

	if len(match.MatchedIndexes) == 0 {
		return match.Str
	}

	var b strings.Builder

	hit := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		hit[i] = true
	}

	for i, r := range match.Str {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}
