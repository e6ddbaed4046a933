// Package tui is a terminal rendition of the chat form: one question per
// screen, then the metrics and the path of the written workbook.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/session"
	"finmodel/pkg/models"
)

// Runner executes a completed form. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, raw models.RawInputs) (*pipeline.Outcome, error)
}

type phase int

const (
	phaseForm phase = iota
	phaseRunning
	phaseDone
	phaseFailed
)

// runFinishedMsg carries the pipeline result back into Update.
type runFinishedMsg struct {
	outcome *pipeline.Outcome
	path    string
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Model is the bubbletea model for the form.
type Model struct {
	ctx       context.Context
	runner    Runner
	outputDir string

	session *session.Session
	input   textinput.Model
	spinner spinner.Model
	choice  int

	phase   phase
	outcome *pipeline.Outcome
	path    string
	err     error
}

// New creates the form. Workbooks are written to outputDir.
func New(ctx context.Context, runner Runner, outputDir string) *Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 64
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:       ctx,
		runner:    runner,
		outputDir: outputDir,
		input:     ti,
		spinner:   sp,
	}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.session = session.New(0)
	m.phase = phaseForm
	m.choice = 0
	m.outcome, m.path, m.err = nil, "", nil
	m.input.SetValue("")
	m.input.Placeholder = session.ProjectTypeChoices[0]
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseForm:
			return m.updateForm(msg)
		case phaseDone:
			return m, tea.Quit
		case phaseFailed:
			if msg.Type == tea.KeyEnter {
				m.reset()
				return m, textinput.Blink
			}
			return m, tea.Quit
		}
		return m, nil

	case runFinishedMsg:
		m.outcome, m.path, m.err = msg.outcome, msg.path, msg.err
		if msg.err != nil {
			m.phase = phaseFailed
		} else {
			m.phase = phaseDone
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		if m.session.Step == session.StepProjectType {
			m.choice = (m.choice + 1) % len(session.ProjectTypeChoices)
			m.input.SetValue(session.ProjectTypeChoices[m.choice])
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" && m.session.Step == session.StepProjectType {
			value = session.ProjectTypeChoices[m.choice]
		}
		if value == "" {
			return m, nil
		}
		m.session.Answer(value)
		m.input.SetValue("")
		m.input.Placeholder = ""
		if !m.session.Complete() {
			return m, nil
		}
		m.phase = phaseRunning
		return m, tea.Batch(m.spinner.Tick, m.run(m.session.Inputs))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run executes the pipeline off the UI loop and writes the workbook.
func (m *Model) run(raw models.RawInputs) tea.Cmd {
	return func() tea.Msg {
		out, err := m.runner.Run(m.ctx, raw)
		if err != nil {
			return runFinishedMsg{err: err}
		}
		if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
			return runFinishedMsg{err: fmt.Errorf("create output dir: %w", err)}
		}
		path := filepath.Join(m.outputDir, out.Filename)
		if err := os.WriteFile(path, out.Workbook, 0o644); err != nil {
			return runFinishedMsg{err: fmt.Errorf("write workbook: %w", err)}
		}
		return runFinishedMsg{outcome: out, path: path}
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Financial model"))
	b.WriteString("\n")

	switch m.phase {
	case phaseForm:
		step := m.session.Step
		b.WriteString(progressStyle.Render(fmt.Sprintf("Step %d of %d", int(step)+1, int(session.StepDone))))
		b.WriteString("\n")
		b.WriteString(m.answered())
		b.WriteString(step.Question())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		if step == session.StepProjectType {
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("tab: " + strings.Join(session.ProjectTypeChoices, " · ")))
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("enter: next · esc: quit"))

	case phaseRunning:
		b.WriteString(m.spinner.View() + " Calculating the model...")

	case phaseDone:
		b.WriteString(boxStyle.Render(pipeline.FormatMetrics(m.outcome.Result.Summary)))
		b.WriteString("\n")
		if m.outcome.Narrative != "" {
			b.WriteString("\n")
			b.WriteString(m.outcome.Narrative)
			b.WriteString("\n")
		}
		b.WriteString("\nWorkbook: " + m.path)
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("press any key to exit"))

	case phaseFailed:
		var pe *calc.ParseError
		if errors.As(m.err, &pe) {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Could not use %q for %s: %s", pe.Value, pe.Field, pe.Reason)))
		} else {
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("enter: start over · any other key: quit"))
	}

	return b.String()
}

// answered lists the answers given so far, one "field: value" per line.
func (m *Model) answered() string {
	var b strings.Builder
	for _, field := range models.FieldOrder[:m.session.Step] {
		value, _ := m.session.Inputs.Get(field)
		b.WriteString(progressStyle.Render(field + ": " + value))
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the program on the terminal.
func Run(ctx context.Context, runner Runner, outputDir string) error {
	_, err := tea.NewProgram(New(ctx, runner, outputDir), tea.WithContext(ctx)).Run()
	return err
}
