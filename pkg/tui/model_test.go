package tui

import (
	"context"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/session"
	"finmodel/pkg/models"
)

type MockRunner struct {
	RunFunc func(ctx context.Context, raw models.RawInputs) (*pipeline.Outcome, error)
}

func (m *MockRunner) Run(ctx context.Context, raw models.RawInputs) (*pipeline.Outcome, error) {
	return m.RunFunc(ctx, raw)
}

func typeText(t *testing.T, m *Model, text string) {
	t.Helper()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// submit presses enter and, when the form completes, runs the batched
// commands until the run result is delivered.
func submit(t *testing.T, m *Model) {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.phase != phaseRunning || cmd == nil {
		return
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected batch command")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(runFinishedMsg); ok {
			m.Update(msg)
		}
	}
}

func TestModel_CompletesForm(t *testing.T) {
	dir := t.TempDir()
	var gotRaw models.RawInputs
	runner := &MockRunner{RunFunc: func(_ context.Context, raw models.RawInputs) (*pipeline.Outcome, error) {
		gotRaw = raw
		return &pipeline.Outcome{Workbook: []byte("PK"), Filename: "financial_model_x.xlsx"}, nil
	}}
	m := New(context.Background(), runner, dir)

	// Project type: accept the default choice after one tab.
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	submit(t, m)
	if m.session.Inputs.ProjectType != session.ProjectTypeChoices[1] {
		t.Errorf("project type: %q", m.session.Inputs.ProjectType)
	}

	for _, a := range []string{"Moscow", "500000", "3", "1000000", "10", "50000", "30", "2", "80000"} {
		typeText(t, m, a)
		submit(t, m)
	}

	if m.phase != phaseDone {
		t.Fatalf("phase: %v (err %v)", m.phase, m.err)
	}
	if gotRaw.Region != "Moscow" || gotRaw.AvgSalary != "80000" {
		t.Errorf("runner input: %+v", gotRaw)
	}
	data, err := os.ReadFile(m.path)
	if err != nil || string(data) != "PK" {
		t.Errorf("workbook at %s: %q (%v)", m.path, data, err)
	}
	if !strings.Contains(m.View(), "Workbook: "+m.path) {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestModel_EmptyAnswerIgnored(t *testing.T) {
	m := New(context.Background(), nil, t.TempDir())
	submit(t, m) // project type falls back to the first choice
	if m.session.Step != session.StepRegion {
		t.Fatalf("step: %v", m.session.Step)
	}
	submit(t, m)
	if m.session.Step != session.StepRegion {
		t.Error("empty region should not advance")
	}
}

func TestModel_ViewListsAnswers(t *testing.T) {
	m := New(context.Background(), nil, t.TempDir())
	submit(t, m)
	typeText(t, m, "Kazan")
	submit(t, m)

	view := m.View()
	for _, want := range []string{"project_type: " + session.ProjectTypeChoices[0], "region: Kazan"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "investment:") {
		t.Errorf("unanswered field listed:\n%s", view)
	}
}

func TestModel_ParseErrorAndRestart(t *testing.T) {
	runner := &MockRunner{RunFunc: func(context.Context, models.RawInputs) (*pipeline.Outcome, error) {
		return nil, &calc.ParseError{Field: models.FieldHorizon, Value: "x", Reason: "not a whole number"}
	}}
	m := New(context.Background(), runner, t.TempDir())
	submit(t, m)
	for _, a := range []string{"Moscow", "1", "x", "1", "1", "1", "1", "1", "1"} {
		typeText(t, m, a)
		submit(t, m)
	}

	if m.phase != phaseFailed {
		t.Fatalf("phase: %v", m.phase)
	}
	if !strings.Contains(m.View(), "horizon") {
		t.Errorf("view should name the field:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.phase != phaseForm || m.session.Step != session.StepProjectType {
		t.Error("enter should restart the form")
	}
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), nil, t.TempDir())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
