// Package session tracks a single conversation's progress through the
// input form. Sessions are passed explicitly to each turn handler; there is
// no package-level state.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"finmodel/pkg/models"
)

var (
	// ErrNotFound is returned by Store.Get when the chat has no session.
	ErrNotFound = errors.New("session: not found")
	// ErrBusy is returned when a chat already has a projection in flight.
	ErrBusy = errors.New("session: projection already running")
)

// Step is a position in the form. Steps follow models.FieldOrder.
type Step int

const (
	StepProjectType Step = iota
	StepRegion
	StepInvestment
	StepHorizon
	StepRevenueYear1
	StepGrowth
	StepFixedCosts
	StepVariableCosts
	StepEmployees
	StepAvgSalary
	StepDone
)

// ProjectTypeChoices are offered as quick replies on the first step.
var ProjectTypeChoices = []string{"IT/SaaS", "Marketplace", "Mobile app", "Other"}

var questions = [...]string{
	StepProjectType:   "👋 Welcome! Choose the project type:",
	StepRegion:        "🌍 Which region will the project launch in?",
	StepInvestment:    "💰 How much do you plan to invest (₽)?",
	StepHorizon:       "📆 How many years should the model cover?",
	StepRevenueYear1:  "📈 Expected revenue in year 1 (₽)?",
	StepGrowth:        "📊 Annual revenue growth (%)?",
	StepFixedCosts:    "💸 Fixed costs per month (₽)?",
	StepVariableCosts: "📦 Variable costs (% of revenue)?",
	StepEmployees:     "👥 How many employees are on the team?",
	StepAvgSalary:     "🧾 Average monthly salary per employee (₽)?",
}

// Question returns the prompt shown to the user for the step, or "" once done.
func (s Step) Question() string {
	if s < 0 || s >= StepDone {
		return ""
	}
	return questions[s]
}

// Field returns the RawInputs field the step fills.
func (s Step) Field() string {
	if s < 0 || s >= StepDone {
		return ""
	}
	return models.FieldOrder[s]
}

func (s Step) String() string {
	if s == StepDone {
		return "done"
	}
	if f := s.Field(); f != "" {
		return f
	}
	return "unknown"
}

// Session is one user's in-progress form.
type Session struct {
	ID        string           `json:"id"`
	ChatID    int64            `json:"chat_id"`
	Step      Step             `json:"step"`
	Inputs    models.RawInputs `json:"inputs"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New starts a session at the first step.
func New(chatID int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Step:      StepProjectType,
		UpdatedAt: time.Now(),
	}
}

// Answer stores text in the current step's field and advances. Answers
// are kept verbatim; parsing happens only once the form is complete.
func (s *Session) Answer(text string) Step {
	if s.Complete() {
		return StepDone
	}
	s.Inputs.Set(s.Step.Field(), text)
	s.Step++
	s.UpdatedAt = time.Now()
	return s.Step
}

// Complete reports whether every field has been answered.
func (s *Session) Complete() bool {
	return s.Step >= StepDone
}

// Store persists sessions keyed by chat.
type Store interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, chatID int64) error
}
