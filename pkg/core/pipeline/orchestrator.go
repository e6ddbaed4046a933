// Package pipeline runs one projection end to end: normalize, project,
// then narrative and workbook side by side.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/projection"
	"finmodel/pkg/core/report"
	"finmodel/pkg/models"
)

// NarrativeGenerator produces free-form commentary for a run.
// *narrative.Generator satisfies it.
type NarrativeGenerator interface {
	Generate(ctx context.Context, raw models.RawInputs, summary projection.SummaryMetrics) (string, error)
}

// WorkbookRenderer serializes a result into workbook bytes.
type WorkbookRenderer func(res projection.Result) ([]byte, error)

// Outcome is everything a front-end needs to answer the user.
type Outcome struct {
	RunID  string
	Result projection.Result

	// Narrative is empty when generation was skipped or failed; NarrativeErr
	// says which. A failed narrative never fails the run.
	Narrative    string
	NarrativeErr error

	Workbook []byte
	Filename string
}

// Orchestrator wires the core to its collaborators.
type Orchestrator struct {
	narrator   NarrativeGenerator
	render     WorkbookRenderer
	now        func() time.Time
	maxHorizon int
}

// NewOrchestrator creates an orchestrator. narrator may be nil to skip the
// narrative step.
func NewOrchestrator(narrator NarrativeGenerator) *Orchestrator {
	return &Orchestrator{
		narrator:   narrator,
		render:     report.Bytes,
		now:        time.Now,
		maxHorizon: DefaultMaxHorizon,
	}
}

// SetRenderer allows injecting a custom workbook renderer (e.g., for testing).
func (o *Orchestrator) SetRenderer(r WorkbookRenderer) {
	o.render = r
}

// SetMaxHorizon caps the accepted planning horizon. n <= 0 removes the cap.
func (o *Orchestrator) SetMaxHorizon(n int) {
	o.maxHorizon = n
}

// SetClock overrides the time source used for filenames.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Run executes one projection. A *calc.ParseError is returned unwrapped so
// callers can show the offending field; no work is done after it.
func (o *Orchestrator) Run(ctx context.Context, raw models.RawInputs) (*Outcome, error) {
	runID := uuid.NewString()
	log := slog.With("component", "pipeline", "run_id", runID)
	began := time.Now()

	params, err := calc.Normalize(raw)
	if err == nil {
		err = CheckHorizon(params, raw, o.maxHorizon)
	}
	if err != nil {
		log.Info("inputs rejected", "error", err)
		return nil, err
	}

	res := projection.Project(params)
	out := &Outcome{
		RunID:    runID,
		Result:   res,
		Filename: report.Filename(o.now()),
	}
	log.Info("projection complete",
		"horizon", params.Horizon,
		"npv", res.Summary.NPV,
		"irr", res.Summary.IRR.String(),
		"payback", res.Summary.Payback.String())

	g, gctx := errgroup.WithContext(ctx)

	if o.narrator != nil {
		g.Go(func() error {
			text, err := o.narrator.Generate(gctx, raw, res.Summary)
			if err != nil {
				log.Warn("narrative unavailable", "error", err)
				out.NarrativeErr = err
				return nil
			}
			out.Narrative = text
			return nil
		})
	}

	g.Go(func() error {
		data, err := o.render(res)
		if err != nil {
			return fmt.Errorf("render workbook: %w", err)
		}
		out.Workbook = data
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("run failed", "error", err)
		return nil, err
	}

	log.Info("run complete", "duration", time.Since(began), "workbook_bytes", len(out.Workbook))
	return out, nil
}

// FormatMetrics renders the short chat summary of a run.
func FormatMetrics(s projection.SummaryMetrics) string {
	var sb strings.Builder
	sb.WriteString("📊 Key metrics:\n")
	fmt.Fprintf(&sb, "• NPV: %s\n", report.Money(s.NPV))
	fmt.Fprintf(&sb, "• IRR: %s\n", report.IRR(s.IRR))
	fmt.Fprintf(&sb, "• Payback period: %s", report.PaybackPeriod(s.Payback))
	return sb.String()
}
