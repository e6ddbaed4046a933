// Package narrative asks an LLM for a plain-language commentary on a
// projection run. The text is returned as-is; nothing downstream parses it.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finmodel/pkg/core/agent"
	"finmodel/pkg/core/projection"
	"finmodel/pkg/core/prompt"
	"finmodel/pkg/core/utils"
	"finmodel/pkg/models"
)

// ErrDisabled is returned when narrative generation is switched off.
var ErrDisabled = errors.New("narrative: disabled")

// Executor runs a prompt against the provider routed for agentType.
// *agent.Manager satisfies it.
type Executor interface {
	ExecutePrompt(ctx context.Context, agentType, prompt, systemPrompt string) (string, error)
}

// Generator produces the commentary for a finished run.
type Generator struct {
	Executor Executor
	Prompts  *prompt.Registry // nil uses prompt.Get()
	Timeout  time.Duration    // 0 means no extra deadline
}

// Generate renders the narrative prompt for raw/summary and calls the model.
func (g *Generator) Generate(ctx context.Context, raw models.RawInputs, summary projection.SummaryMetrics) (string, error) {
	if g == nil || g.Executor == nil {
		return "", ErrDisabled
	}

	registry := g.Prompts
	if registry == nil {
		registry = prompt.Get()
	}
	pt, err := registry.GetPrompt(prompt.PromptIDs.NarrativeAnalysis)
	if err != nil {
		return "", fmt.Errorf("narrative prompt: %w", err)
	}
	userPrompt, err := prompt.RenderUserPrompt(pt, promptContext(raw, summary))
	if err != nil {
		return "", fmt.Errorf("render narrative prompt: %w", err)
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.Executor.ExecutePrompt(ctx, agent.AgentNarrative, userPrompt, pt.SystemPrompt)
	if err != nil {
		return "", fmt.Errorf("narrative generation: %w", err)
	}
	text = utils.CleanMarkdown(text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("narrative generation: empty text")
	}

	slog.Debug("narrative generated", "component", "narrative",
		"chars", len(text), "duration", time.Since(start))
	return text, nil
}

// promptContext exposes the raw answers verbatim and the metrics in their
// display form, sentinels included.
func promptContext(raw models.RawInputs, s projection.SummaryMetrics) *prompt.PromptExecutionContext {
	return prompt.NewContext().
		Set("ProjectType", raw.ProjectType).
		Set("Region", raw.Region).
		Set("Investment", raw.Investment).
		Set("Horizon", raw.Horizon).
		Set("RevenueYear1", raw.RevenueYear1).
		Set("Growth", raw.Growth).
		Set("FixedCosts", raw.FixedCosts).
		Set("VariableCosts", raw.VariableCosts).
		Set("Employees", raw.Employees).
		Set("AvgSalary", raw.AvgSalary).
		Set("NPV", fmt.Sprintf("%.0f", s.NPV)).
		Set("IRR", metricWithUnit(s.IRR, " %")).
		Set("Payback", s.Payback.String()).
		Set("EVRevenue", s.EVRevenue.String()).
		Set("EVEBITDA", s.EVEBITDA.String())
}

func metricWithUnit(m projection.Metric, unit string) string {
	if !m.Computable {
		return m.String()
	}
	return m.String() + unit
}
