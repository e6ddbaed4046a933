package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"finmodel/pkg/models"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("input parse error")

// ParseError reports a form field that could not be turned into a number,
// or a number the model refuses to project.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %s: cannot use %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NormalizedParameters is the typed form consumed by the projection engine.
// Percent fields are stored as fractions (10% -> 0.10).
type NormalizedParameters struct {
	ProjectType string `json:"project_type"`
	Region      string `json:"region"`

	Horizon           int     `json:"horizon"`             // years, >= 1
	RevenueYear1      float64 `json:"revenue_year1"`       // >= 0
	GrowthRate        float64 `json:"growth_rate"`         // fraction, > -1
	Investment        float64 `json:"investment"`          // >= 0
	FixedCostsMonthly float64 `json:"fixed_costs_monthly"` // >= 0
	VariableCostsPct  float64 `json:"variable_costs_pct"`  // fraction of revenue
	Employees         int     `json:"employees"`           // >= 0
	AvgSalary         float64 `json:"avg_salary"`          // monthly, >= 0
}

// Normalize parses the raw form into NormalizedParameters.
//
// Cleanup per field kind:
//   - all numeric fields: every whitespace rune is dropped ("1 000 000")
//   - money fields: ',' is a thousands separator and is dropped
//   - percent fields: ',' is the decimal separator ("12,5" -> 12.5), then /100
//
// The first failing field aborts normalization with a *ParseError.
func Normalize(raw models.RawInputs) (NormalizedParameters, error) {
	p := NormalizedParameters{
		ProjectType: strings.TrimSpace(raw.ProjectType),
		Region:      strings.TrimSpace(raw.Region),
	}

	var err error
	if p.Investment, err = parseMoney(models.FieldInvestment, raw.Investment); err != nil {
		return NormalizedParameters{}, err
	}
	if p.Horizon, err = parseCount(models.FieldHorizon, raw.Horizon); err != nil {
		return NormalizedParameters{}, err
	}
	if p.Horizon < 1 {
		return NormalizedParameters{}, &ParseError{Field: models.FieldHorizon, Value: raw.Horizon, Reason: "horizon must be at least 1 year"}
	}
	if p.RevenueYear1, err = parseMoney(models.FieldRevenueYear1, raw.RevenueYear1); err != nil {
		return NormalizedParameters{}, err
	}
	if p.GrowthRate, err = parsePercent(models.FieldGrowth, raw.Growth); err != nil {
		return NormalizedParameters{}, err
	}
	if p.GrowthRate < -1 {
		return NormalizedParameters{}, &ParseError{Field: models.FieldGrowth, Value: raw.Growth, Reason: "growth cannot be below -100%"}
	}
	if p.FixedCostsMonthly, err = parseMoney(models.FieldFixedCosts, raw.FixedCosts); err != nil {
		return NormalizedParameters{}, err
	}
	if p.VariableCostsPct, err = parsePercent(models.FieldVariableCosts, raw.VariableCosts); err != nil {
		return NormalizedParameters{}, err
	}
	if p.Employees, err = parseCount(models.FieldEmployees, raw.Employees); err != nil {
		return NormalizedParameters{}, err
	}
	if p.AvgSalary, err = parseMoney(models.FieldAvgSalary, raw.AvgSalary); err != nil {
		return NormalizedParameters{}, err
	}

	// Final-year revenue is the largest value the engine produces from growth.
	last := ProjectCompound(p.RevenueYear1, p.GrowthRate, p.Horizon-1)
	if !finite(last) {
		return NormalizedParameters{}, &ParseError{Field: models.FieldGrowth, Value: raw.Growth, Reason: "revenue overflows over the planning horizon"}
	}
	if err := checkHorizonTotals(p, raw); err != nil {
		return NormalizedParameters{}, err
	}

	return p, nil
}

// checkHorizonTotals rejects inputs whose horizon totals are not finite.
// Every yearly figure, running sum and discounted value the engine derives
// is bounded by the grand total checked last.
func checkHorizonTotals(p NormalizedParameters, raw models.RawInputs) error {
	n := float64(p.Horizon)

	revenue := revenueTotal(p.RevenueYear1, p.GrowthRate, p.Horizon)
	if !finite(revenue) {
		return &ParseError{Field: models.FieldRevenueYear1, Value: raw.RevenueYear1, Reason: "revenue over the planning horizon is too large"}
	}
	variable := revenue * p.VariableCostsPct
	if !finite(variable) {
		return &ParseError{Field: models.FieldVariableCosts, Value: raw.VariableCosts, Reason: "variable costs over the planning horizon are too large"}
	}
	fixed := p.FixedCostsMonthly * 12 * n
	if !finite(fixed) {
		return &ParseError{Field: models.FieldFixedCosts, Value: raw.FixedCosts, Reason: "fixed costs over the planning horizon are too large"}
	}
	payroll := p.AvgSalary * float64(p.Employees) * 12 * n
	if !finite(payroll) {
		return &ParseError{Field: models.FieldAvgSalary, Value: raw.AvgSalary, Reason: "payroll over the planning horizon is too large"}
	}
	if !finite(p.Investment + revenue + variable + fixed + payroll) {
		return &ParseError{Field: models.FieldInvestment, Value: raw.Investment, Reason: "model totals are too large"}
	}
	return nil
}

// revenueTotal sums the compounded revenue series in closed form.
func revenueTotal(base, growthRate float64, horizon int) float64 {
	if growthRate == 0 {
		return base * float64(horizon)
	}
	return base * (math.Pow(1+growthRate, float64(horizon)) - 1) / growthRate
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// stripSpaces drops every whitespace rune, including NBSP and narrow NBSP
// which spreadsheets and phone keyboards use as group separators.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func parseMoney(field, raw string) (float64, error) {
	clean := strings.ReplaceAll(stripSpaces(raw), ",", "")
	v, err := parseFloat(field, raw, clean)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &ParseError{Field: field, Value: raw, Reason: "must not be negative"}
	}
	return v, nil
}

func parsePercent(field, raw string) (float64, error) {
	clean := strings.ReplaceAll(stripSpaces(raw), ",", ".")
	v, err := parseFloat(field, raw, clean)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

func parseFloat(field, raw, clean string) (float64, error) {
	if clean == "" {
		return 0, &ParseError{Field: field, Value: raw, Reason: "empty value"}
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: raw, Reason: "not a number"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Field: field, Value: raw, Reason: "not a finite number"}
	}
	return v, nil
}

func parseCount(field, raw string) (int, error) {
	clean := stripSpaces(raw)
	if clean == "" {
		return 0, &ParseError{Field: field, Value: raw, Reason: "empty value"}
	}
	v, err := strconv.Atoi(clean)
	if err != nil {
		return 0, &ParseError{Field: field, Value: raw, Reason: "not a whole number"}
	}
	if v < 0 {
		return 0, &ParseError{Field: field, Value: raw, Reason: "must not be negative"}
	}
	return v, nil
}
