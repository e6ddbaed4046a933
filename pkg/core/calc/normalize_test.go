package calc

import (
	"errors"
	"math"
	"testing"

	"finmodel/pkg/models"
)

func validRaw() models.RawInputs {
	return models.RawInputs{
		ProjectType:   "IT/SaaS",
		Region:        "Moscow",
		Investment:    "500 000",
		Horizon:       "3",
		RevenueYear1:  "1,000,000",
		Growth:        "10",
		FixedCosts:    "50000",
		VariableCosts: "30",
		Employees:     "2",
		AvgSalary:     "80 000",
	}
}

func TestNormalize_Valid(t *testing.T) {
	p, err := Normalize(validRaw())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ProjectType != "IT/SaaS" || p.Region != "Moscow" {
		t.Errorf("pass-through fields: got %q / %q", p.ProjectType, p.Region)
	}
	if p.Horizon != 3 || p.Employees != 2 {
		t.Errorf("integers: horizon=%d employees=%d", p.Horizon, p.Employees)
	}
	if p.Investment != 500000 || p.RevenueYear1 != 1000000 || p.FixedCostsMonthly != 50000 || p.AvgSalary != 80000 {
		t.Errorf("money fields: %+v", p)
	}
	if math.Abs(p.GrowthRate-0.10) > 1e-12 {
		t.Errorf("growth: got %v, want 0.10", p.GrowthRate)
	}
	if math.Abs(p.VariableCostsPct-0.30) > 1e-12 {
		t.Errorf("variable costs: got %v, want 0.30", p.VariableCostsPct)
	}
}

func TestNormalize_SeparatorCleanup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RawInputs)
		check  func(NormalizedParameters) bool
	}{
		{
			name:   "nbsp thousands",
			mutate: func(r *models.RawInputs) { r.Investment = "1 250 000" },
			check:  func(p NormalizedParameters) bool { return p.Investment == 1250000 },
		},
		{
			name:   "narrow nbsp thousands",
			mutate: func(r *models.RawInputs) { r.RevenueYear1 = "2 000 000" },
			check:  func(p NormalizedParameters) bool { return p.RevenueYear1 == 2000000 },
		},
		{
			name:   "comma thousands with decimals",
			mutate: func(r *models.RawInputs) { r.AvgSalary = "95,500.50" },
			check:  func(p NormalizedParameters) bool { return p.AvgSalary == 95500.50 },
		},
		{
			name:   "comma decimal growth",
			mutate: func(r *models.RawInputs) { r.Growth = "12,5" },
			check:  func(p NormalizedParameters) bool { return math.Abs(p.GrowthRate-0.125) < 1e-12 },
		},
		{
			name:   "comma decimal variable costs",
			mutate: func(r *models.RawInputs) { r.VariableCosts = " 7,5 " },
			check:  func(p NormalizedParameters) bool { return math.Abs(p.VariableCostsPct-0.075) < 1e-12 },
		},
		{
			name:   "negative growth",
			mutate: func(r *models.RawInputs) { r.Growth = "-20" },
			check:  func(p NormalizedParameters) bool { return math.Abs(p.GrowthRate+0.20) < 1e-12 },
		},
		{
			name:   "spaced integer",
			mutate: func(r *models.RawInputs) { r.Employees = " 1 200 " },
			check:  func(p NormalizedParameters) bool { return p.Employees == 1200 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			p, err := Normalize(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(p) {
				t.Errorf("unexpected parameters: %+v", p)
			}
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		mutate func(*models.RawInputs)
	}{
		{"text investment", models.FieldInvestment, func(r *models.RawInputs) { r.Investment = "a lot" }},
		{"empty revenue", models.FieldRevenueYear1, func(r *models.RawInputs) { r.RevenueYear1 = "  " }},
		{"fractional horizon", models.FieldHorizon, func(r *models.RawInputs) { r.Horizon = "2.5" }},
		{"zero horizon", models.FieldHorizon, func(r *models.RawInputs) { r.Horizon = "0" }},
		{"negative horizon", models.FieldHorizon, func(r *models.RawInputs) { r.Horizon = "-3" }},
		{"negative employees", models.FieldEmployees, func(r *models.RawInputs) { r.Employees = "-1" }},
		{"negative salary", models.FieldAvgSalary, func(r *models.RawInputs) { r.AvgSalary = "-100" }},
		{"percent sign", models.FieldGrowth, func(r *models.RawInputs) { r.Growth = "10%" }},
		{"growth below -100%", models.FieldGrowth, func(r *models.RawInputs) { r.Growth = "-150" }},
		{"infinite", models.FieldFixedCosts, func(r *models.RawInputs) { r.FixedCosts = "Inf" }},
		{"nan", models.FieldVariableCosts, func(r *models.RawInputs) { r.VariableCosts = "NaN" }},
		{"overflowing growth", models.FieldGrowth, func(r *models.RawInputs) {
			r.Growth = "100000"
			r.Horizon = "200"
		}},
		{"overflowing payroll", models.FieldAvgSalary, func(r *models.RawInputs) { r.AvgSalary = "1e308" }},
		{"overflowing fixed costs", models.FieldFixedCosts, func(r *models.RawInputs) { r.FixedCosts = "1e308" }},
		{"overflowing revenue total", models.FieldRevenueYear1, func(r *models.RawInputs) {
			r.RevenueYear1 = "1e308"
			r.Growth = "0"
		}},
		{"overflowing variable costs", models.FieldVariableCosts, func(r *models.RawInputs) {
			r.RevenueYear1 = "1e300"
			r.Growth = "0"
			r.VariableCosts = "1e10"
		}},
		{"overflowing grand total", models.FieldInvestment, func(r *models.RawInputs) {
			r.Investment = "1.7e308"
			r.RevenueYear1 = "1e308"
			r.Horizon = "1"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			_, err := Normalize(raw)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error should match ErrParse: %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field: got %s, want %s", pe.Field, tt.field)
			}
		})
	}
}
