package projection

import (
	"encoding/json"
	"strconv"

	"finmodel/pkg/core/calc"
)

// Model policy. These are part of the model definition, not user inputs.
const (
	TaxRate      = 0.20
	DiscountRate = 0.12
)

// Sentinel strings shown in place of values the model cannot produce.
const (
	NotComputable = "N/A"
	BeyondHorizon = "beyond horizon"
)

// YearRecord is one row of the pro-forma table. Values are unrounded;
// use Rounded for display.
type YearRecord struct {
	Year                int     `json:"year"`
	Revenue             float64 `json:"revenue"`
	VariableCosts       float64 `json:"variable_costs"`
	FixedCosts          float64 `json:"fixed_costs"`
	PayrollCosts        float64 `json:"payroll_costs"`
	EBITDA              float64 `json:"ebitda"`
	Tax                 float64 `json:"tax"`
	NetIncome           float64 `json:"net_income"`
	DiscountedCashFlow  float64 `json:"discounted_cash_flow"`
	CumulativeNetIncome float64 `json:"cumulative_net_income"`
}

// Rounded returns a copy with every monetary value rounded to whole units.
func (y YearRecord) Rounded() YearRecord {
	return YearRecord{
		Year:                y.Year,
		Revenue:             calc.RoundWhole(y.Revenue),
		VariableCosts:       calc.RoundWhole(y.VariableCosts),
		FixedCosts:          calc.RoundWhole(y.FixedCosts),
		PayrollCosts:        calc.RoundWhole(y.PayrollCosts),
		EBITDA:              calc.RoundWhole(y.EBITDA),
		Tax:                 calc.RoundWhole(y.Tax),
		NetIncome:           calc.RoundWhole(y.NetIncome),
		DiscountedCashFlow:  calc.RoundWhole(y.DiscountedCashFlow),
		CumulativeNetIncome: calc.RoundWhole(y.CumulativeNetIncome),
	}
}

// Metric is a value that may be missing for a given run (IRR without a
// root, a multiple over a zero total).
type Metric struct {
	Value      float64
	Computable bool
}

func computable(v float64) Metric { return Metric{Value: v, Computable: true} }

func (m Metric) String() string {
	if !m.Computable {
		return NotComputable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MarshalJSON emits the number, or the sentinel string.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Computable {
		return json.Marshal(NotComputable)
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts either form produced by MarshalJSON.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*m = computable(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Metric{}
	return nil
}

// Payback is the first year cumulative net income covers the investment.
type Payback struct {
	Year          int
	WithinHorizon bool
}

func (p Payback) String() string {
	if !p.WithinHorizon {
		return BeyondHorizon
	}
	return strconv.Itoa(p.Year)
}

func (p Payback) MarshalJSON() ([]byte, error) {
	if !p.WithinHorizon {
		return json.Marshal(BeyondHorizon)
	}
	return json.Marshal(p.Year)
}

func (p *Payback) UnmarshalJSON(data []byte) error {
	var y int
	if err := json.Unmarshal(data, &y); err == nil {
		*p = Payback{Year: y, WithinHorizon: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = Payback{}
	return nil
}

// SummaryMetrics are the investment figures derived once from the full table.
type SummaryMetrics struct {
	Investment      float64 `json:"investment"`
	Horizon         int     `json:"horizon"`
	NPV             float64 `json:"npv"`
	IRR             Metric  `json:"irr"` // percent, 2 decimals
	Payback         Payback `json:"payback"`
	EnterpriseValue float64 `json:"enterprise_value"`
	EVRevenue       Metric  `json:"ev_revenue"`
	EVEBITDA        Metric  `json:"ev_ebitda"`
	RevenueTotal    float64 `json:"revenue_total"`
	EBITDATotal     float64 `json:"ebitda_total"`
	DiscountRate    float64 `json:"discount_rate"`
	TaxRate         float64 `json:"tax_rate"`
}

// Result is the complete output of one projection run.
type Result struct {
	Params  calc.NormalizedParameters `json:"-"`
	Years   []YearRecord              `json:"years"`
	Summary SummaryMetrics            `json:"summary"`
}
