package models

// RawInputs is the form as the user typed it, one field per conversation step.
// Nothing here is parsed; see calc.Normalize.
type RawInputs struct {
	ProjectType   string `json:"project_type"`
	Region        string `json:"region"`
	Investment    string `json:"investment"`
	Horizon       string `json:"horizon"`
	RevenueYear1  string `json:"revenue_year1"`
	Growth        string `json:"growth"`         // percent
	FixedCosts    string `json:"fixed_costs"`    // per month
	VariableCosts string `json:"variable_costs"` // percent of revenue
	Employees     string `json:"employees"`
	AvgSalary     string `json:"avg_salary"` // per employee per month
}

// Field names, in the order the form asks for them.
const (
	FieldProjectType   = "project_type"
	FieldRegion        = "region"
	FieldInvestment    = "investment"
	FieldHorizon       = "horizon"
	FieldRevenueYear1  = "revenue_year1"
	FieldGrowth        = "growth"
	FieldFixedCosts    = "fixed_costs"
	FieldVariableCosts = "variable_costs"
	FieldEmployees     = "employees"
	FieldAvgSalary     = "avg_salary"
)

// FieldOrder lists every form field in collection order.
var FieldOrder = []string{
	FieldProjectType,
	FieldRegion,
	FieldInvestment,
	FieldHorizon,
	FieldRevenueYear1,
	FieldGrowth,
	FieldFixedCosts,
	FieldVariableCosts,
	FieldEmployees,
	FieldAvgSalary,
}

// Set stores value under the named field. Unknown names return false.
func (r *RawInputs) Set(field, value string) bool {
	switch field {
	case FieldProjectType:
		r.ProjectType = value
	case FieldRegion:
		r.Region = value
	case FieldInvestment:
		r.Investment = value
	case FieldHorizon:
		r.Horizon = value
	case FieldRevenueYear1:
		r.RevenueYear1 = value
	case FieldGrowth:
		r.Growth = value
	case FieldFixedCosts:
		r.FixedCosts = value
	case FieldVariableCosts:
		r.VariableCosts = value
	case FieldEmployees:
		r.Employees = value
	case FieldAvgSalary:
		r.AvgSalary = value
	default:
		return false
	}
	return true
}

// Get returns the value of the named field.
func (r RawInputs) Get(field string) (string, bool) {
	switch field {
	case FieldProjectType:
		return r.ProjectType, true
	case FieldRegion:
		return r.Region, true
	case FieldInvestment:
		return r.Investment, true
	case FieldHorizon:
		return r.Horizon, true
	case FieldRevenueYear1:
		return r.RevenueYear1, true
	case FieldGrowth:
		return r.Growth, true
	case FieldFixedCosts:
		return r.FixedCosts, true
	case FieldVariableCosts:
		return r.VariableCosts, true
	case FieldEmployees:
		return r.Employees, true
	case FieldAvgSalary:
		return r.AvgSalary, true
	}
	return "", false
}
