package prompt

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	NarrativeAnalysis string
}{
	NarrativeAnalysis: "narrative.analysis",
}

const narrativeSystem = `You are a financial analyst reviewing an early-stage business plan.
Write a short commentary (at most 200 words) in Markdown for the founder.
Cover: whether the project pays back within the horizon, what drives the result
(revenue growth, payroll, fixed and variable costs), and two or three concrete
suggestions. Use the figures given; do not invent new ones.`

const narrativeUser = `Project type: {{.ProjectType}}
Region: {{.Region}}
Investment: {{.Investment}}
Planning horizon: {{.Horizon}} years
First-year revenue: {{.RevenueYear1}}
Revenue growth: {{.Growth}} % per year
Fixed costs: {{.FixedCosts}} per month
Variable costs: {{.VariableCosts}} % of revenue
Employees: {{.Employees}}
Average salary: {{.AvgSalary}} per month

Results:
NPV (discounted net income, 12% rate): {{.NPV}}
IRR: {{.IRR}}
Payback year: {{.Payback}}
EV/Revenue: {{.EVRevenue}}
EV/EBITDA: {{.EVEBITDA}}`

// RegisterDefaults installs the built-in prompts into r.
func RegisterDefaults(r *Registry) {
	r.Register(&PromptTemplate{
		ID:             PromptIDs.NarrativeAnalysis,
		Name:           "Narrative analysis",
		Category:       "narrative",
		Description:    "Plain-language commentary on a projection run",
		SystemPrompt:   narrativeSystem,
		UserPromptTmpl: narrativeUser,
		Version:        "1",
	})
}
