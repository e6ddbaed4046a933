package projection

import (
	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/valuation"
)

// Project builds the year-by-year pro-forma table and the summary metrics.
//
// The function is pure: identical parameters give bit-identical results.
// Params must come from calc.Normalize (horizon >= 1, finite values).
func Project(params calc.NormalizedParameters) Result {
	years, cashFlows := projectYears(params)

	dcf := valuation.CalculateDCF(valuation.DCFInput{
		CashFlows:    cashFlows,
		DiscountRate: DiscountRate,
		Investment:   params.Investment,
	})

	summary := SummaryMetrics{
		Investment:      params.Investment,
		Horizon:         params.Horizon,
		NPV:             dcf.NPV,
		EnterpriseValue: dcf.EnterpriseValue,
		DiscountRate:    DiscountRate,
		TaxRate:         TaxRate,
	}

	if irr, ok := calc.InternalRateOfReturn(params.Investment, cashFlows); ok {
		summary.IRR = computable(calc.RoundTo(irr*100, 2))
	}
	if year, ok := calc.PaybackYear(params.Investment, cashFlows); ok {
		summary.Payback = Payback{Year: year, WithinHorizon: true}
	}

	// Multiples use the totals of the table as displayed.
	for _, y := range years {
		r := y.Rounded()
		summary.RevenueTotal += r.Revenue
		summary.EBITDATotal += r.EBITDA
	}
	mult := valuation.CalculateMultiples(valuation.MultiplesInput{
		EnterpriseValue: dcf.EnterpriseValue,
		RevenueTotal:    summary.RevenueTotal,
		EBITDATotal:     summary.EBITDATotal,
	})
	if mult.EVRevenueOK {
		summary.EVRevenue = computable(mult.EVRevenue)
	}
	if mult.EVEBITDAOK {
		summary.EVEBITDA = computable(mult.EVEBITDA)
	}

	return Result{
		Params:  params,
		Years:   years,
		Summary: summary,
	}
}

// projectYears returns the table and the unrounded net income series that
// every summary metric is computed from.
func projectYears(p calc.NormalizedParameters) ([]YearRecord, []float64) {
	years := make([]YearRecord, 0, p.Horizon)
	cashFlows := make([]float64, 0, p.Horizon)

	fixed := p.FixedCostsMonthly * 12
	payroll := p.AvgSalary * float64(p.Employees) * 12

	var cumulative float64
	for year := 1; year <= p.Horizon; year++ {
		revenue := calc.ProjectCompound(p.RevenueYear1, p.GrowthRate, year-1)
		variable := revenue * p.VariableCostsPct
		ebitda := revenue - (variable + fixed + payroll)

		// No tax shield on losses.
		var tax float64
		if ebitda > 0 {
			tax = TaxRate * ebitda
		}
		netIncome := ebitda - tax
		cumulative += netIncome

		years = append(years, YearRecord{
			Year:                year,
			Revenue:             revenue,
			VariableCosts:       variable,
			FixedCosts:          fixed,
			PayrollCosts:        payroll,
			EBITDA:              ebitda,
			Tax:                 tax,
			NetIncome:           netIncome,
			DiscountedCashFlow:  calc.PresentValue(netIncome, DiscountRate, year),
			CumulativeNetIncome: cumulative,
		})
		cashFlows = append(cashFlows, netIncome)
	}

	return years, cashFlows
}
