package valuation

import (
	"finmodel/pkg/core/calc"
)

// DCFInput encapsulates everything the discounted cash flow step needs.
type DCFInput struct {
	CashFlows    []float64 // net income per year, unrounded
	DiscountRate float64   // e.g. 0.12
	Investment   float64   // up-front outlay
}

// DCFResult holds the discounted schedule and the headline values.
type DCFResult struct {
	PerPeriod       []float64 // CF_t / (1 + r)^t, t = 1..n
	NPV             float64   // Σ PerPeriod; investment is not netted out
	EnterpriseValue float64   // Investment + NPV
}

// CalculateDCF discounts each year's cash flow at a flat rate.
//
// NPV here is the present value of the operating flows only. The outlay is
// added back to form the enterprise value proxy used by the multiples.
func CalculateDCF(input DCFInput) DCFResult {
	per := make([]float64, len(input.CashFlows))
	var npv float64
	for i, cf := range input.CashFlows {
		per[i] = calc.PresentValue(cf, input.DiscountRate, i+1)
		npv += per[i]
	}

	return DCFResult{
		PerPeriod:       per,
		NPV:             npv,
		EnterpriseValue: input.Investment + npv,
	}
}
