package valuation

// MultiplesInput holds the enterprise value proxy and the horizon totals it
// is compared against.
type MultiplesInput struct {
	EnterpriseValue float64
	RevenueTotal    float64
	EBITDATotal     float64
}

// MultiplesResult carries each multiple with a flag telling whether its
// denominator allowed a value at all.
type MultiplesResult struct {
	EVRevenue   float64
	EVRevenueOK bool
	EVEBITDA    float64
	EVEBITDAOK  bool
}

// CalculateMultiples computes EV/Revenue and EV/EBITDA.
// A denominator of exactly zero leaves the multiple unset; a negative EBITDA
// total still yields a (negative) multiple.
func CalculateMultiples(input MultiplesInput) MultiplesResult {
	res := MultiplesResult{}

	if input.RevenueTotal != 0 {
		res.EVRevenue = input.EnterpriseValue / input.RevenueTotal
		res.EVRevenueOK = true
	}
	if input.EBITDATotal != 0 {
		res.EVEBITDA = input.EnterpriseValue / input.EBITDATotal
		res.EVEBITDAOK = true
	}

	return res
}
