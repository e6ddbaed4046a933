// Package calc provides the deterministic arithmetic behind the projection:
// input normalization, present values, IRR and payback.
package calc

import (
	"math"
)

// =============================================================================
// GROWTH
// =============================================================================

// ProjectCompound grows a base amount for a number of periods.
//
// FORMULA: Amount_t = Base × (1 + g)^t
//
// t = 0 returns the base unchanged, so year 1 of a projection is the
// first-year figure itself.
func ProjectCompound(base, growthRate float64, periods int) float64 {
	return base * math.Pow(1+growthRate, float64(periods))
}

// =============================================================================
// DISCOUNTING
// =============================================================================

// PresentValue calculates PV of a single cash flow.
//
// FORMULA: PV = CF / (1 + r)^t
func PresentValue(cashFlow, discountRate float64, periods int) float64 {
	if periods < 0 {
		return 0
	}
	return cashFlow / math.Pow(1+discountRate, float64(periods))
}

// PresentValueOfCashFlows calculates PV of a series of cash flows.
//
// FORMULA: PV = Σ [ CF_t / (1 + r)^t ]
//
// Cash flows are assumed to be at end of each period (ordinary annuity).
func PresentValueOfCashFlows(cashFlows []float64, discountRate float64) float64 {
	var pv float64
	for t, cf := range cashFlows {
		pv += PresentValue(cf, discountRate, t+1)
	}
	return pv
}

// NetPresentValue nets an up-front outlay against the discounted flows.
//
// FORMULA: NPV = -I + Σ [ CF_t / (1 + r)^t ]
func NetPresentValue(discountRate, investment float64, cashFlows []float64) float64 {
	return -investment + PresentValueOfCashFlows(cashFlows, discountRate)
}

// =============================================================================
// INTERNAL RATE OF RETURN
// =============================================================================

const (
	irrGuess         = 0.10
	irrTolerance     = 1e-10
	irrMaxIterations = 100
)

// irrBrackets are the rates scanned for a sign change when Newton's method
// fails. All are above -100%, where the NPV polynomial is defined.
var irrBrackets = []float64{
	-0.99, -0.95, -0.9, -0.75, -0.5, -0.25, -0.1, 0,
	0.05, 0.1, 0.2, 0.35, 0.5, 0.75, 1, 1.5, 2, 3, 5, 10, 25, 100,
}

// InternalRateOfReturn solves -I + Σ CF_t/(1+r)^t = 0 for r.
//
// Newton-Raphson from 10% is tried first; if it diverges or leaves the
// domain r > -1, the bracket table is scanned for a sign change and the
// root bisected. ok is false when no root is found.
func InternalRateOfReturn(investment float64, cashFlows []float64) (rate float64, ok bool) {
	if len(cashFlows) == 0 || allZero(investment, cashFlows) {
		return 0, false
	}
	if r, ok := irrNewton(investment, cashFlows); ok {
		return r, true
	}
	return irrBisect(investment, cashFlows)
}

func irrNewton(investment float64, cashFlows []float64) (float64, bool) {
	r := irrGuess
	for i := 0; i < irrMaxIterations; i++ {
		f, df := npvAndDerivative(r, investment, cashFlows)
		if df == 0 || math.IsNaN(f) || math.IsNaN(df) {
			return 0, false
		}
		next := r - f/df
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if math.Abs(next-r) < irrTolerance {
			return next, true
		}
		r = next
	}
	return 0, false
}

func irrBisect(investment float64, cashFlows []float64) (float64, bool) {
	lo := irrBrackets[0]
	fLo := NetPresentValue(lo, investment, cashFlows)
	for _, hi := range irrBrackets[1:] {
		fHi := NetPresentValue(hi, investment, cashFlows)
		if fLo == 0 {
			return lo, true
		}
		if fHi == 0 {
			return hi, true
		}
		if math.Signbit(fLo) != math.Signbit(fHi) {
			a, b, fa := lo, hi, fLo
			for i := 0; i < 200; i++ {
				mid := (a + b) / 2
				fm := NetPresentValue(mid, investment, cashFlows)
				if fm == 0 || (b-a)/2 < irrTolerance {
					return mid, true
				}
				if math.Signbit(fm) == math.Signbit(fa) {
					a, fa = mid, fm
				} else {
					b = mid
				}
			}
			return (a + b) / 2, true
		}
		lo, fLo = hi, fHi
	}
	return 0, false
}

// allZero reports a flow vector whose NPV is zero at every rate.
func allZero(investment float64, cashFlows []float64) bool {
	if investment != 0 {
		return false
	}
	for _, cf := range cashFlows {
		if cf != 0 {
			return false
		}
	}
	return true
}

func npvAndDerivative(r, investment float64, cashFlows []float64) (float64, float64) {
	f := -investment
	var df float64
	for i, cf := range cashFlows {
		t := float64(i + 1)
		f += cf / math.Pow(1+r, t)
		df -= t * cf / math.Pow(1+r, t+1)
	}
	return f, df
}

// =============================================================================
// PAYBACK
// =============================================================================

// PaybackYear returns the first 1-based period whose cumulative cash flow
// reaches the investment. ok is false when the horizon ends first.
func PaybackYear(investment float64, cashFlows []float64) (year int, ok bool) {
	var cumulative float64
	for i, cf := range cashFlows {
		cumulative += cf
		if cumulative >= investment {
			return i + 1, true
		}
	}
	return 0, false
}

// =============================================================================
// ROUNDING
// =============================================================================

// RoundWhole rounds to the nearest whole unit, ties to even.
func RoundWhole(v float64) float64 {
	return math.RoundToEven(v)
}

// RoundTo rounds to the given number of decimal places, ties to even.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
