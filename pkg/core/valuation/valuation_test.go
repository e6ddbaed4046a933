package valuation

import (
	"math"
	"testing"
)

func TestCalculateDCF(t *testing.T) {
	res := CalculateDCF(DCFInput{
		CashFlows:    []float64{112, 125.44},
		DiscountRate: 0.12,
		Investment:   500,
	})

	if len(res.PerPeriod) != 2 {
		t.Fatalf("PerPeriod len = %d, want 2", len(res.PerPeriod))
	}
	for i, pv := range res.PerPeriod {
		if math.Abs(pv-100) > 1e-9 {
			t.Errorf("PerPeriod[%d] = %v, want 100", i, pv)
		}
	}
	if math.Abs(res.NPV-200) > 1e-9 {
		t.Errorf("NPV = %v, want 200", res.NPV)
	}
	if math.Abs(res.EnterpriseValue-700) > 1e-9 {
		t.Errorf("EnterpriseValue = %v, want 700", res.EnterpriseValue)
	}
}

func TestCalculateDCF_Empty(t *testing.T) {
	res := CalculateDCF(DCFInput{DiscountRate: 0.12, Investment: 10})
	if res.NPV != 0 || res.EnterpriseValue != 10 {
		t.Errorf("got NPV=%v EV=%v, want 0 and 10", res.NPV, res.EnterpriseValue)
	}
}

func TestCalculateMultiples(t *testing.T) {
	tests := []struct {
		name         string
		in           MultiplesInput
		wantRev      float64
		wantRevOK    bool
		wantEBITDA   float64
		wantEBITDAOK bool
	}{
		{
			name:         "both defined",
			in:           MultiplesInput{EnterpriseValue: 1000, RevenueTotal: 500, EBITDATotal: 250},
			wantRev:      2,
			wantRevOK:    true,
			wantEBITDA:   4,
			wantEBITDAOK: true,
		},
		{
			name:         "zero ebitda",
			in:           MultiplesInput{EnterpriseValue: 1000, RevenueTotal: 500},
			wantRev:      2,
			wantRevOK:    true,
			wantEBITDAOK: false,
		},
		{
			name:         "negative ebitda",
			in:           MultiplesInput{EnterpriseValue: 1000, RevenueTotal: 1000, EBITDATotal: -500},
			wantRev:      1,
			wantRevOK:    true,
			wantEBITDA:   -2,
			wantEBITDAOK: true,
		},
		{
			name: "zero revenue",
			in:   MultiplesInput{EnterpriseValue: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateMultiples(tt.in)
			if got.EVRevenueOK != tt.wantRevOK || (tt.wantRevOK && got.EVRevenue != tt.wantRev) {
				t.Errorf("EV/Revenue = %v (%v), want %v (%v)", got.EVRevenue, got.EVRevenueOK, tt.wantRev, tt.wantRevOK)
			}
			if got.EVEBITDAOK != tt.wantEBITDAOK || (tt.wantEBITDAOK && got.EVEBITDA != tt.wantEBITDA) {
				t.Errorf("EV/EBITDA = %v (%v), want %v (%v)", got.EVEBITDA, got.EVEBITDAOK, tt.wantEBITDA, tt.wantEBITDAOK)
			}
		})
	}
}
