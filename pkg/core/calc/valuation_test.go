package calc

import (
	"math"
	"testing"
)

func TestPresentValueOfCashFlows(t *testing.T) {
	// 100 at t=1 and t=2 at 10%: 90.909 + 82.645 = 173.554
	pv := PresentValueOfCashFlows([]float64{100, 100}, 0.10)
	if math.Abs(pv-173.5537) > 0.0001 {
		t.Errorf("expected 173.5537, got %f", pv)
	}
	if PresentValue(100, 0.1, -1) != 0 {
		t.Error("negative periods should yield 0")
	}
}

func TestNetPresentValue(t *testing.T) {
	npv := NetPresentValue(0.10, 100, []float64{110})
	if math.Abs(npv) > 1e-9 {
		t.Errorf("expected 0, got %v", npv)
	}
}

func TestInternalRateOfReturn(t *testing.T) {
	tests := []struct {
		name       string
		investment float64
		flows      []float64
		want       float64
		ok         bool
	}{
		{"single period 10%", 100, []float64{110}, 0.10, true},
		{"annuity", 1000, []float64{500, 500, 500}, 0.23375, true},
		{"negative return", 1000, []float64{300, 300, 300}, -0.05089, true},
		{"losses only", 500, []float64{-100, -100}, 0, false},
		{"nothing invested nothing earned", 0, []float64{0, 0}, 0, false},
		{"empty", 100, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InternalRateOfReturn(tt.investment, tt.flows)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v (rate %v)", ok, tt.ok, got)
			}
			if ok && math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("rate: got %.6f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestInternalRateOfReturn_BisectionFallback(t *testing.T) {
	// A near-total loss sends Newton from 10% below -100%; the bracket scan
	// still finds the root at -90%.
	got, ok := InternalRateOfReturn(1000, []float64{100})
	if !ok {
		t.Fatal("expected a root")
	}
	if math.Abs(got+0.9) > 1e-6 {
		t.Errorf("expected -0.9, got %v", got)
	}
}

func TestPaybackYear(t *testing.T) {
	tests := []struct {
		name       string
		investment float64
		flows      []float64
		year       int
		ok         bool
	}{
		{"second year", 150, []float64{100, 100, 100}, 2, true},
		{"exactly covered", 200, []float64{100, 100}, 2, true},
		{"zero investment", 0, []float64{5, 5}, 1, true},
		{"never", 1000, []float64{100, 100}, 0, false},
		{"losses then recovery", 100, []float64{-50, 100, 100}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, ok := PaybackYear(tt.investment, tt.flows)
			if year != tt.year || ok != tt.ok {
				t.Errorf("got (%d, %v), want (%d, %v)", year, ok, tt.year, tt.ok)
			}
		})
	}
}

func TestProjectCompound(t *testing.T) {
	if v := ProjectCompound(1000, 0.1, 0); v != 1000 {
		t.Errorf("period 0: got %v", v)
	}
	if v := ProjectCompound(1000, 0.1, 2); math.Abs(v-1210) > 1e-9 {
		t.Errorf("period 2: got %v", v)
	}
}

func TestRounding(t *testing.T) {
	if RoundWhole(0.5) != 0 || RoundWhole(1.5) != 2 || RoundWhole(-2.5) != -2 {
		t.Error("RoundWhole should round ties to even")
	}
	if RoundTo(23.3754, 2) != 23.38 {
		t.Errorf("RoundTo: got %v", RoundTo(23.3754, 2))
	}
	if RoundTo(0.125, 2) != 0.12 || RoundTo(0.375, 2) != 0.38 {
		t.Errorf("RoundTo should round ties to even: got %v and %v", RoundTo(0.125, 2), RoundTo(0.375, 2))
	}
}
