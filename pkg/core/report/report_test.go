package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/projection"
)

func briefResult() projection.Result {
	return projection.Project(calc.NormalizedParameters{
		ProjectType:       "IT/SaaS",
		Region:            "Moscow",
		Horizon:           3,
		RevenueYear1:      1_000_000,
		GrowthRate:        0.10,
		Investment:        500_000,
		FixedCostsMonthly: 50_000,
		VariableCostsPct:  0.30,
		Employees:         2,
		AvgSalary:         80_000,
	})
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func rows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rs, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows of %s: %v", sheet, err)
	}
	return rs
}

func TestBytes_SheetsAndContent(t *testing.T) {
	data, err := Bytes(briefResult())
	if err != nil {
		t.Fatal(err)
	}
	f := openWorkbook(t, data)

	want := []string{SheetSummary, SheetAssumptions, SheetPnL, SheetMultiples, SheetReference}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d: got %s, want %s", i, got[i], want[i])
		}
	}

	summary := rows(t, f, SheetSummary)
	if len(summary) != 8 {
		t.Fatalf("summary rows: %d", len(summary))
	}
	checks := map[int][2]string{
		1: {"Total Investment", "500 000 ₽"},
		3: {"IRR", "N/A"},
		4: {"Payback period", "beyond horizon"},
		5: {"Planning horizon", "3 years"},
		6: {"Discount rate", "12.0 %"},
		7: {"Tax rate", "20.0 %"},
	}
	for i, c := range checks {
		if summary[i][0] != c[0] || summary[i][1] != c[1] {
			t.Errorf("summary row %d: got %v, want %v", i, summary[i], c)
		}
	}

	assumptions := rows(t, f, SheetAssumptions)
	if len(assumptions) != 11 {
		t.Fatalf("assumption rows: %d", len(assumptions))
	}
	if assumptions[1][1] != "IT/SaaS" || assumptions[6][1] != "10.0 % per year" || assumptions[9][1] != "2 people" {
		t.Errorf("assumptions: %v", assumptions)
	}

	pnl := rows(t, f, SheetPnL)
	if len(pnl) != 4 {
		t.Fatalf("P&L rows: %d", len(pnl))
	}
	if len(pnl[0]) != len(PnLHeader) || pnl[0][5] != "EBITDA (₽)" {
		t.Errorf("P&L header: %v", pnl[0])
	}
	year1 := []string{"1", "1000000", "300000", "600000", "1920000", "-1820000", "0", "-1820000", "-1625000", "-1820000"}
	for i, v := range year1 {
		if pnl[1][i] != v {
			t.Errorf("P&L year 1 col %d: got %s, want %s", i, pnl[1][i], v)
		}
	}

	multiples := rows(t, f, SheetMultiples)
	if len(multiples) != 3 || multiples[1][0] != "EV/Revenue" || multiples[2][0] != "EV/EBITDA" {
		t.Errorf("multiples: %v", multiples)
	}

	reference := rows(t, f, SheetReference)
	if len(reference) != 8 || reference[1][0] != "EBITDA" {
		t.Errorf("reference: %v", reference)
	}
}

func TestBuild_HeaderBold(t *testing.T) {
	f, err := Build(briefResult())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	id, err := f.GetCellStyle(SheetPnL, "A1")
	if err != nil {
		t.Fatal(err)
	}
	style, err := f.GetStyle(id)
	if err != nil {
		t.Fatal(err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("header should be bold")
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := WriteFile(dir, briefResult(), now)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "financial_model_20250102_030405.xlsx" {
		t.Errorf("filename: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{GroupThousands(1234567), "1 234 567"},
		{GroupThousands(-1820000), "-1 820 000"},
		{GroupThousands(999), "999"},
		{GroupThousands(0), "0"},
		{GroupThousands(1000.5), "1 000"},
		{Money(500000), "500 000 ₽"},
		{Percent(0.12), "12.0 %"},
		{Percent(0.125), "12.5 %"},
		{IRR(projection.Metric{Value: 23.38, Computable: true}), "23.38 %"},
		{IRR(projection.Metric{}), "N/A"},
		{Multiple(projection.Metric{Value: 1.234, Computable: true}), "1.23"},
		{Multiple(projection.Metric{}), "N/A"},
		{PaybackPeriod(projection.Payback{Year: 1, WithinHorizon: true}), "1 year"},
		{PaybackPeriod(projection.Payback{Year: 4, WithinHorizon: true}), "4 years"},
		{PaybackPeriod(projection.Payback{}), "beyond horizon"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
