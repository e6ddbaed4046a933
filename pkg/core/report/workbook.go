// Package report renders a projection run into an .xlsx workbook. All
// human-facing number formatting lives here; the engine only produces
// raw values.
package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/projection"
)

// Sheet names, in workbook order.
const (
	SheetSummary     = "Summary"
	SheetAssumptions = "Assumptions"
	SheetPnL         = "P&L"
	SheetMultiples   = "Multiples"
	SheetReference   = "Reference"
)

// PnLHeader is the header row of the P&L sheet.
var PnLHeader = []string{
	"Year",
	"Revenue (" + Currency + ")",
	"Variable costs (" + Currency + ")",
	"Fixed costs (" + Currency + ")",
	"Payroll (" + Currency + ")",
	"EBITDA (" + Currency + ")",
	"Tax (" + Currency + ")",
	"Net income (" + Currency + ")",
	"DCF (" + Currency + ")",
	"Cumulative net income (" + Currency + ")",
}

// referenceRows is the static glossary sheet.
var referenceRows = [][2]string{
	{"EBITDA", "Earnings before interest, taxes, depreciation and amortization"},
	{"NPV", "Net present value: today's value of future net income"},
	{"IRR", "Internal rate of return: the discount rate at which NPV = 0"},
	{"Payback", "Time it takes for the investment to be recovered"},
	{"DCF", "Discounted cash flow: net income adjusted for the time value of money"},
	{"EV/EBITDA", "Enterprise value relative to earnings before taxes and amortization"},
	{"EV/Revenue", "Enterprise value relative to revenue"},
}

// Filename returns financial_model_YYYYMMDD_HHMMSS.xlsx for now.
func Filename(now time.Time) string {
	return "financial_model_" + now.Format("20060102_150405") + ".xlsx"
}

// Build assembles the workbook. The caller must Close the file.
func Build(res projection.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	b := &builder{f: f}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetAssumptions, SheetPnL, SheetMultiples, SheetReference} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := b.styles(); err != nil {
		f.Close()
		return nil, err
	}

	b.summary(res.Summary)
	b.assumptions(res.Params)
	b.pnl(res.Years)
	b.multiples(res.Summary)
	b.reference()

	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Render writes the workbook to w.
func Render(w io.Writer, res projection.Result) error {
	f, err := Build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes renders the workbook in memory.
func Bytes(res projection.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders into dir (created if missing) and returns the path.
func WriteFile(dir string, res projection.Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, Filename(now))

	f, err := Build(res)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	slog.Info("workbook written", "component", "report", "path", path)
	return path, nil
}

// builder carries the first error so sheet writers stay linear.
type builder struct {
	f       *excelize.File
	err     error
	header  int
	body    int
	numeric int
}

func (b *builder) styles() error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	font := &excelize.Font{Family: "Calibri", Size: 11}

	var err error
	if b.header, err = b.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 11, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if b.body, err = b.f.NewStyle(&excelize.Style{
		Font:      font,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return fmt.Errorf("body style: %w", err)
	}
	// 3 = built-in "#,##0"
	if b.numeric, err = b.f.NewStyle(&excelize.Style{
		Font:      font,
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		Border:    border,
		NumFmt:    3,
	}); err != nil {
		return fmt.Errorf("numeric style: %w", err)
	}
	return nil
}

func (b *builder) row(sheet string, row int, values []interface{}) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
}

func (b *builder) style(sheet string, fromCol, fromRow, toCol, toRow, style int) {
	if b.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(fromCol, fromRow)
	to, _ := excelize.CoordinatesToCellName(toCol, toRow)
	if err := b.f.SetCellStyle(sheet, from, to, style); err != nil {
		b.err = fmt.Errorf("%s style: %w", sheet, err)
	}
}

func (b *builder) widths(sheet string, widths ...float64) {
	for i, w := range widths {
		if b.err != nil {
			return
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := b.f.SetColWidth(sheet, col, col, w); err != nil {
			b.err = fmt.Errorf("%s width: %w", sheet, err)
		}
	}
}

// pairs writes a two-column key/value sheet with a header row.
func (b *builder) pairs(sheet string, header [2]string, rows [][2]string, widths ...float64) {
	b.row(sheet, 1, []interface{}{header[0], header[1]})
	for i, r := range rows {
		b.row(sheet, i+2, []interface{}{r[0], r[1]})
	}
	b.style(sheet, 1, 1, 2, 1, b.header)
	b.style(sheet, 1, 2, 2, len(rows)+1, b.body)
	b.widths(sheet, widths...)
}

func (b *builder) summary(s projection.SummaryMetrics) {
	b.pairs(SheetSummary, [2]string{"Metric", "Value"}, [][2]string{
		{"Total Investment", Money(s.Investment)},
		{"NPV", Money(s.NPV)},
		{"IRR", IRR(s.IRR)},
		{"Payback period", PaybackPeriod(s.Payback)},
		{"Planning horizon", Years(s.Horizon)},
		{"Discount rate", Percent(s.DiscountRate)},
		{"Tax rate", Percent(s.TaxRate)},
	}, 28, 24)
}

func (b *builder) assumptions(p calc.NormalizedParameters) {
	employees := fmt.Sprintf("%d people", p.Employees)
	if p.Employees == 1 {
		employees = "1 person"
	}
	b.pairs(SheetAssumptions, [2]string{"Parameter", "Value"}, [][2]string{
		{"Project type", p.ProjectType},
		{"Region", p.Region},
		{"Investment", Money(p.Investment)},
		{"Planning horizon", Years(p.Horizon)},
		{"Revenue in year 1", Money(p.RevenueYear1)},
		{"Revenue growth", Percent(p.GrowthRate) + " per year"},
		{"Variable costs", Percent(p.VariableCostsPct) + " of revenue"},
		{"Fixed costs", Money(p.FixedCostsMonthly) + " per month"},
		{"Employees", employees},
		{"Average salary", Money(p.AvgSalary) + " per month"},
	}, 28, 32)
}

func (b *builder) pnl(years []projection.YearRecord) {
	header := make([]interface{}, len(PnLHeader))
	for i, h := range PnLHeader {
		header[i] = h
	}
	b.row(SheetPnL, 1, header)

	for i, y := range years {
		r := y.Rounded()
		b.row(SheetPnL, i+2, []interface{}{
			r.Year, r.Revenue, r.VariableCosts, r.FixedCosts, r.PayrollCosts,
			r.EBITDA, r.Tax, r.NetIncome, r.DiscountedCashFlow, r.CumulativeNetIncome,
		})
	}

	cols := len(PnLHeader)
	b.style(SheetPnL, 1, 1, cols, 1, b.header)
	if len(years) > 0 {
		b.style(SheetPnL, 1, 2, 1, len(years)+1, b.body)
		b.style(SheetPnL, 2, 2, cols, len(years)+1, b.numeric)
	}
	widths := make([]float64, cols)
	widths[0] = 8
	for i := 1; i < cols; i++ {
		widths[i] = 20
	}
	b.widths(SheetPnL, widths...)
}

func (b *builder) multiples(s projection.SummaryMetrics) {
	b.pairs(SheetMultiples, [2]string{"Multiple", "Value"}, [][2]string{
		{"EV/Revenue", Multiple(s.EVRevenue)},
		{"EV/EBITDA", Multiple(s.EVEBITDA)},
	}, 18, 16)
}

func (b *builder) reference() {
	b.pairs(SheetReference, [2]string{"Metric", "Description"}, referenceRows[:], 14, 72)
}
