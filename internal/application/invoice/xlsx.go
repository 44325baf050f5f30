package invoice

import (
	"fmt"
	"io"
	"strings"

	"github.com/clearlot-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Invoice"

// RenderXLSX writes d as a single-sheet workbook.
func RenderXLSX(w io.Writer, d Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	st, err := newXLSXStyles(f, d.Template)
	if err != nil {
		return fmt.Errorf("xlsx styles: %w", err)
	}
	x := &xlsxWriter{f: f, st: st, row: 1}

	if d.Template.Shows(domain.SectionHeader) {
		x.header(d)
	}
	if d.Template.Shows(domain.SectionBuyer) {
		x.party("Bill to", d.Buyer)
	}
	if d.Template.Shows(domain.SectionSeller) {
		x.party("Seller", d.Seller)
	}
	if d.Template.Shows(domain.SectionItems) {
		x.items(d)
	}
	if d.Template.Shows(domain.SectionTotals) {
		x.totals(d)
	}
	if d.Template.Shows(domain.SectionFooter) && d.Template.FooterText != "" {
		x.row++
		x.set(1, d.Template.FooterText, st.muted)
	}
	if x.err != nil {
		return fmt.Errorf("xlsx layout: %w", x.err)
	}

	for col, width := range map[string]float64{"A": 42, "B": 12, "C": 16, "D": 18} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}
	return f.Write(w)
}

type xlsxStyles struct {
	title, heading, label, money, muted int
}

func newXLSXStyles(f *excelize.File, t domain.InvoiceTemplate) (xlsxStyles, error) {
	primary := strings.TrimPrefix(t.PrimaryColor, "#")
	secondary := strings.TrimPrefix(t.SecondaryColor, "#")
	font := func(bold bool, size float64, color string) *excelize.Font {
		return &excelize.Font{Bold: bold, Size: size, Color: color, Family: t.FontFamily}
	}
	specs := []*excelize.Style{
		{Font: font(true, t.FontSize+8, primary)},
		{Font: font(true, t.FontSize, "FFFFFF"), Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{primary}}},
		{Font: font(true, t.FontSize, "000000"), Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{secondary}}},
		{Font: font(false, t.FontSize, "000000"), NumFmt: 4},
		{Font: &excelize.Font{Italic: true, Size: t.FontSize, Color: "808080", Family: t.FontFamily}},
	}
	ids := make([]int, len(specs))
	for i, s := range specs {
		id, err := f.NewStyle(s)
		if err != nil {
			return xlsxStyles{}, err
		}
		ids[i] = id
	}
	return xlsxStyles{title: ids[0], heading: ids[1], label: ids[2], money: ids[3], muted: ids[4]}, nil
}

// xlsxWriter fills rows top to bottom and keeps the first error.
type xlsxWriter struct {
	f   *excelize.File
	st  xlsxStyles
	row int
	err error
}

func (x *xlsxWriter) set(col int, v any, style int) {
	if x.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, x.row)
	if err != nil {
		x.err = err
		return
	}
	if err := x.f.SetCellValue(sheetName, cell, v); err != nil {
		x.err = err
		return
	}
	if style != 0 {
		x.err = x.f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func (x *xlsxWriter) header(d Document) {
	x.set(1, d.Template.CompanyName, x.st.title)
	x.row++
	if d.Template.HeaderText != "" {
		x.set(1, d.Template.HeaderText, 0)
		x.row++
	}
	x.set(1, "Invoice number", x.st.label)
	x.set(2, d.Number, 0)
	x.row++
	x.set(1, "Issued", x.st.label)
	x.set(2, d.IssuedAt.Format("2006-01-02"), 0)
	x.row++
	x.set(1, "Status", x.st.label)
	x.set(2, d.Status, 0)
	x.row += 2
}

func (x *xlsxWriter) party(title string, fields []Field) {
	x.set(1, title, x.st.heading)
	x.row++
	for _, f := range fields {
		x.set(1, f.Label, x.st.label)
		x.set(2, f.Value, 0)
		x.row++
	}
	x.row++
}

func (x *xlsxWriter) items(d Document) {
	for i, h := range []string{"Description", "Quantity", "Unit price", "Amount"} {
		x.set(i+1, h, x.st.heading)
	}
	x.row++
	for _, l := range d.Items {
		desc := l.Description
		if l.Unit != "" {
			desc += " (" + l.Unit + ")"
		}
		x.set(1, desc, 0)
		x.set(2, l.Quantity, 0)
		x.set(3, l.UnitPrice, x.st.money)
		x.set(4, l.Amount, x.st.money)
		x.row++
	}
	x.row++
}

func (x *xlsxWriter) totals(d Document) {
	for _, t := range []struct {
		label string
		v     float64
	}{
		{"Subtotal (" + d.Currency + ")", d.Subtotal},
		{"Platform fee (" + d.Currency + ")", d.PlatformFee},
		{"Total (" + d.Currency + ")", d.Total},
	} {
		x.set(3, t.label, x.st.label)
		x.set(4, t.v, x.st.money)
		x.row++
	}
}
