package invoice

import (
	"fmt"
	"io"
	"strings"

	"github.com/clearlot-api/internal/domain"
	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 15.0
	lineHeight  = 6.0
	contentWide = 210 - 2*pageMargin
)

// RenderPDF writes d as an A4 PDF with vector text.
func RenderPDF(w io.Writer, d Document) error {
	t := d.Template
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(d.Number, true)
	pdf.SetCreator(t.CompanyName, true)
	pdf.AddPage()

	p := &pdfWriter{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		family:  coreFont(t.FontFamily),
		size:    t.FontSize,
		primary: mustHex(t.PrimaryColor, defaultPrimaryColor),
		second:  mustHex(t.SecondaryColor, defaultSecondaryColor),
	}

	if t.Shows(domain.SectionHeader) {
		p.header(d)
	}
	if t.Shows(domain.SectionBuyer) {
		p.party("Bill to", d.Buyer)
	}
	if t.Shows(domain.SectionSeller) {
		p.party("Seller", d.Seller)
	}
	if t.Shows(domain.SectionItems) {
		p.items(d)
	}
	if t.Shows(domain.SectionTotals) {
		p.totals(d)
	}
	if t.Shows(domain.SectionFooter) && t.FooterText != "" {
		pdf.Ln(lineHeight)
		pdf.SetFont(p.family, "I", p.size-1)
		pdf.SetTextColor(128, 128, 128)
		pdf.MultiCell(contentWide, lineHeight, p.tr(t.FooterText), "", "C", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf layout: %w", err)
	}
	return pdf.Output(w)
}

type pdfWriter struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	family  string
	size    float64
	primary rgb
	second  rgb
}

func (p *pdfWriter) text(style string) {
	p.pdf.SetFont(p.family, style, p.size)
	p.pdf.SetTextColor(0, 0, 0)
}

func (p *pdfWriter) header(d Document) {
	p.pdf.SetFont(p.family, "B", p.size+8)
	p.pdf.SetTextColor(p.primary.r, p.primary.g, p.primary.b)
	p.pdf.CellFormat(contentWide, lineHeight*2, p.tr(d.Template.CompanyName), "", 1, "L", false, 0, "")
	if d.Template.HeaderText != "" {
		p.text("")
		p.pdf.CellFormat(contentWide, lineHeight, p.tr(d.Template.HeaderText), "", 1, "L", false, 0, "")
	}
	p.pdf.Ln(2)
	for _, f := range []Field{
		{"Invoice number", d.Number},
		{"Issued", d.IssuedAt.Format("2006-01-02")},
		{"Status", d.Status},
	} {
		p.row(f)
	}
	p.pdf.Ln(lineHeight)
}

func (p *pdfWriter) heading(title string) {
	p.pdf.SetFont(p.family, "B", p.size)
	p.pdf.SetFillColor(p.primary.r, p.primary.g, p.primary.b)
	p.pdf.SetTextColor(255, 255, 255)
	p.pdf.CellFormat(contentWide, lineHeight+1, p.tr(title), "", 1, "L", true, 0, "")
}

func (p *pdfWriter) row(f Field) {
	p.text("B")
	p.pdf.CellFormat(40, lineHeight, p.tr(f.Label), "", 0, "L", false, 0, "")
	p.text("")
	p.pdf.MultiCell(contentWide-40, lineHeight, p.tr(f.Value), "", "L", false)
}

func (p *pdfWriter) party(title string, fields []Field) {
	p.heading(title)
	for _, f := range fields {
		p.row(f)
	}
	p.pdf.Ln(lineHeight / 2)
}

var itemCols = []float64{90, 25, 32.5, 32.5}

func (p *pdfWriter) items(d Document) {
	p.pdf.SetFont(p.family, "B", p.size)
	p.pdf.SetFillColor(p.second.r, p.second.g, p.second.b)
	p.pdf.SetTextColor(0, 0, 0)
	for i, h := range []string{"Description", "Quantity", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		p.pdf.CellFormat(itemCols[i], lineHeight+1, h, "B", 0, align, true, 0, "")
	}
	p.pdf.Ln(-1)

	p.text("")
	for _, l := range d.Items {
		desc := l.Description
		if l.Unit != "" {
			desc += " (" + l.Unit + ")"
		}
		p.pdf.CellFormat(itemCols[0], lineHeight, p.tr(truncate(desc, 60)), "", 0, "L", false, 0, "")
		p.pdf.CellFormat(itemCols[1], lineHeight, fmt.Sprint(l.Quantity), "", 0, "R", false, 0, "")
		p.pdf.CellFormat(itemCols[2], lineHeight, d.Money(l.UnitPrice), "", 0, "R", false, 0, "")
		p.pdf.CellFormat(itemCols[3], lineHeight, d.Money(l.Amount), "", 1, "R", false, 0, "")
	}
	p.pdf.Ln(lineHeight / 2)
}

func (p *pdfWriter) totals(d Document) {
	labelW := itemCols[0] + itemCols[1] + itemCols[2]
	for i, t := range []struct {
		label string
		v     float64
	}{
		{"Subtotal", d.Subtotal},
		{"Platform fee", d.PlatformFee},
		{"Total", d.Total},
	} {
		style := ""
		if i == 2 {
			style = "B"
		}
		p.text(style)
		p.pdf.CellFormat(labelW, lineHeight, t.label, "", 0, "R", false, 0, "")
		p.pdf.CellFormat(itemCols[3], lineHeight, d.Money(t.v), "", 1, "R", false, 0, "")
	}
}

// coreFont maps a template font to one of the PDF core families.
func coreFont(family string) string {
	switch strings.ToLower(family) {
	case "times", "times new roman", "serif":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	default:
		return "Helvetica"
	}
}

func mustHex(s, fallback string) rgb {
	if c, ok := parseHex(s); ok {
		return c
	}
	c, _ := parseHex(fallback)
	return c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
