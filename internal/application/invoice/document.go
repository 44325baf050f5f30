package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clearlot-api/internal/domain"
)

// NotAvailable replaces any value whose source record could not be loaded.
const NotAvailable = "Information not available"

const (
	defaultPrimaryColor   = "#1F4E79"
	defaultSecondaryColor = "#D9E2F3"
	defaultFontFamily     = "Helvetica"
	defaultFontSize       = 10
	defaultCurrency       = "HKD"
)

// Field is one labelled value of a party block.
type Field struct {
	Label string
	Value string
}

// Line is one invoiced item.
type Line struct {
	Description string
	Unit        string
	Quantity    int
	UnitPrice   float64
	Amount      float64
}

// Document is the renderer-independent content of an invoice. Both the XLSX
// and the PDF renderer draw exactly this.
type Document struct {
	Template    domain.InvoiceTemplate
	Number      string
	IssuedAt    time.Time
	Status      string
	Currency    string
	Buyer       []Field
	Seller      []Field
	Items       []Line
	Subtotal    float64
	PlatformFee float64
	Total       float64
}

// Build lays out an invoice for p. offer, buyer, seller and tpl may all be
// nil; missing records render as NotAvailable.
func Build(p domain.Purchase, offer *domain.Offer, buyer, seller *domain.User, tpl *domain.InvoiceTemplate) Document {
	d := Document{
		Template:    withDefaults(tpl),
		Number:      "INV-" + strings.ToUpper(p.PurchaseID),
		IssuedAt:    p.CreatedAt,
		Status:      p.Status,
		Currency:    p.Currency,
		Buyer:       partyFields(buyer),
		Seller:      partyFields(seller),
		PlatformFee: p.PlatformFee,
	}
	if d.Currency == "" {
		d.Currency = defaultCurrency
	}

	line := Line{Description: NotAvailable, Quantity: p.Quantity, UnitPrice: p.UnitPrice}
	if offer != nil {
		line.Description = offer.Title
		line.Unit = offer.Unit
		if p.Currency == "" && offer.Currency != "" {
			d.Currency = offer.Currency
		}
	}
	if line.UnitPrice == 0 && p.Quantity > 0 {
		line.UnitPrice = (p.TotalAmount - p.PlatformFee) / float64(p.Quantity)
	}
	line.Amount = line.UnitPrice * float64(line.Quantity)
	d.Items = []Line{line}

	d.Subtotal = line.Amount
	d.Total = p.TotalAmount
	if d.Total == 0 {
		d.Total = d.Subtotal + d.PlatformFee
	}
	return d
}

// Money formats an amount in the document currency.
func (d Document) Money(v float64) string {
	return fmt.Sprintf("%s %.2f", d.Currency, v)
}

func partyFields(u *domain.User) []Field {
	if u == nil {
		return []Field{{Label: "Company", Value: NotAvailable}}
	}
	return []Field{
		{Label: "Company", Value: orNA(u.CompanyName)},
		{Label: "Contact", Value: orNA(u.ContactPerson)},
		{Label: "Email", Value: orNA(u.Email)},
		{Label: "Phone", Value: orNA(u.Phone)},
		{Label: "Address", Value: orNA(u.Address)},
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func withDefaults(tpl *domain.InvoiceTemplate) domain.InvoiceTemplate {
	var t domain.InvoiceTemplate
	if tpl != nil {
		t = *tpl
	}
	if _, ok := parseHex(t.PrimaryColor); !ok {
		t.PrimaryColor = defaultPrimaryColor
	}
	if _, ok := parseHex(t.SecondaryColor); !ok {
		t.SecondaryColor = defaultSecondaryColor
	}
	if t.FontFamily == "" {
		t.FontFamily = defaultFontFamily
	}
	if t.FontSize <= 0 {
		t.FontSize = defaultFontSize
	}
	return t
}

type rgb struct{ r, g, b int }

// parseHex reads a #RRGGBB color.
func parseHex(s string) (rgb, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, true
}
