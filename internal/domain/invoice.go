package domain

// InvoiceSection names a block of the invoice layout that a template can hide.
type InvoiceSection string

const (
	SectionHeader InvoiceSection = "header"
	SectionBuyer  InvoiceSection = "buyer"
	SectionSeller InvoiceSection = "seller"
	SectionItems  InvoiceSection = "items"
	SectionTotals InvoiceSection = "totals"
	SectionFooter InvoiceSection = "footer"
)

// InvoiceTemplate is the admin-editable styling of generated invoices. Zero
// values fall back to the defaults of the renderer; every section is shown
// unless listed in Hidden.
type InvoiceTemplate struct {
	CompanyName    string           `json:"company_name"`
	HeaderText     string           `json:"header_text"`
	FooterText     string           `json:"footer_text"`
	PrimaryColor   string           `json:"primary_color"` // #RRGGBB
	SecondaryColor string           `json:"secondary_color"`
	FontFamily     string           `json:"font_family"`
	FontSize       float64          `json:"font_size"`
	Hidden         []InvoiceSection `json:"hidden_sections,omitempty"`
}

// Shows reports whether section is visible.
func (t InvoiceTemplate) Shows(section InvoiceSection) bool {
	for _, h := range t.Hidden {
		if h == section {
			return false
		}
	}
	return true
}
