package invoice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/clearlot-api/internal/config"
	"github.com/clearlot-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testPurchase() domain.Purchase {
	return domain.Purchase{
		PurchaseID:  "p1",
		OfferID:     "o1",
		BuyerID:     "b1",
		SellerID:    "s1",
		Quantity:    10,
		UnitPrice:   25,
		TotalAmount: 262.5,
		PlatformFee: 12.5,
		Status:      domain.PurchaseStatusPaid,
		CreatedAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func cells(t *testing.T, data []byte) []string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	var out []string
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// --- Build ---

func TestBuild_MissingRecordsRenderPlaceholder(t *testing.T) {
	d := Build(testPurchase(), nil, nil, nil, nil)

	assert.Equal(t, NotAvailable, d.Items[0].Description)
	assert.Equal(t, []Field{{Label: "Company", Value: NotAvailable}}, d.Buyer)
	assert.Equal(t, []Field{{Label: "Company", Value: NotAvailable}}, d.Seller)
	assert.Equal(t, "HKD", d.Currency)
	assert.Equal(t, "INV-P1", d.Number)
}

func TestBuild_BlankUserFieldsRenderPlaceholder(t *testing.T) {
	d := Build(testPurchase(), nil, &domain.User{CompanyName: "Acme"}, nil, nil)
	assert.Equal(t, "Acme", d.Buyer[0].Value)
	assert.Equal(t, NotAvailable, d.Buyer[1].Value)
}

func TestBuild_Totals(t *testing.T) {
	d := Build(testPurchase(), &domain.Offer{Title: "Cotton T-shirts", Unit: "carton"}, nil, nil, nil)
	assert.Equal(t, 250.0, d.Subtotal)
	assert.Equal(t, 12.5, d.PlatformFee)
	assert.Equal(t, 262.5, d.Total)
	assert.Equal(t, "Cotton T-shirts", d.Items[0].Description)
}

func TestBuild_DerivesUnitPriceFromTotal(t *testing.T) {
	p := testPurchase()
	p.UnitPrice = 0
	d := Build(p, nil, nil, nil, nil)
	assert.Equal(t, 25.0, d.Items[0].UnitPrice)
}

func TestBuild_TemplateDefaults(t *testing.T) {
	d := Build(testPurchase(), nil, nil, nil, &domain.InvoiceTemplate{PrimaryColor: "not-a-color", CompanyName: "ClearLot"})
	assert.Equal(t, defaultPrimaryColor, d.Template.PrimaryColor)
	assert.Equal(t, defaultFontFamily, d.Template.FontFamily)
	assert.Equal(t, "ClearLot", d.Template.CompanyName)
}

func TestParseHex(t *testing.T) {
	c, ok := parseHex("#1F4E79")
	require.True(t, ok)
	assert.Equal(t, rgb{0x1f, 0x4e, 0x79}, c)

	_, ok = parseHex("#12345")
	assert.False(t, ok)
}

// --- renderers ---

func TestRenderXLSX_ContainsSections(t *testing.T) {
	d := Build(testPurchase(), &domain.Offer{Title: "Cotton T-shirts"}, &domain.User{CompanyName: "Buyer Co"}, nil,
		&domain.InvoiceTemplate{CompanyName: "ClearLot", FooterText: "Thanks"})
	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, d))

	got := cells(t, buf.Bytes())
	assert.Contains(t, got, "ClearLot")
	assert.Contains(t, got, "INV-P1")
	assert.Contains(t, got, "Buyer Co")
	assert.Contains(t, got, NotAvailable)
	assert.Contains(t, got, "Cotton T-shirts")
	assert.Contains(t, got, "Thanks")
}

func TestRenderXLSX_HiddenSectionsAreSkipped(t *testing.T) {
	tpl := &domain.InvoiceTemplate{
		CompanyName: "ClearLot",
		FooterText:  "Thanks",
		Hidden:      []domain.InvoiceSection{domain.SectionHeader, domain.SectionFooter, domain.SectionSeller},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, Build(testPurchase(), nil, nil, nil, tpl)))

	got := cells(t, buf.Bytes())
	assert.NotContains(t, got, "ClearLot")
	assert.NotContains(t, got, "Thanks")
	assert.NotContains(t, got, "Seller")
	assert.Contains(t, got, "Bill to")
}

func TestRenderPDF_ProducesDocument(t *testing.T) {
	d := Build(testPurchase(), &domain.Offer{Title: "Café crème sets"}, nil, nil, &domain.InvoiceTemplate{CompanyName: "ClearLot", FontFamily: "Times"})
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, d))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(io.Discard, Document{}, Format("docx"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("csv")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- service ---

type mockPurchases struct{ mock.Mock }

func (m *mockPurchases) Get(ctx context.Context, id string) (*domain.Purchase, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Purchase)
	return p, args.Error(1)
}

type stubEnricher struct{ offer *domain.Offer }

func (s stubEnricher) EnrichOne(_ context.Context, p domain.Purchase) domain.EnrichedPurchase {
	return domain.EnrichedPurchase{Purchase: p, Offer: s.offer}
}

type mockObjects struct{ mock.Mock }

func (m *mockObjects) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}

func TestService_Generate(t *testing.T) {
	p := testPurchase()
	purchases := &mockPurchases{}
	purchases.On("Get", mock.Anything, "p1").Return(&p, nil)
	svc := NewService(purchases, stubEnricher{}, nil, domain.InvoiceTemplate{CompanyName: "ClearLot"})

	f, err := svc.Generate(context.Background(), "p1", FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "INV-P1.xlsx", f.Name)
	assert.Equal(t, FormatXLSX.ContentType(), f.ContentType)
	assert.Contains(t, cells(t, f.Data), NotAvailable)
}

func TestService_GenerateUnknownPurchase(t *testing.T) {
	purchases := &mockPurchases{}
	purchases.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)
	svc := NewService(purchases, stubEnricher{}, nil, domain.InvoiceTemplate{})

	_, err := svc.Generate(context.Background(), "nope", FormatPDF)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Archive(t *testing.T) {
	p := testPurchase()
	purchases := &mockPurchases{}
	purchases.On("Get", mock.Anything, "p1").Return(&p, nil)
	objects := &mockObjects{}
	objects.On("Upload", mock.Anything, "invoices/INV-P1.pdf", mock.Anything, "application/pdf").
		Return("https://cdn.example.com/invoices/INV-P1.pdf", nil)
	svc := NewService(purchases, stubEnricher{offer: &domain.Offer{Title: "Shoes"}}, objects, domain.InvoiceTemplate{})

	url, err := svc.Archive(context.Background(), "p1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/invoices/INV-P1.pdf", url)
	objects.AssertExpectations(t)
}

func TestService_ArchiveWithoutStore(t *testing.T) {
	svc := NewService(&mockPurchases{}, stubEnricher{}, nil, domain.InvoiceTemplate{})
	_, err := svc.Archive(context.Background(), "p1", FormatPDF)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestService_ArchiveUploadFailure(t *testing.T) {
	p := testPurchase()
	purchases := &mockPurchases{}
	purchases.On("Get", mock.Anything, "p1").Return(&p, nil)
	objects := &mockObjects{}
	objects.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("s3 down"))
	svc := NewService(purchases, stubEnricher{}, objects, domain.InvoiceTemplate{})

	_, err := svc.Archive(context.Background(), "p1", FormatXLSX)
	assert.EqualError(t, err, "s3 down")
}

func TestTemplateFromConfig(t *testing.T) {
	tpl := TemplateFromConfig(config.InvoiceConfig{
		CompanyName:    "ClearLot Limited",
		PrimaryColor:   "#1F4E79",
		SecondaryColor: "#EEEEEE",
		FontSize:       12,
		HiddenSections: []string{"Seller", " footer", "watermark"},
	})

	assert.Equal(t, "#EEEEEE", tpl.SecondaryColor)
	assert.Equal(t, 12.0, tpl.FontSize)
	assert.Equal(t, []domain.InvoiceSection{domain.SectionSeller, domain.SectionFooter}, tpl.Hidden)
	assert.False(t, tpl.Shows(domain.SectionSeller))
	assert.True(t, tpl.Shows(domain.SectionBuyer))
}
