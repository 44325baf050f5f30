package invoice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/clearlot-api/internal/config"
	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/metrics"
)

// Format is an output document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "xlsx" or "pdf"; empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported invoice format %q: %w", s, domain.ErrBadRequest)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// File is a rendered invoice.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type PurchaseGetter interface {
	Get(ctx context.Context, purchaseID string) (*domain.Purchase, error)
}

type Enricher interface {
	EnrichOne(ctx context.Context, p domain.Purchase) domain.EnrichedPurchase
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type Service interface {
	Generate(ctx context.Context, purchaseID string, format Format) (*File, error)
	// Archive renders the invoice and stores it, returning its permanent URL.
	Archive(ctx context.Context, purchaseID string, format Format) (string, error)
	Template() domain.InvoiceTemplate
}

type service struct {
	purchases PurchaseGetter
	enricher  Enricher
	store     ObjectStore
	tpl       domain.InvoiceTemplate
}

// NewService builds the invoice service. store may be nil, which disables Archive.
func NewService(purchases PurchaseGetter, enricher Enricher, store ObjectStore, tpl domain.InvoiceTemplate) Service {
	return &service{purchases: purchases, enricher: enricher, store: store, tpl: withDefaults(&tpl)}
}

func (s *service) Template() domain.InvoiceTemplate { return s.tpl }

func (s *service) Generate(ctx context.Context, purchaseID string, format Format) (*File, error) {
	p, err := s.purchases.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	ep := s.enricher.EnrichOne(ctx, *p)
	doc := Build(ep.Purchase, ep.Offer, ep.Buyer, ep.Seller, &s.tpl)

	var buf bytes.Buffer
	if err := Render(&buf, doc, format); err != nil {
		return nil, err
	}
	metrics.InvoicesRendered.WithLabelValues(string(format)).Inc()
	return &File{
		Name:        fmt.Sprintf("%s.%s", doc.Number, format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func (s *service) Archive(ctx context.Context, purchaseID string, format Format) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("invoice archive not configured: %w", domain.ErrUnavailable)
	}
	f, err := s.Generate(ctx, purchaseID, format)
	if err != nil {
		return "", err
	}
	url, err := s.store.Upload(ctx, "invoices/"+f.Name, bytes.NewReader(f.Data), f.ContentType)
	if err != nil {
		return "", err
	}
	slog.Info("invoice archived", "purchase_id", purchaseID, "format", format, "url", url)
	return url, nil
}

// Render writes d in the given format.
func Render(w io.Writer, d Document, format Format) error {
	switch format {
	case FormatPDF:
		return RenderPDF(w, d)
	case FormatXLSX:
		return RenderXLSX(w, d)
	default:
		return fmt.Errorf("unsupported invoice format %q: %w", format, domain.ErrBadRequest)
	}
}

// TemplateFromConfig is the template seeded from environment settings.
// Unknown section names are logged and ignored.
func TemplateFromConfig(c config.InvoiceConfig) domain.InvoiceTemplate {
	t := domain.InvoiceTemplate{
		CompanyName:    c.CompanyName,
		HeaderText:     c.HeaderText,
		FooterText:     c.FooterText,
		PrimaryColor:   c.PrimaryColor,
		SecondaryColor: c.SecondaryColor,
		FontFamily:     c.FontFamily,
		FontSize:       c.FontSize,
	}
	for _, name := range c.HiddenSections {
		section := domain.InvoiceSection(strings.ToLower(strings.TrimSpace(name)))
		if !knownSections[section] {
			slog.Warn("unknown invoice section ignored", "section", name)
			continue
		}
		t.Hidden = append(t.Hidden, section)
	}
	return t
}

var knownSections = map[domain.InvoiceSection]bool{
	domain.SectionHeader: true,
	domain.SectionBuyer:  true,
	domain.SectionSeller: true,
	domain.SectionItems:  true,
	domain.SectionTotals: true,
	domain.SectionFooter: true,
}
