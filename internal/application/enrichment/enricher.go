package enrichment

import (
	"context"
	"log/slog"
	"time"

	"github.com/clearlot-api/internal/config"
	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/metrics"
	"golang.org/x/sync/errgroup"
)

type OfferGetter interface {
	Get(ctx context.Context, offerID string) (*domain.Offer, error)
}

type UserGetter interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Enricher attaches offer, buyer and seller records to purchases. Lookups run
// in small concurrent batches so a long admin listing does not flood the
// store, and a slow or failing lookup only blanks its own field.
type Enricher struct {
	offers OfferGetter
	users  UserGetter
	cfg    config.EnrichmentConfig
	sleep  func(ctx context.Context, d time.Duration)
}

func NewEnricher(offers OfferGetter, users UserGetter, cfg config.EnrichmentConfig) *Enricher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 2
	}
	if cfg.FieldTimeout <= 0 {
		cfg.FieldTimeout = 3 * time.Second
	}
	return &Enricher{offers: offers, users: users, cfg: cfg, sleep: sleepCtx}
}

// Enrich returns one EnrichedPurchase per input, in input order. It never
// fails because of a lookup; it only stops early when ctx is done, in which
// case the remaining purchases are returned without related records.
func (e *Enricher) Enrich(ctx context.Context, purchases []domain.Purchase) []domain.EnrichedPurchase {
	out := make([]domain.EnrichedPurchase, len(purchases))
	for i := range purchases {
		out[i].Purchase = purchases[i]
	}

	for start := 0; start < len(purchases); start += e.cfg.BatchSize {
		if ctx.Err() != nil {
			break
		}
		if start > 0 && e.cfg.BatchDelay > 0 {
			e.sleep(ctx, e.cfg.BatchDelay)
		}
		end := min(start+e.cfg.BatchSize, len(purchases))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				e.enrichOne(ctx, &out[i])
				return nil
			})
		}
		_ = g.Wait()
	}
	return out
}

// EnrichOne is Enrich for a single purchase.
func (e *Enricher) EnrichOne(ctx context.Context, p domain.Purchase) domain.EnrichedPurchase {
	ep := domain.EnrichedPurchase{Purchase: p}
	e.enrichOne(ctx, &ep)
	return ep
}

func (e *Enricher) enrichOne(ctx context.Context, ep *domain.EnrichedPurchase) {
	var g errgroup.Group
	g.Go(func() error {
		ep.Offer = lookup(ctx, e.cfg.FieldTimeout, "offer", ep.OfferID, e.offers.Get)
		return nil
	})
	g.Go(func() error {
		ep.Buyer = lookup(ctx, e.cfg.FieldTimeout, "buyer", ep.BuyerID, e.users.Get)
		return nil
	})
	g.Go(func() error {
		ep.Seller = lookup(ctx, e.cfg.FieldTimeout, "seller", ep.SellerID, e.users.Get)
		return nil
	})
	_ = g.Wait()
}

// lookup runs get under its own deadline. Any miss yields nil.
func lookup[T any](ctx context.Context, timeout time.Duration, field, key string, get func(context.Context, string) (*T, error)) *T {
	if key == "" {
		metrics.EnrichmentFieldMisses.WithLabelValues(field).Inc()
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   *T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := get(ctx, key)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			slog.Warn("enrichment lookup failed", "field", field, "key", key, "err", r.err)
			metrics.EnrichmentFieldMisses.WithLabelValues(field).Inc()
			return nil
		}
		return r.v
	case <-ctx.Done():
		slog.Warn("enrichment lookup timed out", "field", field, "key", key)
		metrics.EnrichmentFieldMisses.WithLabelValues(field).Inc()
		return nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
