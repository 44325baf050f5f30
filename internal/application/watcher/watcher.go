package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/domain"
)

type PurchaseLister interface {
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Purchase, error)
}

type WatchlistStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error)
	UpdateLastSeenPrice(ctx context.Context, userID, offerID string, price float64) error
}

type OfferGetter interface {
	Get(ctx context.Context, offerID string) (*domain.Offer, error)
}

// every calls fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}

// OrderStatusWatcher polls a buyer's purchases and publishes an order_status
// notification whenever a purchase moves to a new status.
type OrderStatusWatcher struct {
	purchases PurchaseLister
	interval  time.Duration
}

func NewOrderStatusWatcher(purchases PurchaseLister, interval time.Duration) *OrderStatusWatcher {
	return &OrderStatusWatcher{purchases: purchases, interval: interval}
}

var _ notification.Worker = (*OrderStatusWatcher)(nil)

func (w *OrderStatusWatcher) Run(ctx context.Context, userID string, publish func(domain.NotificationInput)) {
	var seen map[string]string // purchase id -> status; nil until the first successful poll
	every(ctx, w.interval, func(ctx context.Context) {
		list, err := w.purchases.ListByBuyer(ctx, userID)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("order status poll failed", "user_id", userID, "err", err)
			}
			return
		}
		next := make(map[string]string, len(list))
		for _, p := range list {
			next[p.PurchaseID] = p.Status
			if seen == nil {
				continue
			}
			if prev, ok := seen[p.PurchaseID]; ok && prev != p.Status {
				publish(notification.OrderStatusChanged(p, prev))
			}
		}
		seen = next
	})
}

// PriceWatcher checks each offer on a user's watchlist and publishes a
// price_drop notification when the price falls below the last seen price.
type PriceWatcher struct {
	watchlist WatchlistStore
	offers    OfferGetter
	interval  time.Duration
}

func NewPriceWatcher(watchlist WatchlistStore, offers OfferGetter, interval time.Duration) *PriceWatcher {
	return &PriceWatcher{watchlist: watchlist, offers: offers, interval: interval}
}

var _ notification.Worker = (*PriceWatcher)(nil)

func (w *PriceWatcher) Run(ctx context.Context, userID string, publish func(domain.NotificationInput)) {
	every(ctx, w.interval, func(ctx context.Context) { w.poll(ctx, userID, publish) })
}

func (w *PriceWatcher) poll(ctx context.Context, userID string, publish func(domain.NotificationInput)) {
	items, err := w.watchlist.ListByUser(ctx, userID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("watchlist poll failed", "user_id", userID, "err", err)
		}
		return
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		w.check(ctx, item, publish)
	}
}

func (w *PriceWatcher) check(ctx context.Context, item domain.WatchlistItem, publish func(domain.NotificationInput)) {
	offer, err := w.offers.Get(ctx, item.OfferID)
	if err != nil {
		slog.Warn("watched offer lookup failed", "offer_id", item.OfferID, "err", err)
		return
	}
	if offer.Price == item.LastSeenPrice {
		return
	}
	if item.LastSeenPrice > 0 && offer.Price < item.LastSeenPrice {
		publish(notification.PriceDropped(item, *offer))
	}
	if err := w.watchlist.UpdateLastSeenPrice(ctx, item.UserID, item.OfferID, offer.Price); err != nil {
		slog.Warn("update last seen price failed", "user_id", item.UserID, "offer_id", item.OfferID, "err", err)
	}
}
