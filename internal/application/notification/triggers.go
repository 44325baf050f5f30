package notification

import (
	"fmt"

	"github.com/clearlot-api/internal/domain"
)

// The builders below turn marketplace events into notification payloads.
// Each sets the correlation fields the duplicate rules compare on.

// PurchaseCreated notifies the buyer of the order and the seller of the sale.
func PurchaseCreated(p domain.Purchase, offer *domain.Offer) []domain.NotificationInput {
	title := offerTitle(p.OfferID, offer)
	data := purchaseData(p)
	return []domain.NotificationInput{
		{
			UserID:   p.BuyerID,
			Type:     domain.NotificationPurchase,
			Title:    "Purchase confirmed",
			Message:  fmt.Sprintf("You purchased %d x %s for %s %.2f.", p.Quantity, title, currency(p.Currency), p.TotalAmount),
			Priority: domain.PriorityHigh,
			Data:     data,
		},
		{
			UserID:   p.SellerID,
			Type:     domain.NotificationOfferPurchased,
			Title:    "Your offer was purchased",
			Message:  fmt.Sprintf("%d x %s sold for %s %.2f.", p.Quantity, title, currency(p.Currency), p.TotalAmount),
			Priority: domain.PriorityHigh,
			Data:     purchaseData(p),
		},
	}
}

// PaymentReceived tells the buyer their payment was recorded.
func PaymentReceived(p domain.Purchase) domain.NotificationInput {
	return domain.NotificationInput{
		UserID:   p.BuyerID,
		Type:     domain.NotificationPayment,
		Title:    "Payment received",
		Message:  fmt.Sprintf("We received your payment of %s %.2f and are verifying it.", currency(p.Currency), p.TotalAmount),
		Priority: domain.PriorityMedium,
		Data:     purchaseData(p),
	}
}

// PaymentApproved tells the buyer an admin approved the payment.
func PaymentApproved(p domain.Purchase) domain.NotificationInput {
	return domain.NotificationInput{
		UserID:   p.BuyerID,
		Type:     domain.NotificationPaymentApproved,
		Title:    "Payment approved",
		Message:  fmt.Sprintf("Your payment of %s %.2f was approved.", currency(p.Currency), p.TotalAmount),
		Priority: domain.PriorityHigh,
		Data:     purchaseData(p),
	}
}

// OrderStatusChanged reports a fulfilment status transition to the buyer.
func OrderStatusChanged(p domain.Purchase, from string) domain.NotificationInput {
	data := purchaseData(p)
	data["previous_status"] = from
	return domain.NotificationInput{
		UserID:   p.BuyerID,
		Type:     domain.NotificationOrderStatus,
		Title:    "Order status updated",
		Message:  fmt.Sprintf("Order %s is now %s.", p.PurchaseID, p.Status),
		Priority: orderStatusPriority(p.Status),
		Data:     data,
	}
}

// PriceDropped reports that a watched offer got cheaper.
func PriceDropped(item domain.WatchlistItem, offer domain.Offer) domain.NotificationInput {
	return domain.NotificationInput{
		UserID:   item.UserID,
		Type:     domain.NotificationPriceDrop,
		Title:    "Price drop on your watchlist",
		Message:  fmt.Sprintf("%s dropped from %s %.2f to %s %.2f.", offer.Title, currency(offer.Currency), item.LastSeenPrice, currency(offer.Currency), offer.Price),
		Priority: domain.PriorityMedium,
		Data: map[string]any{
			domain.DataOfferID:   offer.OfferID,
			domain.DataAmount:    offer.Price,
			domain.DataActionURL: "/offers/" + offer.OfferID,
			"previous_price":     item.LastSeenPrice,
		},
	}
}

// OfferStatusChanged tells the seller their listing changed state.
func OfferStatusChanged(offer domain.Offer) domain.NotificationInput {
	return domain.NotificationInput{
		UserID:   offer.SellerID,
		Type:     domain.NotificationOfferSalesStatus,
		Title:    "Offer status updated",
		Message:  fmt.Sprintf("%s is now %s.", offer.Title, offer.Status),
		Priority: domain.PriorityMedium,
		Data: map[string]any{
			domain.DataOfferID:   offer.OfferID,
			domain.DataStatus:    offer.Status,
			domain.DataActionURL: "/seller/offers/" + offer.OfferID,
		},
	}
}

// AccountStatusChanged reports an account or verification decision.
func AccountStatusChanged(userID, status string, verification bool) domain.NotificationInput {
	t, title := domain.NotificationAccountStatus, "Account status updated"
	if verification {
		t, title = domain.NotificationVerificationStatus, "Verification status updated"
	}
	return domain.NotificationInput{
		UserID:   userID,
		Type:     t,
		Title:    title,
		Message:  fmt.Sprintf("Your account is now %s.", status),
		Priority: domain.PriorityHigh,
		Data:     map[string]any{domain.DataStatus: status},
	}
}

func purchaseData(p domain.Purchase) map[string]any {
	return map[string]any{
		domain.DataPurchaseID: p.PurchaseID,
		domain.DataOfferID:    p.OfferID,
		domain.DataStatus:     p.Status,
		domain.DataAmount:     p.TotalAmount,
		domain.DataActionURL:  "/purchases/" + p.PurchaseID,
	}
}

func offerTitle(offerID string, offer *domain.Offer) string {
	if offer != nil && offer.Title != "" {
		return offer.Title
	}
	return "offer " + offerID
}

func currency(c string) string {
	if c == "" {
		return "HKD"
	}
	return c
}

func orderStatusPriority(status string) domain.Priority {
	switch status {
	case domain.PurchaseStatusCancelled, domain.PurchaseStatusDelivered:
		return domain.PriorityHigh
	default:
		return domain.PriorityMedium
	}
}
