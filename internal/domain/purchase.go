package domain

import "time"

// Purchase status values as they move through fulfilment.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusPaid      = "paid"
	PurchaseStatusApproved  = "approved"
	PurchaseStatusShipped   = "shipped"
	PurchaseStatusDelivered = "delivered"
	PurchaseStatusCancelled = "cancelled"
)

// Purchase is a buyer's order against a single clearance offer.
type Purchase struct {
	PurchaseID    string    `json:"id" dynamodbav:"purchase_id"`
	OfferID       string    `json:"offer_id" dynamodbav:"offer_id"`
	BuyerID       string    `json:"buyer_id" dynamodbav:"buyer_id"`
	SellerID      string    `json:"seller_id" dynamodbav:"seller_id"`
	Quantity      int       `json:"quantity" dynamodbav:"quantity"`
	UnitPrice     float64   `json:"unit_price" dynamodbav:"unit_price"`
	TotalAmount   float64   `json:"total_amount" dynamodbav:"total_amount"`
	PlatformFee   float64   `json:"platform_fee" dynamodbav:"platform_fee"`
	Currency      string    `json:"currency" dynamodbav:"currency"`
	Status        string    `json:"status" dynamodbav:"status"`
	PaymentMethod string    `json:"payment_method,omitempty" dynamodbav:"payment_method"`
	ShipmentPhoto string    `json:"shipment_photo,omitempty" dynamodbav:"shipment_photo"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Offer is a clearance lot listed by a seller.
type Offer struct {
	OfferID     string    `json:"id" dynamodbav:"offer_id"`
	SellerID    string    `json:"seller_id" dynamodbav:"seller_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	Category    string    `json:"category" dynamodbav:"category"`
	Unit        string    `json:"unit" dynamodbav:"unit"`
	Price       float64   `json:"price" dynamodbav:"price"`
	Currency    string    `json:"currency" dynamodbav:"currency"`
	Quantity    int       `json:"quantity" dynamodbav:"quantity"`
	Location    string    `json:"location" dynamodbav:"location"`
	Status      string    `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// WatchlistItem records a user's interest in an offer and the price seen when
// the offer was last checked.
type WatchlistItem struct {
	UserID        string    `json:"user_id" dynamodbav:"user_id"`
	OfferID       string    `json:"offer_id" dynamodbav:"offer_id"`
	LastSeenPrice float64   `json:"last_seen_price" dynamodbav:"last_seen_price"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
}

// EnrichedPurchase is a purchase augmented with its related records. Any of
// Offer, Buyer and Seller may be nil when the lookup failed or timed out.
type EnrichedPurchase struct {
	Purchase
	Offer  *Offer `json:"offer"`
	Buyer  *User  `json:"buyer"`
	Seller *User  `json:"seller"`
}
