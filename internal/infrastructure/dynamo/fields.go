package dynamo

// DynamoDB attribute names used in keys and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldNotificationID = "notification_id"
	fieldUserID         = "user_id"
	fieldCreatedAt      = "created_at"
	fieldRead           = "read"
	fieldPurchaseID     = "purchase_id"
	fieldBuyerID        = "buyer_id"
	fieldOfferID        = "offer_id"
	fieldLastSeenPrice  = "last_seen_price"
	fieldEmail          = "email"
	fieldStatus         = "status"
	fieldUpdatedAt      = "updated_at"
	fieldPrice          = "price"
)

// Global secondary index names created by Bootstrap.
const (
	indexUserCreated  = "user_id-created_at-index"
	indexEmail        = "email-index"
	indexBuyerCreated = "buyer_id-created_at-index"
)
