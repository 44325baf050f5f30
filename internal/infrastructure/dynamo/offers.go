package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/clearlot-api/internal/domain"
)

// OfferRepo provides typed DynamoDB operations for the offers table.
type OfferRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOfferRepo(client *dynamodb.Client, tableName string) *OfferRepo {
	return &OfferRepo{client: client, tableName: tableName}
}

func (r *OfferRepo) Get(ctx context.Context, offerID string) (*domain.Offer, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldOfferID, offerID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("offer not found: %w", domain.ErrNotFound)
	}
	var o domain.Offer
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepo) UpdateStatus(ctx context.Context, offerID, status string) error {
	return updateExisting(ctx, r.client, r.tableName, strKey(fieldOfferID, offerID), fieldOfferID, "offer",
		map[string]interface{}{fieldStatus: status, fieldUpdatedAt: time.Now().UTC()})
}

// UpdatePrice changes the asking price; price watchers pick it up on their next tick.
func (r *OfferRepo) UpdatePrice(ctx context.Context, offerID string, price float64) error {
	return updateExisting(ctx, r.client, r.tableName, strKey(fieldOfferID, offerID), fieldOfferID, "offer",
		map[string]interface{}{fieldPrice: price, fieldUpdatedAt: time.Now().UTC()})
}
