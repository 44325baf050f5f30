package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/clearlot-api/internal/domain"
)

// PurchaseRepo provides typed DynamoDB operations for the purchases table.
type PurchaseRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPurchaseRepo(client *dynamodb.Client, tableName string) *PurchaseRepo {
	return &PurchaseRepo{client: client, tableName: tableName}
}

func (r *PurchaseRepo) Get(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldPurchaseID, purchaseID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("purchase not found: %w", domain.ErrNotFound)
	}
	var p domain.Purchase
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScanPage returns a page of purchases for the admin listing.
// cursor is a base64-encoded purchase_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *PurchaseRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Purchase, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		purchaseID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey(fieldPurchaseID, purchaseID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	purchases := []domain.Purchase{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &purchases); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey[fieldPurchaseID].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return purchases, nextCursor, nil
}

// ListByBuyer queries the buyer_id-created_at GSI, newest first.
func (r *PurchaseRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Purchase, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexBuyerCreated),
		KeyConditionExpression: aws.String("buyer_id = :b"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberS{Value: buyerID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	purchases := []domain.Purchase{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// UpdateStatus moves a purchase to status and stamps updated_at.
func (r *PurchaseRepo) UpdateStatus(ctx context.Context, purchaseID, status string) error {
	return updateExisting(ctx, r.client, r.tableName, strKey(fieldPurchaseID, purchaseID), fieldPurchaseID, "purchase",
		map[string]interface{}{fieldStatus: status, fieldUpdatedAt: time.Now().UTC()})
}
