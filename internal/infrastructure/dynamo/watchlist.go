package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/clearlot-api/internal/domain"
)

// WatchlistRepo stores (user_id, offer_id) watch entries.
type WatchlistRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewWatchlistRepo(client *dynamodb.Client, tableName string) *WatchlistRepo {
	return &WatchlistRepo{client: client, tableName: tableName}
}

func (r *WatchlistRepo) ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	items := []domain.WatchlistItem{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateLastSeenPrice records the price the watcher compared against.
func (r *WatchlistRepo) UpdateLastSeenPrice(ctx context.Context, userID, offerID string, price float64) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldLastSeenPrice: price})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldUserID, userID, fieldOfferID, offerID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
