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
	"github.com/clearlot-api/internal/pkg/id"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client       *dynamodb.Client
	tableName    string
	pollInterval time.Duration
	feedSource   NotificationLister
}

func NewNotificationRepo(client *dynamodb.Client, tableName string, pollInterval time.Duration) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, pollInterval: pollInterval}
}

// Add persists a new notification and returns the generated id and creation time.
func (r *NotificationRepo) Add(ctx context.Context, in domain.NotificationInput) (string, time.Time, error) {
	now := time.Now().UTC()
	n := in.Build(id.NewAt(now), now)
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(notification_id)"),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return n.ID, n.CreatedAt, nil
}

// List returns every notification for userID, newest first, following the
// user_id-created_at GSI across pages.
func (r *NotificationRepo) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	notifications := []domain.Notification{}
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		notifications = append(notifications, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return notifications, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldRead: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return err
}

// MarkAllAsRead flips every unread notification of userID. DynamoDB has no
// multi-item update, so unread ids are collected first and updated one by one.
func (r *NotificationRepo) MarkAllAsRead(ctx context.Context, userID string) error {
	all, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, n := range all {
		if n.Read {
			continue
		}
		if err := r.MarkAsRead(ctx, n.ID); err != nil {
			return fmt.Errorf("mark %s read: %w", n.ID, err)
		}
	}
	return nil
}

func (r *NotificationRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	return err
}

// DeleteAll removes every notification of userID in BatchWriteItem chunks.
func (r *NotificationRepo) DeleteAll(ctx context.Context, userID string) error {
	all, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(all))
	for _, n := range all {
		keys = append(keys, strKey(fieldNotificationID, n.ID))
	}
	for _, chunk := range chunkKeys(keys, batchWriteLimit) {
		if err := r.batchDelete(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// batchDelete retries unprocessed items a bounded number of times before giving up.
func (r *NotificationRepo) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	reqs := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
	}
	pending := map[string][]types.WriteRequest{r.tableName: reqs}
	for attempt := 0; attempt < 5 && len(pending[r.tableName]) > 0; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems
		if len(pending[r.tableName]) > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
			}
		}
	}
	if n := len(pending[r.tableName]); n > 0 {
		return fmt.Errorf("batch delete: %d items left unprocessed", n)
	}
	return nil
}
