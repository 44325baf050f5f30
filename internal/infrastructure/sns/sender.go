package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/clearlot-api/internal/config"
)

// Pusher delivers a native push notification mirroring a stored notification.
type Pusher interface {
	Push(ctx context.Context, userID, title, body string) error
}

type pusher struct {
	client   *sns.Client
	topicARN string
}

// NewPusher publishes to a single SNS topic; subscribers filter on the user_id
// message attribute.
func NewPusher(cfg *config.Config) (Pusher, error) {
	if cfg.SNSPushTopicARN == "" {
		return nil, fmt.Errorf("SNS_PUSH_TOPIC_ARN not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &pusher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSPushTopicARN}, nil
}

func (p *pusher) Push(ctx context.Context, userID, title, body string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(truncate(title, 100)),
		Message:  aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"user_id": {DataType: aws.String("String"), StringValue: aws.String(userID)},
		},
	})
	return err
}

// truncate keeps SNS subjects within the 100-character limit.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
