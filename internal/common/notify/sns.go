// internal/common/notify/sns.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// BatchSummary is published when a batch finishes, so operators see
// completed counts without polling the database.
type BatchSummary struct {
	Batch         string `json:"batch"`
	RunsCreated   int    `json:"runsCreated"`
	ScoresCreated int    `json:"scoresCreated"`
	DryRun        bool   `json:"dryRun"`
}

// SNSNotifier publishes batch summaries to an SNS topic.
type SNSNotifier struct {
	client   *sns.Client
	topicARN string
}

func NewSNSNotifier(ctx context.Context, region, topicARN string) (*SNSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSNotifier{
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
	}, nil
}

// PublishBatchSummary sends one JSON message per completed batch.
func (n *SNSNotifier) PublishBatchSummary(ctx context.Context, summary BatchSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("lab batch completed"),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}
