// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"morvo-assistant/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// EventProfileCompleted is the event type attribute on intake completion messages.
const EventProfileCompleted = "profile.completed"

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client   SNSAPI
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// NewSNSClientWithAPI is used by tests to inject a fake SNS API.
func NewSNSClientWithAPI(api SNSAPI, topicARN string) *SNSClient {
	return &SNSClient{client: api, topicARN: topicARN}
}

type profileCompletedEvent struct {
	Event       string          `json:"event"`
	UserID      string          `json:"userId"`
	Profile     *models.Profile `json:"profile"`
	CompletedAt time.Time       `json:"completedAt"`
}

// ProfileCompleted publishes the finished profile to the configured topic.
func (s *SNSClient) ProfileCompleted(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}
	body, err := json.Marshal(profileCompletedEvent{
		Event:       EventProfileCompleted,
		UserID:      profile.UserID,
		Profile:     profile,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal profile event: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(EventProfileCompleted),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(EventProfileCompleted)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
