package sms

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/sethvargo/go-retry"
)

type snsPublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSConfig struct {
	// SenderID is shown as the sender where carriers support it.
	SenderID   string
	MaxRetries uint64
	Backoff    time.Duration
}

// SNS publishes messages straight to phone numbers through AWS SNS.
type SNS struct {
	client snsPublisher
	cfg    SNSConfig
}

func NewSNS(client *sns.Client, cfg SNSConfig) *SNS {
	return newSNS(client, cfg)
}

func newSNS(client snsPublisher, cfg SNSConfig) *SNS {
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	return &SNS{client: client, cfg: cfg}
}

func (s *SNS) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if msg.Body == "" {
		return ErrEmptyBody
	}

	in := &sns.PublishInput{
		PhoneNumber:       aws.String(msg.To),
		Message:           aws.String(msg.Body),
		MessageAttributes: s.attributes(),
	}

	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.Backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := s.client.Publish(ctx, in); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *SNS) attributes() map[string]types.MessageAttributeValue {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.cfg.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.cfg.SenderID),
		}
	}
	return attrs
}
