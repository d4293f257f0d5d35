package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures an SESClient. Static credentials are used only when
// both keys are set.
type SESConfig struct {
	Region          string
	From            string
	AccessKeyID     string
	SecretAccessKey string
}

// SESClient delivers plain-text mail through Amazon SES v2.
type SESClient struct {
	api  sesAPI
	from string
}

func NewSESClient(ctx context.Context, cfg SESConfig) (*SESClient, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("ses region is required")
	}
	if cfg.From == "" {
		return nil, ErrNoSender
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(provider))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{api: sesv2.NewFromConfig(awsCfg), from: cfg.From}, nil
}

// Deliver sends envelope, falling back to the configured From address.
func (c *SESClient) Deliver(ctx context.Context, envelope Envelope) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("ses client is not initialized")
	}
	envelope = envelope.normalized()
	if err := envelope.validate(); err != nil {
		return err
	}
	if envelope.From == "" {
		envelope.From = c.from
	}
	if envelope.From == "" {
		return ErrNoSender
	}

	if _, err := c.api.SendEmail(ctx, sesInput(envelope)); err != nil {
		return fmt.Errorf("ses send to %s: %w", envelope.To, err)
	}
	return nil
}

func sesInput(envelope Envelope) *sesv2.SendEmailInput {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(envelope.From),
		Destination:      &types.Destination{ToAddresses: []string{envelope.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(envelope.Message.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(envelope.Message.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if envelope.ReplyTo != "" {
		input.ReplyToAddresses = []string{envelope.ReplyTo}
	}
	return input
}
