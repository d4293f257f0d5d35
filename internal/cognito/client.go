package cognito

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/codr1/Clubhouse/internal/api/authz"
)

// ErrCognitoThrottled marks errors returned when Cognito throttles requests.
var ErrCognitoThrottled = errors.New("cognito throttling")

// ErrCognitoNotAuthorized marks errors returned when Cognito rejects credentials.
var ErrCognitoNotAuthorized = errors.New("cognito not authorized")

// ErrCognitoUserNotFound marks lookups of users missing from the pool.
var ErrCognitoUserNotFound = errors.New("cognito user not found")

type adminGetUserAPI interface {
	AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error)
}

// Client resolves account emails from a Cognito user pool.
type Client struct {
	client adminGetUserAPI
	poolID string
}

// NewClient creates a new Cognito client from a pool ID.
// The region is extracted from the pool ID (format: "region_poolid").
func NewClient(ctx context.Context, poolID string) (*Client, error) {
	region, err := regionFromPoolID(poolID)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		client: cognitoidentityprovider.NewFromConfig(awsCfg),
		poolID: poolID,
	}, nil
}

// LookupEmail returns the email attribute of the user whose username or
// sub matches subjectID. Failures wrap authz.ErrLookup.
func (c *Client) LookupEmail(ctx context.Context, subjectID string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("%w: cognito client is not initialized", authz.ErrLookup)
	}

	out, err := c.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(subjectID),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", authz.ErrLookup, mapCognitoError(err))
	}
	return emailFromAttributes(out.UserAttributes), nil
}

func emailFromAttributes(attributes []types.AttributeType) string {
	var email string
	verified := true
	for _, attr := range attributes {
		switch aws.ToString(attr.Name) {
		case "email":
			email = strings.TrimSpace(aws.ToString(attr.Value))
		case "email_verified":
			verified = strings.EqualFold(aws.ToString(attr.Value), "true")
		}
	}
	if !verified {
		return ""
	}
	return email
}

func mapCognitoError(err error) error {
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", ErrCognitoThrottled, err)
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrCognitoNotAuthorized, err)
	}
	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrCognitoUserNotFound, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid cognito pool id: %q", poolID)
	}
	return parts[0], nil
}
