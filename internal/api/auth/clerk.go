package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/authz"
)

// clerkInitialized indicates whether the Clerk SDK has been initialized
var clerkInitialized atomic.Bool

var errClerkNotConfigured = errors.New("clerk not configured")

// InitClerk initializes Clerk SDK with the secret key
func InitClerk(secretKey string) {
	if secretKey == "" {
		log.Warn().Msg("Clerk secret key not configured")
		return
	}
	clerk.SetKey(secretKey)
	clerkInitialized.Store(true)
	log.Info().Msg("Clerk SDK initialized")
}

// clerkEmailClaims picks up the email a Clerk JWT template may embed.
type clerkEmailClaims struct {
	Email string `json:"email"`
}

// ClerkVerifier verifies Clerk session tokens.
type ClerkVerifier struct {
	verify func(ctx context.Context, params *jwt.VerifyParams) (*clerk.SessionClaims, error)
}

func NewClerkVerifier() *ClerkVerifier {
	return &ClerkVerifier{verify: jwt.Verify}
}

// Verify validates a Clerk session token and returns its principal.
func (v *ClerkVerifier) Verify(ctx context.Context, token string) (authz.Principal, error) {
	if !clerkInitialized.Load() {
		return authz.Principal{}, fmt.Errorf("%w: %v", authz.ErrVerification, errClerkNotConfigured)
	}

	claims, err := v.verify(ctx, &jwt.VerifyParams{
		Token: token,
		CustomClaimsConstructor: func(context.Context) any {
			return &clerkEmailClaims{}
		},
	})
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: %v", authz.ErrVerification, err)
	}
	if claims == nil || claims.Subject == "" {
		return authz.Principal{}, fmt.Errorf("%w: session has no subject", authz.ErrVerification)
	}

	principal := authz.Principal{SubjectID: claims.Subject}
	if custom, ok := claims.Custom.(*clerkEmailClaims); ok && custom != nil {
		principal.Email = strings.TrimSpace(custom.Email)
	}
	return principal, nil
}

// ClerkDirectory resolves account emails through the Clerk users API.
type ClerkDirectory struct {
	getUser func(ctx context.Context, id string) (*clerk.User, error)
}

func NewClerkDirectory() *ClerkDirectory {
	return &ClerkDirectory{getUser: user.Get}
}

// LookupEmail returns the primary email of the Clerk user, falling back to
// the first address on the account.
func (d *ClerkDirectory) LookupEmail(ctx context.Context, subjectID string) (string, error) {
	if !clerkInitialized.Load() {
		return "", fmt.Errorf("%w: %v", authz.ErrLookup, errClerkNotConfigured)
	}

	clerkUser, err := d.getUser(ctx, subjectID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", authz.ErrLookup, err)
	}
	return primaryEmail(clerkUser), nil
}

func primaryEmail(clerkUser *clerk.User) string {
	if clerkUser == nil {
		return ""
	}

	if clerkUser.PrimaryEmailAddressID != nil {
		for _, email := range clerkUser.EmailAddresses {
			if email != nil && email.ID == *clerkUser.PrimaryEmailAddressID {
				return email.EmailAddress
			}
		}
	}

	for _, email := range clerkUser.EmailAddresses {
		if email != nil && strings.TrimSpace(email.EmailAddress) != "" {
			return email.EmailAddress
		}
	}
	return ""
}
