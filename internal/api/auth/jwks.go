package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/codr1/Clubhouse/internal/api/authz"
)

const jwksLeeway = 5 * time.Second

type JWKSConfig struct {
	Issuer   string
	JWKSURL  string
	Audience string
}

// JWKSVerifier verifies tokens from any OIDC issuer that publishes a JWKS.
type JWKSVerifier struct {
	issuer   string
	audience string
	jwks     keyfunc.Keyfunc
}

// NewJWKSVerifier fetches the issuer's key set. The JWKS URL defaults to
// {issuer}/.well-known/jwks.json.
func NewJWKSVerifier(ctx context.Context, cfg JWKSConfig) (*JWKSVerifier, error) {
	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		if cfg.Issuer == "" {
			return nil, errors.New("jwks verifier requires an issuer or jwks url")
		}
		jwksURL = strings.TrimSuffix(cfg.Issuer, "/") + "/.well-known/jwks.json"
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks from %s: %w", jwksURL, err)
	}

	return &JWKSVerifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		jwks:     kf,
	}, nil
}

// Verify checks signature, expiry, issuer and audience. The email claim is
// dropped when the issuer marks it unverified.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (authz.Principal, error) {
	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{jwt.WithLeeway(jwksLeeway), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, v.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: %v", authz.ErrVerification, err)
	}
	if !parsed.Valid {
		return authz.Principal{}, fmt.Errorf("%w: token is not valid", authz.ErrVerification)
	}

	subject := stringClaim(claims, "sub")
	if subject == "" {
		return authz.Principal{}, fmt.Errorf("%w: token has no subject", authz.ErrVerification)
	}

	principal := authz.Principal{SubjectID: subject}
	if verified, ok := claims["email_verified"].(bool); !ok || verified {
		principal.Email = stringClaim(claims, "email")
	}
	return principal, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return value
}
