package authz

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrVerification marks credential verification failures: malformed,
	// expired or revoked tokens, verifier outages and timeouts.
	ErrVerification = errors.New("credential verification failed")

	// ErrLookup marks user directory failures. It never leaves this package
	// as a failure; the authorizer degrades it to "email absent".
	ErrLookup = errors.New("user directory lookup failed")
)

// Principal is the identity carried by a verified credential.
type Principal struct {
	SubjectID string
	Email     string
}

type verdictContextKey struct{}

// ContextWithVerdict stores the authorization verdict for downstream handlers.
func ContextWithVerdict(ctx context.Context, verdict Verdict) context.Context {
	return context.WithValue(ctx, verdictContextKey{}, verdict)
}

// VerdictFromContext returns the verdict stored by the admin middleware.
func VerdictFromContext(ctx context.Context) (Verdict, bool) {
	if ctx == nil {
		return Verdict{}, false
	}
	verdict, ok := ctx.Value(verdictContextKey{}).(Verdict)
	return verdict, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// A missing header, another scheme or an empty token all report false.
func BearerToken(header http.Header) (string, bool) {
	if header == nil {
		return "", false
	}
	value := strings.TrimSpace(header.Get("Authorization"))
	scheme, token, found := strings.Cut(value, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// NormalizeEmail trims and lower-cases an address for allow-list comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
