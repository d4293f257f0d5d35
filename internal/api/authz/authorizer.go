package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultCallTimeout = 5 * time.Second

// CredentialVerifier validates a bearer token. Failures wrap ErrVerification.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// UserDirectory resolves the registered email of an account. Failures wrap ErrLookup.
type UserDirectory interface {
	LookupEmail(ctx context.Context, subjectID string) (string, error)
}

// MissingEmailPolicy decides how a principal without a usable email is classified.
type MissingEmailPolicy string

const (
	// MissingEmailForbidden surfaces the principal as DecisionMissingEmail.
	MissingEmailForbidden MissingEmailPolicy = "forbidden"
	// MissingEmailNonAdmin surfaces the principal as an ordinary non-admin.
	MissingEmailNonAdmin MissingEmailPolicy = "nonAdmin"
)

// ParseMissingEmailPolicy accepts the configuration spelling of a policy.
func ParseMissingEmailPolicy(raw string) (MissingEmailPolicy, error) {
	switch MissingEmailPolicy(raw) {
	case MissingEmailForbidden, MissingEmailNonAdmin:
		return MissingEmailPolicy(raw), nil
	case "":
		return MissingEmailForbidden, nil
	}
	return "", fmt.Errorf("unknown missing email policy %q", raw)
}

type Decision int

const (
	DecisionUnauthenticated Decision = iota
	DecisionInvalidCredential
	DecisionNonAdmin
	DecisionAdmin
	// DecisionMissingEmail is only produced under MissingEmailForbidden.
	DecisionMissingEmail
)

func (d Decision) String() string {
	switch d {
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionInvalidCredential:
		return "invalid_credential"
	case DecisionNonAdmin:
		return "authenticated_non_admin"
	case DecisionAdmin:
		return "authenticated_admin"
	case DecisionMissingEmail:
		return "missing_email"
	}
	return "unknown"
}

// Verdict is the outcome of a single authorization decision.
type Verdict struct {
	Decision  Decision
	Principal Principal
	// Err carries the verification diagnostic for DecisionInvalidCredential.
	Err error
	// MatchedBy is "subject_id" or "email" for admins.
	MatchedBy string
	// DirectoryDegraded is set when the email lookup failed and was treated as absent.
	DirectoryDegraded bool
}

func (v Verdict) IsAdmin() bool {
	return v.Decision == DecisionAdmin
}

func (v Verdict) Authenticated() bool {
	switch v.Decision {
	case DecisionNonAdmin, DecisionAdmin, DecisionMissingEmail:
		return true
	}
	return false
}

// Options tunes an Authorizer.
type Options struct {
	MissingEmail MissingEmailPolicy
	// Timeout bounds each external call. Zero means five seconds.
	Timeout time.Duration
}

// Authorizer decides whether a bearer credential belongs to a club admin.
// It holds no mutable state and is safe for concurrent use.
type Authorizer struct {
	verifier     CredentialVerifier
	directory    UserDirectory
	allowList    *AllowList
	missingEmail MissingEmailPolicy
	timeout      time.Duration
}

// NewAuthorizer wires a verifier, an optional directory and the allow-list.
func NewAuthorizer(verifier CredentialVerifier, directory UserDirectory, allowList *AllowList, opts Options) (*Authorizer, error) {
	if verifier == nil {
		return nil, errors.New("authorizer requires a credential verifier")
	}
	if allowList == nil {
		return nil, errors.New("authorizer requires an allow-list")
	}
	policy, err := ParseMissingEmailPolicy(string(opts.MissingEmail))
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Authorizer{
		verifier:     verifier,
		directory:    directory,
		allowList:    allowList,
		missingEmail: policy,
		timeout:      timeout,
	}, nil
}

// WithMissingEmailPolicy returns a copy of a that applies policy instead.
func (a *Authorizer) WithMissingEmailPolicy(policy MissingEmailPolicy) *Authorizer {
	clone := *a
	clone.missingEmail = policy
	return &clone
}

// MissingEmailPolicy reports the policy this authorizer applies.
func (a *Authorizer) MissingEmailPolicy() MissingEmailPolicy {
	return a.missingEmail
}

// AuthorizeRequest reads the bearer token from r and authorizes it.
func (a *Authorizer) AuthorizeRequest(r *http.Request) Verdict {
	token, _ := BearerToken(r.Header)
	return a.Authorize(r.Context(), token)
}

// Authorize decides authentication and admin status for token. An empty
// token is treated as absent. Only verification failures produce
// DecisionInvalidCredential; "not an admin" is an ordinary verdict.
func (a *Authorizer) Authorize(ctx context.Context, token string) Verdict {
	if token == "" {
		return Verdict{Decision: DecisionUnauthenticated}
	}
	logger := log.Ctx(ctx)

	principal, err := callWithTimeout(ctx, a.timeout, func(callCtx context.Context) (Principal, error) {
		return a.verifier.Verify(callCtx, token)
	})
	if err == nil && principal.SubjectID == "" {
		err = errors.New("credential has no subject")
	}
	if err != nil {
		if !errors.Is(err, ErrVerification) {
			err = fmt.Errorf("%w: %v", ErrVerification, err)
		}
		logger.Warn().Err(err).Msg("Admin authorization: invalid credential")
		return Verdict{Decision: DecisionInvalidCredential, Err: err}
	}

	if a.allowList.HasSubjectID(principal.SubjectID) {
		return Verdict{Decision: DecisionAdmin, Principal: principal, MatchedBy: "subject_id"}
	}

	verdict := Verdict{Principal: principal}
	if NormalizeEmail(principal.Email) == "" && a.directory != nil {
		email, lookupErr := callWithTimeout(ctx, a.timeout, func(callCtx context.Context) (string, error) {
			return a.directory.LookupEmail(callCtx, principal.SubjectID)
		})
		if lookupErr != nil {
			verdict.DirectoryDegraded = true
			logger.Warn().
				Err(lookupErr).
				Str("event", "admin_email_lookup_degraded").
				Str("subject_id", principal.SubjectID).
				Msg("User directory lookup failed; treating email as absent")
		} else {
			verdict.Principal.Email = email
		}
	}

	email := NormalizeEmail(verdict.Principal.Email)
	verdict.Principal.Email = email
	switch {
	case email == "" && a.missingEmail == MissingEmailForbidden:
		verdict.Decision = DecisionMissingEmail
	case a.allowList.HasEmail(email):
		verdict.Decision = DecisionAdmin
		verdict.MatchedBy = "email"
	default:
		verdict.Decision = DecisionNonAdmin
	}
	return verdict
}

type callResult[T any] struct {
	value T
	err   error
}

// callWithTimeout bounds fn even when the underlying client ignores its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		value, err := fn(callCtx)
		done <- callResult[T]{value: value, err: err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}
