package apiutil

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/authz"
)

const (
	MessageMissingToken    = "Missing Authorization bearer token"
	MessageInvalidToken    = "Invalid token"
	MessageAdminRequired   = "Admin access required"
	ReasonEmailUnavailable = "email_unavailable"
)

// WriteVerdictError writes the response for a verdict that does not grant
// admin access. It reports false when verdict is an admin verdict and
// nothing was written.
func WriteVerdictError(w http.ResponseWriter, verdict authz.Verdict) bool {
	switch verdict.Decision {
	case authz.DecisionAdmin:
		return false
	case authz.DecisionUnauthenticated:
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, MessageMissingToken)
	case authz.DecisionInvalidCredential:
		WriteInvalidCredential(w, verdict)
	case authz.DecisionMissingEmail:
		_ = WriteJSON(w, http.StatusForbidden, ErrorResponse{Error: MessageAdminRequired, Reason: ReasonEmailUnavailable})
	default:
		WriteError(w, http.StatusForbidden, MessageAdminRequired)
	}
	return true
}

func WriteInvalidCredential(w http.ResponseWriter, verdict authz.Verdict) {
	details := ""
	if verdict.Err != nil {
		details = verdict.Err.Error()
	}
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	_ = WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: MessageInvalidToken, Details: details})
}

// RequireAdmin authorizes r and writes the denial response when the caller
// is not an admin.
func RequireAdmin(w http.ResponseWriter, r *http.Request, authorizer *authz.Authorizer) (authz.Verdict, bool) {
	logger := log.Ctx(r.Context())
	if authorizer == nil {
		logger.Error().Msg("Admin authorizer not initialized")
		WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return authz.Verdict{}, false
	}

	verdict := authorizer.AuthorizeRequest(r)
	if !WriteVerdictError(w, verdict) {
		return verdict, true
	}

	event := logger.Warn().
		Str("decision", verdict.Decision.String()).
		Str("path", r.URL.Path)
	if verdict.Principal.SubjectID != "" {
		event = event.Str("subject_id", verdict.Principal.SubjectID)
	}
	if verdict.DirectoryDegraded {
		event = event.Bool("directory_degraded", true)
	}
	event.Msg("Admin access denied")
	return verdict, false
}
