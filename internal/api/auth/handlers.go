package auth

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	"github.com/codr1/Clubhouse/internal/api/authz"
)

var checkAuthorizer *authz.Authorizer

// InitHandlers sets the authorizer used by the "who am I" route. It should
// apply the nonAdmin missing-email policy.
func InitHandlers(authorizer *authz.Authorizer) {
	checkAuthorizer = authorizer
}

type anonymousCheckResponse struct {
	Authenticated bool `json:"authenticated"`
	IsAdmin       bool `json:"isAdmin"`
}

type checkResponse struct {
	Authenticated bool   `json:"authenticated"`
	IsAdmin       bool   `json:"isAdmin"`
	UID           string `json:"uid"`
	// Email is null when no address could be resolved.
	Email *string `json:"email"`
}

// GET /api/admin/check
func HandleCheck(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	authorizer := checkAuthorizer
	if authorizer == nil {
		logger.Error().Msg("Check authorizer not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	verdict := authorizer.AuthorizeRequest(r)
	switch {
	case verdict.Decision == authz.DecisionInvalidCredential:
		apiutil.WriteInvalidCredential(w, verdict)
		return
	case !verdict.Authenticated():
		_ = apiutil.WriteJSON(w, http.StatusOK, anonymousCheckResponse{})
		return
	}

	logger.Debug().
		Str("subject_id", verdict.Principal.SubjectID).
		Str("decision", verdict.Decision.String()).
		Bool("directory_degraded", verdict.DirectoryDegraded).
		Msg("Admin check")

	resp := checkResponse{
		Authenticated: true,
		IsAdmin:       verdict.IsAdmin(),
		UID:           verdict.Principal.SubjectID,
	}
	if verdict.Principal.Email != "" {
		email := verdict.Principal.Email
		resp.Email = &email
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, resp)
}
