// internal/api/availability/handlers.go
package availability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
)

const (
	formName      = "availability"
	queryTimeout  = 5 * time.Second
	maxMatchIDLen = 100
	maxNameLength = 100
	maxNoteChars  = 500
)

var (
	queries availabilityQueries
	guard   *apiutil.FormGuard
	now     = func() time.Time { return time.Now().UTC() }
)

type availabilityQueries interface {
	UpsertMatchAvailability(ctx context.Context, arg dbgen.UpsertMatchAvailabilityParams) (dbgen.MatchAvailability, error)
	ListMatchAvailability(ctx context.Context, matchID string) ([]dbgen.MatchAvailability, error)
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q availabilityQueries, formGuard *apiutil.FormGuard) {
	queries = q
	guard = formGuard
}

type availabilityRequest struct {
	MatchID     string `json:"matchId"`
	PlayerName  string `json:"playerName"`
	PlayerEmail string `json:"playerEmail"`
	Available   *bool  `json:"available"`
	Note        string `json:"note"`
}

type availabilityResponse struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"matchId"`
	PlayerName  string    `json:"playerName"`
	PlayerEmail string    `json:"playerEmail"`
	Available   bool      `json:"available"`
	Note        string    `json:"note,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type availabilitySummary struct {
	MatchID     string                 `json:"matchId"`
	Players     []availabilityResponse `json:"players"`
	Available   int                    `json:"available"`
	Unavailable int                    `json:"unavailable"`
	Total       int                    `json:"total"`
}

func (req availabilityRequest) validate() (dbgen.UpsertMatchAvailabilityParams, error) {
	var params dbgen.UpsertMatchAvailabilityParams
	var err error

	if params.MatchID, err = apiutil.RequiredString("matchId", req.MatchID, maxMatchIDLen); err != nil {
		return params, err
	}
	if params.PlayerName, err = apiutil.RequiredString("playerName", req.PlayerName, maxNameLength); err != nil {
		return params, err
	}
	if params.PlayerEmail, err = apiutil.ParseEmail("playerEmail", req.PlayerEmail); err != nil {
		return params, err
	}
	if req.Available == nil {
		return params, apiutil.FieldError{Field: "available", Reason: "is required"}
	}
	params.Available = *req.Available
	if params.Note, err = apiutil.OptionalString("note", req.Note, maxNoteChars); err != nil {
		return params, err
	}
	return params, nil
}

// POST /api/availability
func HandleSetAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req availabilityRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}
	params, err := req.validate()
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}

	// One player toggling several matches is normal, so the identifier
	// includes the match.
	identifier := params.MatchID + ":" + params.PlayerEmail
	if !guard.Allow(w, r, formName, identifier) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	at := now()
	params.ID = uuid.NewString()
	params.CreatedAt = at
	params.UpdatedAt = at

	row, err := q.UpsertMatchAvailability(ctx, params)
	if err != nil {
		logger.Error().Err(err).Str("match_id", params.MatchID).Msg("Failed to save availability")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to save availability")
		return
	}
	guard.Record(r, formName, identifier)

	logger.Info().
		Str("match_id", row.MatchID).
		Bool("available", row.Available).
		Msg("Availability updated")

	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":        row.ID,
		"available": row.Available,
	})
}

// GET /api/admin/availability?matchId=
func HandleListAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	matchID := strings.TrimSpace(r.URL.Query().Get("matchId"))
	if matchID == "" {
		apiutil.WriteHandlerError(w, r, apiutil.FieldError{Field: "matchId", Reason: "is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := q.ListMatchAvailability(ctx, matchID)
	if err != nil {
		logger.Error().Err(err).Str("match_id", matchID).Msg("Failed to list availability")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, summarize(matchID, rows))
}

func summarize(matchID string, rows []dbgen.MatchAvailability) availabilitySummary {
	summary := availabilitySummary{
		MatchID: matchID,
		Players: make([]availabilityResponse, 0, len(rows)),
		Total:   len(rows),
	}
	for _, row := range rows {
		if row.Available {
			summary.Available++
		} else {
			summary.Unavailable++
		}
		summary.Players = append(summary.Players, availabilityResponse{
			ID:          row.ID,
			MatchID:     row.MatchID,
			PlayerName:  row.PlayerName,
			PlayerEmail: row.PlayerEmail,
			Available:   row.Available,
			Note:        row.Note,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return summary
}
