// internal/api/predictions/handlers.go
package predictions

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	appdb "github.com/codr1/Clubhouse/internal/db"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
	"github.com/codr1/Clubhouse/internal/ratelimit"
)

const (
	queryTimeout  = 5 * time.Second
	maxMatchIDLen = 100

	ChoiceHome = "home"
	ChoiceAway = "away"
	ChoiceDraw = "draw"
)

var (
	queries    predictionQueries
	hashKey    []byte
	trustProxy bool
	now        = func() time.Time { return time.Now().UTC() }
)

type predictionQueries interface {
	CreatePredictionVote(ctx context.Context, arg dbgen.CreatePredictionVoteParams) error
	CountPredictionVotes(ctx context.Context, matchID string) ([]dbgen.CountPredictionVotesRow, error)
}

// InitHandlers must be called during server startup before handling requests.
// Keys longer than blake2b.Size are condensed to a digest first.
func InitHandlers(q predictionQueries, voteHashKey string, trustProxyHeaders bool) {
	queries = q
	trustProxy = trustProxyHeaders
	hashKey = nil
	if voteHashKey != "" {
		key := []byte(voteHashKey)
		if len(key) > blake2b.Size {
			sum := blake2b.Sum256(key)
			key = sum[:]
		}
		hashKey = key
	}
}

type voteRequest struct {
	Choice string `json:"choice"`
}

// Tally is the vote count for one match.
type Tally struct {
	MatchID string `json:"matchId"`
	Home    int64  `json:"home"`
	Away    int64  `json:"away"`
	Draw    int64  `json:"draw"`
	Total   int64  `json:"total"`
}

func validChoice(choice string) bool {
	switch choice {
	case ChoiceHome, ChoiceAway, ChoiceDraw:
		return true
	}
	return false
}

func matchIDFromPath(r *http.Request) (string, error) {
	matchID := strings.TrimSpace(r.PathValue("matchId"))
	if matchID == "" {
		return "", apiutil.FieldError{Field: "matchId", Reason: "is required"}
	}
	if len(matchID) > maxMatchIDLen {
		return "", apiutil.FieldError{Field: "matchId", Reason: "is too long"}
	}
	return matchID, nil
}

// voterHash fingerprints the caller for one match without storing the
// address or user agent.
func voterHash(matchID, ip, userAgent string) (string, error) {
	h, err := blake2b.New256(hashKey)
	if err != nil {
		return "", err
	}
	for _, part := range []string{matchID, ip, userAgent} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// POST /api/predictions/{matchId}/vote
func HandleVote(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	matchID, err := matchIDFromPath(r)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}

	var req voteRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}
	choice := strings.ToLower(strings.TrimSpace(req.Choice))
	if !validChoice(choice) {
		apiutil.WriteHandlerError(w, r, apiutil.FieldError{Field: "choice", Reason: "must be home, away or draw"})
		return
	}

	hash, err := voterHash(matchID, ratelimit.GetClientIP(r, trustProxy), r.UserAgent())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash voter")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	err = q.CreatePredictionVote(ctx, dbgen.CreatePredictionVoteParams{
		MatchID:   matchID,
		Choice:    choice,
		VoterHash: hash,
		CreatedAt: now(),
	})
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			apiutil.WriteError(w, http.StatusConflict, "You have already voted on this match")
			return
		}
		logger.Error().Err(err).Str("match_id", matchID).Msg("Failed to record prediction vote")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	tally, err := loadTally(ctx, q, matchID)
	if err != nil {
		logger.Error().Err(err).Str("match_id", matchID).Msg("Failed to load prediction tally")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load votes")
		return
	}

	logger.Debug().Str("match_id", matchID).Str("choice", choice).Msg("Prediction vote recorded")
	_ = apiutil.WriteJSON(w, http.StatusCreated, tally)
}

// GET /api/predictions/{matchId}
func HandleTally(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	matchID, err := matchIDFromPath(r)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	tally, err := loadTally(ctx, q, matchID)
	if err != nil {
		logger.Error().Err(err).Str("match_id", matchID).Msg("Failed to load prediction tally")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load votes")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, tally)
}

func loadTally(ctx context.Context, q predictionQueries, matchID string) (Tally, error) {
	rows, err := q.CountPredictionVotes(ctx, matchID)
	if err != nil {
		return Tally{}, err
	}

	tally := Tally{MatchID: matchID}
	for _, row := range rows {
		switch row.Choice {
		case ChoiceHome:
			tally.Home = row.Total
		case ChoiceAway:
			tally.Away = row.Total
		case ChoiceDraw:
			tally.Draw = row.Total
		}
		tally.Total += row.Total
	}
	return tally, nil
}
