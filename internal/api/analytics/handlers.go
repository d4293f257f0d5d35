// internal/api/analytics/handlers.go
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
)

const (
	queryTimeout       = 5 * time.Second
	maxNameLength      = 100
	maxPathLength      = 500
	maxSessionIDLength = 100
	maxPropertiesBytes = 4 << 10
	defaultWindowDays  = 30
	maxWindowDays      = 365
)

var (
	queries analyticsQueries
	limiter *rate.Limiter
	now     = func() time.Time { return time.Now().UTC() }
)

type analyticsQueries interface {
	CreateAnalyticsEvent(ctx context.Context, arg dbgen.CreateAnalyticsEventParams) error
	CountAnalyticsEventsSince(ctx context.Context, createdAt time.Time) ([]dbgen.CountAnalyticsEventsSinceRow, error)
}

// InitHandlers must be called during server startup before handling requests.
// A nil ingest limiter disables throttling.
func InitHandlers(q analyticsQueries, ingest *rate.Limiter) {
	queries = q
	limiter = ingest
}

// NewIngestLimiter builds the shared token bucket for event ingestion.
func NewIngestLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type eventRequest struct {
	Name       string          `json:"name"`
	Path       string          `json:"path"`
	Referrer   string          `json:"referrer"`
	SessionID  string          `json:"sessionId"`
	Properties json.RawMessage `json:"properties"`
}

type eventCount struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

func (req eventRequest) validate() (dbgen.CreateAnalyticsEventParams, error) {
	var params dbgen.CreateAnalyticsEventParams
	var err error

	if params.Name, err = apiutil.RequiredString("name", req.Name, maxNameLength); err != nil {
		return params, err
	}
	if params.Path, err = apiutil.OptionalString("path", req.Path, maxPathLength); err != nil {
		return params, err
	}
	if params.Referrer, err = apiutil.OptionalString("referrer", req.Referrer, maxPathLength); err != nil {
		return params, err
	}
	if params.SessionID, err = apiutil.OptionalString("sessionId", req.SessionID, maxSessionIDLength); err != nil {
		return params, err
	}
	if params.Properties, err = normalizeProperties(req.Properties); err != nil {
		return params, err
	}
	return params, nil
}

// normalizeProperties accepts a JSON object (or nothing) and returns it
// compacted for storage.
func normalizeProperties(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "{}", nil
	}
	if len(trimmed) > maxPropertiesBytes {
		return "", apiutil.FieldError{Field: "properties", Reason: "is too large"}
	}
	if trimmed[0] != '{' {
		return "", apiutil.FieldError{Field: "properties", Reason: "must be an object"}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", apiutil.FieldError{Field: "properties", Reason: "must be an object"}
	}
	return buf.String(), nil
}

// POST /api/analytics/events
func HandleTrackEvent(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if limiter != nil && !limiter.Allow() {
		logger.Warn().Msg("Analytics ingest rate exceeded")
		w.Header().Set("Retry-After", "1")
		apiutil.WriteError(w, http.StatusTooManyRequests, "Too many events, please slow down")
		return
	}

	var req eventRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}
	params, err := req.validate()
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}
	params.CreatedAt = now()

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := q.CreateAnalyticsEvent(ctx, params); err != nil {
		logger.Error().Err(err).Str("event", params.Name).Msg("Failed to record analytics event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to record event")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GET /api/admin/analytics?days=
func HandleEventSummary(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	days, err := apiutil.IntQuery(r, "days", defaultWindowDays, maxWindowDays)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}
	since := now().AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := q.CountAnalyticsEventsSince(ctx, since)
	if err != nil {
		logger.Error().Err(err).Int("days", days).Msg("Failed to summarize analytics events")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	events := make([]eventCount, 0, len(rows))
	var total int64
	for _, row := range rows {
		events = append(events, eventCount{Name: row.Name, Total: row.Total})
		total += row.Total
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"days":   days,
		"since":  since,
		"events": events,
		"total":  total,
	})
}
