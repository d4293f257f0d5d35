// internal/api/newsletter/handlers.go
package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	appdb "github.com/codr1/Clubhouse/internal/db"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
	"github.com/codr1/Clubhouse/internal/email"
)

const (
	formName        = "newsletter"
	queryTimeout    = 5 * time.Second
	defaultSource   = "website"
	maxNameLength   = 100
	maxSourceLength = 50

	StatusActive       = "active"
	StatusUnsubscribed = "unsubscribed"
)

var (
	queries     newsletterQueries
	emailClient email.Sender
	guard       *apiutil.FormGuard
	site        apiutil.Site
	now         = func() time.Time { return time.Now().UTC() }
)

type newsletterQueries interface {
	GetNewsletterSubscriberByEmail(ctx context.Context, email string) (dbgen.NewsletterSubscriber, error)
	CreateNewsletterSubscriber(ctx context.Context, arg dbgen.CreateNewsletterSubscriberParams) (dbgen.NewsletterSubscriber, error)
	ReactivateNewsletterSubscriber(ctx context.Context, arg dbgen.ReactivateNewsletterSubscriberParams) (dbgen.NewsletterSubscriber, error)
	UnsubscribeNewsletterSubscriber(ctx context.Context, arg dbgen.UnsubscribeNewsletterSubscriberParams) (int64, error)
	ListNewsletterSubscribers(ctx context.Context) ([]dbgen.NewsletterSubscriber, error)
	CountActiveNewsletterSubscribers(ctx context.Context) (int64, error)
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q newsletterQueries, client email.Sender, formGuard *apiutil.FormGuard, siteInfo apiutil.Site) {
	queries = q
	emailClient = client
	guard = formGuard
	site = siteInfo
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

type unsubscribeRequest struct {
	Email string `json:"email"`
}

type subscriberResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
}

func newSubscriberResponse(row dbgen.NewsletterSubscriber) subscriberResponse {
	resp := subscriberResponse{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Source:       row.Source,
		Status:       row.Status,
		SubscribedAt: row.SubscribedAt,
	}
	if row.UnsubscribedAt.Valid {
		unsubscribedAt := row.UnsubscribedAt.Time
		resp.UnsubscribedAt = &unsubscribedAt
	}
	return resp
}

// POST /api/newsletter/subscribe
func HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req subscribeRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}

	address, err := apiutil.ParseEmail("email", req.Email)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}
	name, err := apiutil.OptionalString("name", req.Name, maxNameLength)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}
	source, err := apiutil.OptionalString("source", req.Source, maxSourceLength)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}
	if source == "" {
		source = defaultSource
	}

	if !guard.Allow(w, r, formName, address) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	existing, err := q.GetNewsletterSubscriberByEmail(ctx, address)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		subscriber, err := q.CreateNewsletterSubscriber(ctx, dbgen.CreateNewsletterSubscriberParams{
			ID:           uuid.NewString(),
			Email:        address,
			Name:         name,
			Source:       source,
			SubscribedAt: now(),
		})
		if err != nil {
			if appdb.IsUniqueViolation(err) {
				// Lost a race with a concurrent subscribe for the same address.
				writeSubscribed(w, http.StatusOK)
				return
			}
			logger.Error().Err(err).Msg("Failed to create newsletter subscriber")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to subscribe")
			return
		}
		guard.Record(r, formName, address)

		logger.Info().Str("subscriber_id", subscriber.ID).Str("source", subscriber.Source).Msg("Newsletter subscription created")
		welcome := email.BuildNewsletterWelcome(email.NewsletterDetails{
			ClubName:       site.ClubName,
			Name:           subscriber.Name,
			UnsubscribeURL: unsubscribeURL(subscriber.Email),
		})
		email.SendAsync(r.Context(), emailClient, email.Envelope{To: subscriber.Email, Message: welcome})
		writeSubscribed(w, http.StatusCreated)
		return
	case err != nil:
		logger.Error().Err(err).Msg("Failed to look up newsletter subscriber")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	if existing.Status != StatusActive {
		if _, err := q.ReactivateNewsletterSubscriber(ctx, dbgen.ReactivateNewsletterSubscriberParams{
			Name:         name,
			SubscribedAt: now(),
			Email:        address,
		}); err != nil {
			logger.Error().Err(err).Str("subscriber_id", existing.ID).Msg("Failed to reactivate newsletter subscriber")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to subscribe")
			return
		}
		guard.Record(r, formName, address)
		logger.Info().Str("subscriber_id", existing.ID).Msg("Newsletter subscription reactivated")
	}

	writeSubscribed(w, http.StatusOK)
}

func writeSubscribed(w http.ResponseWriter, status int) {
	_ = apiutil.WriteJSON(w, status, map[string]string{"status": StatusActive})
}

func unsubscribeURL(address string) string {
	return site.URL("/newsletter/unsubscribe?email=" + url.QueryEscape(address))
}

// POST /api/newsletter/unsubscribe
//
// Responds identically whether or not the address was subscribed.
func HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req unsubscribeRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}
	address, err := apiutil.ParseEmail("email", req.Email)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	affected, err := q.UnsubscribeNewsletterSubscriber(ctx, dbgen.UnsubscribeNewsletterSubscriberParams{
		UnsubscribedAt: now(),
		Email:          address,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to unsubscribe newsletter subscriber")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}
	if affected > 0 {
		logger.Info().Msg("Newsletter subscription cancelled")
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusUnsubscribed})
}

// GET /api/admin/newsletter
func HandleListSubscribers(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := q.ListNewsletterSubscribers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list newsletter subscribers")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load subscribers")
		return
	}
	active, err := q.CountActiveNewsletterSubscribers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count newsletter subscribers")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load subscribers")
		return
	}

	subscribers := make([]subscriberResponse, 0, len(rows))
	for _, row := range rows {
		subscribers = append(subscribers, newSubscriberResponse(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"subscribers": subscribers,
		"total":       len(subscribers),
		"active":      active,
	})
}
