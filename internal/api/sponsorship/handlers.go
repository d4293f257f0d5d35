// internal/api/sponsorship/handlers.go
package sponsorship

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
	"github.com/codr1/Clubhouse/internal/email"
	"github.com/codr1/Clubhouse/internal/phone"
)

const (
	formName        = "sponsorship"
	queryTimeout    = 5 * time.Second
	maxNameLength   = 150
	maxTierLength   = 50
	maxMessageChars = 4000
)

var (
	queries     sponsorshipQueries
	emailClient email.Sender
	guard       *apiutil.FormGuard
	site        apiutil.Site
	now         = func() time.Time { return time.Now().UTC() }
)

type sponsorshipQueries interface {
	CreateSponsorshipInquiry(ctx context.Context, arg dbgen.CreateSponsorshipInquiryParams) (dbgen.SponsorshipInquiry, error)
	ListSponsorshipInquiries(ctx context.Context) ([]dbgen.SponsorshipInquiry, error)
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q sponsorshipQueries, client email.Sender, formGuard *apiutil.FormGuard, siteInfo apiutil.Site) {
	queries = q
	emailClient = client
	guard = formGuard
	site = siteInfo
}

type inquiryRequest struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Tier        string `json:"tier"`
	Message     string `json:"message"`
}

type inquiryResponse struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Tier        string    `json:"tier,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (req inquiryRequest) validate(region string) (dbgen.CreateSponsorshipInquiryParams, error) {
	var params dbgen.CreateSponsorshipInquiryParams
	var err error

	if params.CompanyName, err = apiutil.RequiredString("companyName", req.CompanyName, maxNameLength); err != nil {
		return params, err
	}
	if params.ContactName, err = apiutil.RequiredString("contactName", req.ContactName, maxNameLength); err != nil {
		return params, err
	}
	if params.Email, err = apiutil.ParseEmail("email", req.Email); err != nil {
		return params, err
	}
	if params.Phone, err = phone.NormalizeOptional(req.Phone, region); err != nil {
		return params, apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	if params.Tier, err = apiutil.OptionalString("tier", req.Tier, maxTierLength); err != nil {
		return params, err
	}
	if params.Message, err = apiutil.RequiredString("message", req.Message, maxMessageChars); err != nil {
		return params, err
	}
	return params, nil
}

// POST /api/sponsorship
func HandleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req inquiryRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}
	params, err := req.validate(site.PhoneRegion)
	if err != nil {
		apiutil.WriteHandlerError(w, r, err)
		return
	}

	if !guard.Allow(w, r, formName, params.Email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	params.ID = uuid.NewString()
	params.CreatedAt = now()
	inquiry, err := q.CreateSponsorshipInquiry(ctx, params)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create sponsorship inquiry")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to save inquiry")
		return
	}
	guard.Record(r, formName, inquiry.Email)

	logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("tier", inquiry.Tier).
		Msg("Sponsorship inquiry created")

	details := email.SponsorshipDetails{
		ClubName:    site.ClubName,
		CompanyName: inquiry.CompanyName,
		ContactName: inquiry.ContactName,
		Email:       inquiry.Email,
		Phone:       inquiry.Phone,
		Tier:        inquiry.Tier,
		Message:     inquiry.Message,
	}
	if site.ClubInbox != "" {
		email.SendAsync(r.Context(), emailClient, email.Envelope{
			To:      site.ClubInbox,
			ReplyTo: inquiry.Email,
			Message: email.BuildSponsorshipNotification(details),
		})
	} else {
		logger.Warn().Str("inquiry_id", inquiry.ID).Msg("No club inbox configured for sponsorship notifications")
	}
	email.SendAsync(r.Context(), emailClient, email.Envelope{
		To:      inquiry.Email,
		Message: email.BuildSponsorshipAcknowledgement(details),
	})

	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]string{"id": inquiry.ID})
}

// GET /api/admin/sponsorship
func HandleListInquiries(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := q.ListSponsorshipInquiries(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list sponsorship inquiries")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load inquiries")
		return
	}

	inquiries := make([]inquiryResponse, 0, len(rows))
	for _, row := range rows {
		inquiries = append(inquiries, inquiryResponse{
			ID:          row.ID,
			CompanyName: row.CompanyName,
			ContactName: row.ContactName,
			Email:       row.Email,
			Phone:       row.Phone,
			Tier:        row.Tier,
			Message:     row.Message,
			CreatedAt:   row.CreatedAt,
		})
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"inquiries": inquiries,
		"total":     len(inquiries),
	})
}
