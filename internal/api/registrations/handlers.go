// internal/api/registrations/handlers.go
package registrations

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	appdb "github.com/codr1/Clubhouse/internal/db"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
	"github.com/codr1/Clubhouse/internal/email"
	"github.com/codr1/Clubhouse/internal/phone"
)

const (
	formName           = "register"
	queryTimeout       = 5 * time.Second
	dateOfBirthLayout  = "2006-01-02"
	maxNameLength      = 100
	maxGradeLength     = 50
	maxExperienceChars = 500
	maxNotesChars      = 2000
)

var (
	queries     registrationQueries
	emailClient email.Sender
	guard       *apiutil.FormGuard
	site        apiutil.Site
	now         = func() time.Time { return time.Now().UTC() }
)

type registrationQueries interface {
	CreateRegistration(ctx context.Context, arg dbgen.CreateRegistrationParams) (dbgen.Registration, error)
	ListRegistrations(ctx context.Context) ([]dbgen.Registration, error)
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q registrationQueries, client email.Sender, formGuard *apiutil.FormGuard, siteInfo apiutil.Site) {
	queries = q
	emailClient = client
	guard = formGuard
	site = siteInfo
}

type registrationRequest struct {
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	DateOfBirth           string `json:"dateOfBirth"`
	Grade                 string `json:"grade"`
	Experience            string `json:"experience"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
	Notes                 string `json:"notes"`
}

type registrationResponse struct {
	ID                    string    `json:"id"`
	Season                string    `json:"season"`
	FirstName             string    `json:"firstName"`
	LastName              string    `json:"lastName"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone,omitempty"`
	DateOfBirth           string    `json:"dateOfBirth,omitempty"`
	Grade                 string    `json:"grade,omitempty"`
	Experience            string    `json:"experience,omitempty"`
	EmergencyContactName  string    `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string    `json:"emergencyContactPhone,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
}

func newRegistrationResponse(row dbgen.Registration) registrationResponse {
	return registrationResponse{
		ID:                    row.ID,
		Season:                row.Season,
		FirstName:             row.FirstName,
		LastName:              row.LastName,
		Email:                 row.Email,
		Phone:                 row.Phone,
		DateOfBirth:           row.DateOfBirth,
		Grade:                 row.Grade,
		Experience:            row.Experience,
		EmergencyContactName:  row.EmergencyContactName,
		EmergencyContactPhone: row.EmergencyContactPhone,
		Notes:                 row.Notes,
		CreatedAt:             row.CreatedAt,
	}
}

// validate normalizes the request into insert parameters.
func (req registrationRequest) validate(at time.Time, region string) (dbgen.CreateRegistrationParams, error) {
	var params dbgen.CreateRegistrationParams
	var err error

	if params.FirstName, err = apiutil.RequiredString("firstName", req.FirstName, maxNameLength); err != nil {
		return params, err
	}
	if params.LastName, err = apiutil.RequiredString("lastName", req.LastName, maxNameLength); err != nil {
		return params, err
	}
	if params.Email, err = apiutil.ParseEmail("email", req.Email); err != nil {
		return params, err
	}
	if params.Phone, err = phone.NormalizeOptional(req.Phone, region); err != nil {
		return params, apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	if params.DateOfBirth, err = parseDateOfBirth(req.DateOfBirth, at); err != nil {
		return params, err
	}
	if params.Grade, err = apiutil.OptionalString("grade", req.Grade, maxGradeLength); err != nil {
		return params, err
	}
	if params.Experience, err = apiutil.OptionalString("experience", req.Experience, maxExperienceChars); err != nil {
		return params, err
	}
	if params.EmergencyContactName, err = apiutil.OptionalString("emergencyContactName", req.EmergencyContactName, maxNameLength); err != nil {
		return params, err
	}
	if params.EmergencyContactPhone, err = phone.NormalizeOptional(req.EmergencyContactPhone, region); err != nil {
		return params, apiutil.FieldError{Field: "emergencyContactPhone", Reason: "must be a valid phone number"}
	}
	if params.Notes, err = apiutil.OptionalString("notes", req.Notes, maxNotesChars); err != nil {
		return params, err
	}

	params.Season = strconv.Itoa(at.Year())
	params.CreatedAt = at
	return params, nil
}

func parseDateOfBirth(raw string, at time.Time) (string, error) {
	raw, _ = apiutil.OptionalString("dateOfBirth", raw, 0)
	if raw == "" {
		return "", nil
	}
	dob, err := time.Parse(dateOfBirthLayout, raw)
	if err != nil {
		return "", apiutil.FieldError{Field: "dateOfBirth", Reason: "must be a date in YYYY-MM-DD format"}
	}
	if !dob.Before(at) {
		return "", apiutil.FieldError{Field: "dateOfBirth", Reason: "must be in the past"}
	}
	return dob.Format(dateOfBirthLayout), nil
}

// POST /api/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req registrationRequest
	if !apiutil.DecodeJSONOrWriteError(w, r, &req) {
		return
	}

	at := now()
	params, err := req.validate(at, site.PhoneRegion)
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
	registration, err := q.CreateRegistration(ctx, params)
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			err = apiutil.HandlerError{Status: http.StatusConflict, Message: "This email is already registered for the " + params.Season + " season", Err: err}
		} else {
			err = apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to save registration", Err: err}
		}
		apiutil.WriteHandlerError(w, r, err)
		return
	}
	guard.Record(r, formName, registration.Email)

	logger.Info().
		Str("registration_id", registration.ID).
		Str("season", registration.Season).
		Msg("Registration created")

	confirmation := email.BuildRegistrationConfirmation(email.RegistrationDetails{
		ClubName:  site.ClubName,
		FirstName: registration.FirstName,
		Season:    registration.Season,
		Grade:     registration.Grade,
	})
	email.SendAsync(r.Context(), emailClient, email.Envelope{To: registration.Email, ReplyTo: site.ClubInbox, Message: confirmation})

	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]string{"id": registration.ID})
}

// GET /api/admin/registrations
func HandleListRegistrations(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := q.ListRegistrations(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list registrations")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load registrations")
		return
	}

	registrations := make([]registrationResponse, 0, len(rows))
	for _, row := range rows {
		registrations = append(registrations, newRegistrationResponse(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"registrations": registrations,
		"total":         len(registrations),
	})
}
