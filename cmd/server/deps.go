// cmd/server/deps.go
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/codr1/Clubhouse/internal/api/analytics"
	"github.com/codr1/Clubhouse/internal/api/apiutil"
	"github.com/codr1/Clubhouse/internal/api/auth"
	"github.com/codr1/Clubhouse/internal/api/authz"
	"github.com/codr1/Clubhouse/internal/api/availability"
	"github.com/codr1/Clubhouse/internal/api/newsletter"
	"github.com/codr1/Clubhouse/internal/api/predictions"
	"github.com/codr1/Clubhouse/internal/api/registrations"
	"github.com/codr1/Clubhouse/internal/api/sponsorship"
	"github.com/codr1/Clubhouse/internal/cognito"
	"github.com/codr1/Clubhouse/internal/config"
	"github.com/codr1/Clubhouse/internal/db"
	"github.com/codr1/Clubhouse/internal/email"
	"github.com/codr1/Clubhouse/internal/ratelimit"
	"github.com/codr1/Clubhouse/internal/scheduler"
)

// appDeps holds everything the handlers are initialized with.
type appDeps struct {
	database        *db.DB
	adminAuthorizer *authz.Authorizer
	checkAuthorizer *authz.Authorizer
	emailSender     email.Sender
	formLimiter     *ratelimit.Limiter
	formGuard       *apiutil.FormGuard
	ingestLimiter   *rate.Limiter
	site            apiutil.Site
	voteHashKey     string
	trustProxy      bool
}

func buildDeps(ctx context.Context, cfg *config.Config) (*appDeps, error) {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	deps := &appDeps{
		database:    database,
		voteHashKey: cfg.App.VoteHashKey,
		trustProxy:  cfg.App.TrustProxy,
		site: apiutil.Site{
			ClubName:    cfg.App.Name,
			BaseURL:     cfg.App.BaseURL,
			ClubInbox:   cfg.Email.ClubInbox,
			PhoneRegion: cfg.Submissions.DefaultRegion,
		},
	}

	deps.adminAuthorizer, deps.checkAuthorizer, err = buildAuthorizers(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(ctx, email.SESConfig{
			Region:          cfg.Email.Region,
			From:            cfg.Email.Sender,
			AccessKeyID:     cfg.Email.AccessKeyID,
			SecretAccessKey: cfg.Email.SecretAccessKey,
		})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("create ses client: %w", err)
		}
		deps.emailSender = sesClient
	} else {
		log.Warn().Msg("Email delivery disabled")
	}

	deps.formLimiter = ratelimit.New(&ratelimit.Config{
		Cooldown:     cfg.Submissions.Cooldown,
		MaxPerHour:   cfg.Submissions.MaxPerHour,
		MaxIPPerHour: cfg.Submissions.MaxIPPerHour,
	})
	deps.formGuard = &apiutil.FormGuard{Limiter: deps.formLimiter, TrustProxy: cfg.App.TrustProxy}
	deps.ingestLimiter = analytics.NewIngestLimiter(cfg.Analytics.IngestRate, cfg.Analytics.IngestBurst)

	if deps.voteHashKey == "" {
		log.Warn().Msg("VOTE_HASH_KEY not set; prediction voter hashes are unkeyed")
	}
	return deps, nil
}

// buildAuthorizers returns the authorizer for admin-only routes and the one
// for the "who am I" route. They differ only in missing-email policy.
func buildAuthorizers(ctx context.Context, cfg *config.Config) (*authz.Authorizer, *authz.Authorizer, error) {
	var verifier authz.CredentialVerifier
	switch cfg.Auth.Provider {
	case config.AuthProviderClerk:
		auth.InitClerk(cfg.Auth.ClerkSecretKey)
		verifier = auth.NewClerkVerifier()
	case config.AuthProviderJWKS:
		jwksVerifier, err := auth.NewJWKSVerifier(ctx, auth.JWKSConfig{
			Issuer:   cfg.Auth.Issuer,
			JWKSURL:  cfg.Auth.JWKSURL,
			Audience: cfg.Auth.Audience,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create jwks verifier: %w", err)
		}
		verifier = jwksVerifier
	default:
		return nil, nil, fmt.Errorf("unsupported auth provider: %s", cfg.Auth.Provider)
	}

	var directory authz.UserDirectory
	switch cfg.Auth.Directory {
	case config.DirectoryClerk:
		auth.InitClerk(cfg.Auth.ClerkSecretKey)
		directory = auth.NewClerkDirectory()
	case config.DirectoryCognito:
		cognitoClient, err := cognito.NewClient(ctx, cfg.Auth.CognitoPoolID)
		if err != nil {
			return nil, nil, fmt.Errorf("create cognito client: %w", err)
		}
		directory = cognitoClient
	case config.DirectoryNone:
	default:
		return nil, nil, fmt.Errorf("unsupported user directory: %s", cfg.Auth.Directory)
	}

	allowList := authz.NewAllowList(cfg.Auth.AdminEmails, cfg.Auth.AdminUIDs)
	subjectIDs, emails := allowList.Size()
	log.Info().
		Str("provider", cfg.Auth.Provider).
		Str("directory", cfg.Auth.Directory).
		Int("admin_subject_ids", subjectIDs).
		Int("admin_emails", emails).
		Msg("Admin authorization configured")

	adminPolicy, err := authz.ParseMissingEmailPolicy(cfg.Auth.MissingEmailPolicy)
	if err != nil {
		return nil, nil, err
	}
	checkPolicy, err := authz.ParseMissingEmailPolicy(cfg.Auth.CheckMissingEmailPolicy)
	if err != nil {
		return nil, nil, err
	}

	admin, err := authz.NewAuthorizer(verifier, directory, allowList, authz.Options{
		MissingEmail: adminPolicy,
		Timeout:      cfg.Auth.VerifyTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return admin, admin.WithMissingEmailPolicy(checkPolicy), nil
}

func initHandlers(deps *appDeps) {
	q := deps.database.Queries

	auth.InitHandlers(deps.checkAuthorizer)
	registrations.InitHandlers(q, deps.emailSender, deps.formGuard, deps.site)
	availability.InitHandlers(q, deps.formGuard)
	newsletter.InitHandlers(q, deps.emailSender, deps.formGuard, deps.site)
	analytics.InitHandlers(q, deps.ingestLimiter)
	sponsorship.InitHandlers(q, deps.emailSender, deps.formGuard, deps.site)
	predictions.InitHandlers(q, deps.voteHashKey, deps.trustProxy)
}

func startScheduler(database *db.DB, cfg *config.Config) error {
	if err := scheduler.Init(); err != nil {
		return err
	}
	if err := scheduler.RegisterMaintenanceJobs(database, scheduler.MaintenanceConfig{
		AnalyticsRetentionCron:  cfg.Jobs.AnalyticsRetention,
		AvailabilityCleanupCron: cfg.Jobs.AvailabilityCleanup,
		AnalyticsRetentionDays:  cfg.Analytics.RetentionDays,
	}); err != nil {
		return err
	}
	return scheduler.Start()
}

// Close releases the limiter and the database. It is safe to call twice.
func (d *appDeps) Close() {
	if d == nil {
		return
	}
	if d.formLimiter != nil {
		d.formLimiter.Close()
		d.formLimiter = nil
	}
	if d.database != nil {
		if err := d.database.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
		d.database = nil
	}
}
