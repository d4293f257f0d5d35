// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	EnvironmentDevelopment = "development"

	AuthProviderClerk = "clerk"
	AuthProviderJWKS  = "jwks"

	DirectoryClerk   = "clerk"
	DirectoryCognito = "cognito"
	DirectoryNone    = "none"

	MissingEmailForbidden = "forbidden"
	MissingEmailNonAdmin  = "nonAdmin"

	defaultVerifyTimeout = 5 * time.Second
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type AuthConfig struct {
	Provider  string `yaml:"provider"`
	Directory string `yaml:"directory"`

	// JWKS provider
	Issuer   string `yaml:"issuer"`
	JWKSURL  string `yaml:"jwks_url"`
	Audience string `yaml:"audience"`

	CognitoPoolID string `yaml:"cognito_pool_id"`

	VerifyTimeout time.Duration `yaml:"verify_timeout"`

	// Policy for admin-only routes when no email can be resolved.
	MissingEmailPolicy string `yaml:"missing_email_policy"`
	// Policy for the "who am I" route.
	CheckMissingEmailPolicy string `yaml:"check_missing_email_policy"`

	ClerkSecretKey string `yaml:"-"` // Loaded from environment
	AdminEmails    string `yaml:"-"` // Loaded from environment
	AdminUIDs      string `yaml:"-"` // Loaded from environment
}

type EmailConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	ClubInbox       string `yaml:"club_inbox"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type SubmissionsConfig struct {
	Cooldown      time.Duration `yaml:"cooldown"`
	MaxPerHour    int           `yaml:"max_per_hour"`
	MaxIPPerHour  int           `yaml:"max_ip_per_hour"`
	DefaultRegion string        `yaml:"default_phone_region"`
}

type AnalyticsConfig struct {
	RetentionDays int     `yaml:"retention_days"`
	IngestRate    float64 `yaml:"ingest_rate"`
	IngestBurst   int     `yaml:"ingest_burst"`
}

type JobsConfig struct {
	AnalyticsRetention  string `yaml:"analytics_retention"`
	AvailabilityCleanup string `yaml:"availability_cleanup"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		TrustProxy  bool   `yaml:"trust_proxy"`
		SecretKey   string `yaml:"-"` // Loaded from environment
		VoteHashKey string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Email       EmailConfig       `yaml:"email"`
	Submissions SubmissionsConfig `yaml:"submissions"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
	Jobs        JobsConfig        `yaml:"jobs"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and fills defaults. Environment overlays
// and validation are left to the caller.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv overlays secrets and admin allow-lists from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.App.SecretKey = getenv("APP_SECRET_KEY")
	c.App.VoteHashKey = getenv("VOTE_HASH_KEY")
	c.Auth.ClerkSecretKey = getenv("CLERK_SECRET_KEY")
	c.Auth.AdminEmails = getenv("ADMIN_EMAILS")
	c.Auth.AdminUIDs = getenv("ADMIN_UIDS")
	c.Email.AccessKeyID = getenv("AWS_ACCESS_KEY_ID")
	c.Email.SecretAccessKey = getenv("AWS_SECRET_ACCESS_KEY")
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = EnvironmentDevelopment
	}
	if c.Auth.Provider == "" {
		c.Auth.Provider = AuthProviderClerk
	}
	if c.Auth.Directory == "" {
		c.Auth.Directory = c.Auth.Provider
		if c.Auth.Provider == AuthProviderJWKS {
			c.Auth.Directory = DirectoryNone
		}
	}
	if c.Auth.VerifyTimeout <= 0 {
		c.Auth.VerifyTimeout = defaultVerifyTimeout
	}
	if c.Auth.MissingEmailPolicy == "" {
		c.Auth.MissingEmailPolicy = MissingEmailForbidden
	}
	if c.Auth.CheckMissingEmailPolicy == "" {
		c.Auth.CheckMissingEmailPolicy = MissingEmailNonAdmin
	}
	if c.Submissions.Cooldown <= 0 {
		c.Submissions.Cooldown = 30 * time.Second
	}
	if c.Submissions.MaxPerHour <= 0 {
		c.Submissions.MaxPerHour = 5
	}
	if c.Submissions.MaxIPPerHour <= 0 {
		c.Submissions.MaxIPPerHour = 30
	}
	if c.Submissions.DefaultRegion == "" {
		c.Submissions.DefaultRegion = "AU"
	}
	if c.Analytics.RetentionDays <= 0 {
		c.Analytics.RetentionDays = 90
	}
	if c.Analytics.IngestRate <= 0 {
		c.Analytics.IngestRate = 50
	}
	if c.Analytics.IngestBurst <= 0 {
		c.Analytics.IngestBurst = 100
	}
	if c.Jobs.AnalyticsRetention == "" {
		c.Jobs.AnalyticsRetention = "15 3 * * *"
	}
	if c.Jobs.AvailabilityCleanup == "" {
		c.Jobs.AvailabilityCleanup = "45 3 * * 1"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Auth.Provider {
	case AuthProviderClerk:
		if c.Auth.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY is required for the clerk auth provider")
		}
	case AuthProviderJWKS:
		if c.Auth.Issuer == "" && c.Auth.JWKSURL == "" {
			return fmt.Errorf("issuer or jwks_url is required for the jwks auth provider")
		}
	default:
		return fmt.Errorf("unsupported auth provider: %s", c.Auth.Provider)
	}

	switch c.Auth.Directory {
	case DirectoryClerk:
		if c.Auth.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY is required for the clerk user directory")
		}
	case DirectoryCognito:
		if c.Auth.CognitoPoolID == "" {
			return fmt.Errorf("cognito_pool_id is required for the cognito user directory")
		}
	case DirectoryNone:
	default:
		return fmt.Errorf("unsupported user directory: %s", c.Auth.Directory)
	}

	for name, policy := range map[string]string{
		"missing_email_policy":       c.Auth.MissingEmailPolicy,
		"check_missing_email_policy": c.Auth.CheckMissingEmailPolicy,
	} {
		if policy != MissingEmailForbidden && policy != MissingEmailNonAdmin {
			return fmt.Errorf("%s must be %q or %q, got %q", name, MissingEmailForbidden, MissingEmailNonAdmin, policy)
		}
	}

	if c.Email.Enabled {
		if c.Email.Region == "" || c.Email.Sender == "" {
			return fmt.Errorf("email region and sender are required when email is enabled")
		}
		if (c.Email.AccessKeyID == "") != (c.Email.SecretAccessKey == "") {
			return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
	}

	for name, expr := range map[string]string{
		"jobs.analytics_retention":  c.Jobs.AnalyticsRetention,
		"jobs.availability_cleanup": c.Jobs.AvailabilityCleanup,
	} {
		if _, err := cron.ParseStandard(strings.TrimSpace(expr)); err != nil {
			return fmt.Errorf("%s: invalid cron expression %q: %w", name, expr, err)
		}
	}

	return nil
}
