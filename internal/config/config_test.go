package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const baseYAML = `
app:
  name: Clubhouse
  port: 8080
database:
  driver: sqlite
  filename: data/club.db
`

func envFrom(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(baseYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("expected development environment, got %q", cfg.App.Environment)
	}
	if cfg.Auth.Provider != AuthProviderClerk {
		t.Errorf("expected clerk provider, got %q", cfg.Auth.Provider)
	}
	if cfg.Auth.Directory != DirectoryClerk {
		t.Errorf("expected clerk directory, got %q", cfg.Auth.Directory)
	}
	if cfg.Auth.VerifyTimeout != 5*time.Second {
		t.Errorf("expected 5s verify timeout, got %v", cfg.Auth.VerifyTimeout)
	}
	if cfg.Auth.MissingEmailPolicy != MissingEmailForbidden {
		t.Errorf("expected forbidden policy for admin routes, got %q", cfg.Auth.MissingEmailPolicy)
	}
	if cfg.Auth.CheckMissingEmailPolicy != MissingEmailNonAdmin {
		t.Errorf("expected nonAdmin policy for check route, got %q", cfg.Auth.CheckMissingEmailPolicy)
	}
}

func TestParseJWKSDefaultsToNoDirectory(t *testing.T) {
	cfg, err := Parse([]byte(baseYAML + `
auth:
  provider: jwks
  issuer: https://issuer.example.com
  verify_timeout: 2s
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Auth.Directory != DirectoryNone {
		t.Fatalf("expected no directory for jwks provider, got %q", cfg.Auth.Directory)
	}
	if cfg.Auth.VerifyTimeout != 2*time.Second {
		t.Fatalf("expected 2s verify timeout, got %v", cfg.Auth.VerifyTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestApplyEnvLoadsSecretsAndAllowLists(t *testing.T) {
	cfg, err := Parse([]byte(baseYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg.ApplyEnv(envFrom(map[string]string{
		"CLERK_SECRET_KEY": "sk_test_xxx",
		"ADMIN_EMAILS":     "a@b.com, c@d.com",
		"ADMIN_UIDS":       "user_1",
	}))

	if cfg.Auth.ClerkSecretKey != "sk_test_xxx" {
		t.Errorf("expected clerk key from env, got %q", cfg.Auth.ClerkSecretKey)
	}
	if cfg.Auth.AdminEmails != "a@b.com, c@d.com" {
		t.Errorf("unexpected admin emails: %q", cfg.Auth.AdminEmails)
	}
	if cfg.Auth.AdminUIDs != "user_1" {
		t.Errorf("unexpected admin uids: %q", cfg.Auth.AdminUIDs)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "clerk provider requires secret key",
			wantErr: "CLERK_SECRET_KEY",
		},
		{
			name:    "unknown provider",
			extra:   "auth:\n  provider: saml\n",
			wantErr: "unsupported auth provider",
		},
		{
			name:    "cognito directory requires pool id",
			extra:   "auth:\n  directory: cognito\n",
			env:     map[string]string{"CLERK_SECRET_KEY": "sk"},
			wantErr: "cognito_pool_id",
		},
		{
			name:    "bad missing email policy",
			extra:   "auth:\n  missing_email_policy: deny\n",
			env:     map[string]string{"CLERK_SECRET_KEY": "sk"},
			wantErr: "missing_email_policy",
		},
		{
			name:    "email requires region",
			extra:   "email:\n  enabled: true\n  sender: club@example.com\n",
			env:     map[string]string{"CLERK_SECRET_KEY": "sk"},
			wantErr: "email region",
		},
		{
			name:    "partial AWS credentials",
			extra:   "email:\n  enabled: true\n  region: ap-southeast-2\n  sender: club@example.com\n",
			env:     map[string]string{"CLERK_SECRET_KEY": "sk", "AWS_ACCESS_KEY_ID": "AKIA"},
			wantErr: "must be set together",
		},
		{
			name:  "email uses default credential chain",
			extra: "email:\n  enabled: true\n  region: ap-southeast-2\n  sender: club@example.com\n",
			env:   map[string]string{"CLERK_SECRET_KEY": "sk"},
		},
		{
			name:    "invalid cron expression",
			extra:   "jobs:\n  analytics_retention: every day\n",
			env:     map[string]string{"CLERK_SECRET_KEY": "sk"},
			wantErr: "jobs.analytics_retention",
		},
		{
			name: "valid",
			env:  map[string]string{"CLERK_SECRET_KEY": "sk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(baseYAML + tt.extra))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			cfg.ApplyEnv(envFrom(tt.env))

			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(baseYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CLERK_SECRET_KEY", "sk_test_load")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Name != "Clubhouse" {
		t.Fatalf("unexpected app name %q", cfg.App.Name)
	}
	if cfg.Auth.ClerkSecretKey != "sk_test_load" {
		t.Fatalf("expected secret key from env, got %q", cfg.Auth.ClerkSecretKey)
	}
}
