package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CREWCAL_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.JWTIssuer != "crewcal" {
		t.Fatalf("expected default issuer, got %q", cfg.JWTIssuer)
	}
	if cfg.JWTTTL != time.Hour {
		t.Fatalf("expected 60m token TTL, got %v", cfg.JWTTTL)
	}
	if cfg.InviteTTL != 168*time.Hour {
		t.Fatalf("expected 7 day invite TTL, got %v", cfg.InviteTTL)
	}
	if cfg.SMTPEnabled() {
		t.Fatal("SMTP should be disabled without a host")
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("CREWCAL_JWT_SECRET", "test-secret")
	t.Setenv("CREWCAL_HTTP_PORT", "9999")
	t.Setenv("CREWCAL_INVITE_TTL", "48h")
	t.Setenv("CREWCAL_SMTP_HOST", "smtp.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9999 {
		t.Fatalf("expected port override, got %d", cfg.HTTPPort)
	}
	if cfg.InviteTTL != 48*time.Hour {
		t.Fatalf("expected invite TTL override, got %v", cfg.InviteTTL)
	}
	if !cfg.SMTPEnabled() {
		t.Fatal("SMTP should be enabled with a host")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	// t.Setenv registers the cleanup; unsetting afterwards leaves the
	// variable genuinely absent for the Load call.
	t.Setenv("CREWCAL_JWT_SECRET", "placeholder")
	os.Unsetenv("CREWCAL_JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without a JWT secret")
	}
}
