package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOKOWEAR_APP_ENV", "dev")
	t.Setenv("SOKOWEAR_JWT_SECRET", "test-secret")
	t.Setenv("SOKOWEAR_DB_DSN", "postgres://sokowear:pw@localhost:5432/sokowear?sslmode=disable")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.App.Port)
	}
	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Fatalf("env detection broken for %q", cfg.App.Env)
	}
	if cfg.Checkout.Currency != "KES" {
		t.Fatalf("expected default currency KES, got %q", cfg.Checkout.Currency)
	}

	rate, err := cfg.Checkout.TaxMultiplier()
	if err != nil {
		t.Fatalf("tax multiplier: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("1.08")) {
		t.Fatalf("expected 1.08 multiplier, got %s", rate)
	}
}

func TestLoadDerivesDSN(t *testing.T) {
	t.Setenv("SOKOWEAR_APP_ENV", "dev")
	t.Setenv("SOKOWEAR_JWT_SECRET", "test-secret")
	t.Setenv("SOKOWEAR_DB_HOST", "db.internal")
	t.Setenv("SOKOWEAR_DB_USER", "sokowear")
	t.Setenv("SOKOWEAR_DB_PASSWORD", "pw")
	t.Setenv("SOKOWEAR_DB_NAME", "sokowear")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DB.DSN == "" {
		t.Fatalf("expected DSN to be derived")
	}
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOKOWEAR_CHECKOUT_TAX_RATE", "0.08")

	if _, err := Load(); err == nil {
		t.Fatalf("expected sub-1 multiplier to be rejected")
	}
}
