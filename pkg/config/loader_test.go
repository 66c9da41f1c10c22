package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Session.Backend != "file" {
		t.Errorf("expected default session backend 'file', got '%s'", cfg.Session.Backend)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
}

func TestLoad_SMTPCredentialsFromEnv(t *testing.T) {
	// Arrange
	t.Setenv("SMTP_USERNAME", "ops")
	t.Setenv("SMTP_PASSWORD", "relay-secret")
	t.Setenv("SMTP_USE_TLS", "true")

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	email := cfg.Notification.Email
	if email.SMTPUsername != "ops" {
		t.Errorf("expected SMTP username 'ops', got '%s'", email.SMTPUsername)
	}
	if email.SMTPPassword != "relay-secret" {
		t.Errorf("expected SMTP password 'relay-secret', got '%s'", email.SMTPPassword)
	}
	if !email.SMTPUseTLS {
		t.Error("expected SMTP TLS enabled")
	}
}
