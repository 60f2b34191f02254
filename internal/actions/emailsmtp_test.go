package actions

import (
	"testing"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

func TestSendEmailSMTP_MissingPassword(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "")
	d := NewDispatcher(nil)
	cfg := config.ActionConfig{Host: "smtp.example.com", Port: 587, User: "alerts@example.com"}
	err := d.sendEmailSMTP(cfg, prompt.RequestedAction{Recipients: []string{"a@example.com"}}, "perf")
	if err == nil {
		t.Fatal("expected error when SMTP_PASSWORD is unset")
	}
}

func TestSendEmailSMTP_MissingConfig(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "secret")
	d := NewDispatcher(nil)
	err := d.sendEmailSMTP(config.ActionConfig{}, prompt.RequestedAction{}, "perf")
	if err == nil {
		t.Fatal("expected error when host/port/user are missing")
	}
}

func TestSendEmailSMTP_NoRecipients(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "secret")
	d := NewDispatcher(nil)
	cfg := config.ActionConfig{Host: "smtp.example.com", Port: 587, User: "alerts@example.com"}
	err := d.sendEmailSMTP(cfg, prompt.RequestedAction{}, "perf")
	if err == nil {
		t.Fatal("expected error when no recipients are available")
	}
}

func TestSendEmailSMTP_RecipientFallback(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "secret")
	d := NewDispatcher(nil)
	cfg := config.ActionConfig{
		Host: "smtp.invalid", Port: 587, User: "alerts@example.com",
		DefaultRecipients: []string{"default@example.com"},
	}
	// Action has no recipient override; defaults should be used, and the
	// attempt should fail only once it reaches the network (host is
	// unroutable), proving recipients were accepted rather than rejected
	// up front.
	err := d.sendEmailSMTP(cfg, prompt.RequestedAction{Title: "t", Message: "m"}, "perf")
	if err == nil {
		t.Fatal("expected network error dialing an invalid host")
	}
}
