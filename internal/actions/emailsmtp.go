package actions

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

// sendEmailSMTP delivers a plain-text notification over SMTP using
// STARTTLS/implicit-TLS as configured. It is the one effector with no
// idiomatic third-party client in the surrounding stack, so it is built
// directly on the standard library's net/smtp.
func (d *Dispatcher) sendEmailSMTP(cfg config.ActionConfig, action prompt.RequestedAction, agentName string) error {
	if cfg.Host == "" || cfg.Port == 0 || cfg.User == "" {
		return fmt.Errorf("email-smtp: host, port, and user are required")
	}

	password := os.Getenv("SMTP_PASSWORD")
	if password == "" {
		return fmt.Errorf("email-smtp: SMTP_PASSWORD is not set")
	}

	recipients := action.Recipients
	if len(recipients) == 0 {
		recipients = cfg.DefaultRecipients
	}
	if len(recipients) == 0 {
		return fmt.Errorf("email-smtp: no recipients configured")
	}

	subject := fmt.Sprintf("%s %s", severityEmoji(action.Severity), action.Title)
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", cfg.User)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(action.Message)
	msg.WriteString(fmt.Sprintf("\r\n\n-- \n%s\n", agentName))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.User, password, cfg.Host)

	if cfg.Secure {
		if err := sendMailImplicitTLS(addr, cfg.Host, auth, cfg.User, recipients, []byte(msg.String())); err != nil {
			return fmt.Errorf("email-smtp: send failed: %w", err)
		}
		return nil
	}

	if err := smtp.SendMail(addr, auth, cfg.User, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("email-smtp: send failed: %w", err)
	}
	return nil
}

// sendMailImplicitTLS delivers over a connection that is TLS from the
// first byte (the common "secure" SMTP submission mode on port 465),
// since net/smtp.SendMail only supports opportunistic STARTTLS.
func sendMailImplicitTLS(addr, host string, auth smtp.Auth, from string, to []string, body []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}
