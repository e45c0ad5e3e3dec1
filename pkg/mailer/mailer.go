// Package mailer is a thin SMTP wrapper. Callers treat send failures as
// non-fatal: an order or payment mutation is already committed by the time
// any mail goes out.
package mailer

import (
	"fmt"
	"net/smtp"

	"cakery_api/internal/pkg/config"
)

// Mailer sends plain-text email.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

// NewMailer builds a Mailer from the global SMTP configuration.
func NewMailer() Mailer {
	return &smtpMailer{cfg: config.GlobalConfig.SMTP}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	if m.cfg.Address == "" || to == "" {
		return fmt.Errorf("mail not configured or recipient empty")
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.FromEmail, to, subject, body,
	)

	auth := smtp.PlainAuth("", m.cfg.FromEmail, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(m.cfg.Address, auth, m.cfg.FromEmail, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
