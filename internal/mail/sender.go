// Package mail delivers confirmation codes to users out-of-band.
//
// The auth service depends on the Sender interface, not on SMTP: in tests
// a recording fake stands in, in development LogSender prints the code,
// and in production SMTPSender does the real delivery. This keeps the
// signup flow testable without a mail server.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/go-mail/mail/v2"
)

// Sender is the mail-delivery capability the authentication flow needs.
type Sender interface {
	// SendConfirmationCode delivers the code to the given address.
	// A non-nil error is surfaced to the signup caller, never swallowed.
	SendConfirmationCode(ctx context.Context, to, username, code string) error
}

// SMTPConfig configures the production sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. "ReviewDB <no-reply@reviewdb.example>"
}

// SMTPSender delivers confirmation codes over SMTP with mandatory STARTTLS.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTPSender from config.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("mail: SMTP host and from address are required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	d := gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = gomail.MandatoryStartTLS

	return &SMTPSender{dialer: d, from: cfg.From}, nil
}

// SendConfirmationCode composes and sends the confirmation-code message.
//
// The context is accepted for interface symmetry; go-mail's dialer has its
// own connection timeout and does not take a context.
func (s *SMTPSender) SendConfirmationCode(_ context.Context, to, username, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "ReviewDB confirmation code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour confirmation code: %s\n\nExchange it at POST /api/v1/auth/token within 24 hours.\n",
		username, code,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: sending confirmation code to %s: %w", to, err)
	}
	return nil
}

// LogSender writes the code to the log instead of sending anything.
// Used when SMTP is not configured, so local development still works —
// the code shows up in the server output.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendConfirmationCode(_ context.Context, to, username, code string) error {
	s.logger.Info("confirmation code issued (SMTP not configured)",
		slog.String("to", to),
		slog.String("username", username),
		slog.String("code", code),
	)
	return nil
}
