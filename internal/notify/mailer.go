package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/kurochkinivan/partner_intake/internal/config"
	"github.com/kurochkinivan/partner_intake/internal/domain"
)

// Mailer sends the submission confirmation email over SMTP. With mail
// disabled it only logs, which keeps the ingestion path identical in
// both deployments.
type Mailer struct {
	log *slog.Logger
	cfg config.Mail
}

func NewMailer(log *slog.Logger, cfg config.Mail) *Mailer {
	return &Mailer{
		log: log,
		cfg: cfg,
	}
}

func (m *Mailer) SendConfirmation(ctx context.Context, submission *domain.Submission) error {
	subject := "We received your application"
	body := fmt.Sprintf(
		"Hello %s %s,\r\n\r\n"+
			"your application has been received and is being reviewed.\r\n"+
			"Reference: %s\r\n",
		submission.FirstName, submission.LastName, submission.ID,
	)

	if !m.cfg.Enabled {
		m.log.InfoContext(ctx, "mail disabled, skipping confirmation",
			slog.String("to", submission.Email),
			slog.String("submission_id", submission.ID.String()),
		)
		return nil
	}

	if m.cfg.Host == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return fmt.Errorf("smtp is not configured")
	}

	message := fmt.Appendf(nil,
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, submission.Email, subject, body,
	)

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{submission.Email}, message); err != nil {
		return fmt.Errorf("failed to send mail to %q: %w", submission.Email, err)
	}

	m.log.InfoContext(ctx, "confirmation email sent",
		slog.String("to", submission.Email),
		slog.String("submission_id", submission.ID.String()),
	)

	return nil
}
