// Package mailer sends transactional e-mail.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/eventhub/backend/config"
)

// Mailer sends one HTML e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Resend delivers mail through the Resend API.
type Resend struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResend creates a Resend-backed mailer.
func NewResend(apiKey, from string, logger *zap.Logger) *Resend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resend{client: resend.NewClient(apiKey), from: from, logger: logger}
}

// WithBaseURL points the client at another API host.
func (m *Resend) WithBaseURL(u *url.URL) *Resend {
	m.client.BaseURL = u
	return m
}

// Send sends an e-mail. Rate-limit rejections are reported, not retried here.
func (m *Resend) Send(ctx context.Context, to, subject, htmlBody string) error {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.logger.Warn("resend rate limit exceeded",
				zap.String("limit", rateLimitErr.Limit),
				zap.String("remaining", rateLimitErr.Remaining),
				zap.String("reset", rateLimitErr.Reset))
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}
	m.logger.Info("email sent via Resend", zap.String("email_id", sent.Id), zap.String("to", to))
	return nil
}

// Log writes mails to the logger instead of sending them. Used when e-mail is disabled.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging mailer.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send logs the recipient and subject.
func (m *Log) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("email delivery disabled, dropping mail", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// FromConfig returns a Resend mailer when e-mail is enabled, a logging one otherwise.
func FromConfig(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled {
		return NewLog(logger)
	}
	return NewResend(cfg.ResendAPIKey, cfg.From, logger)
}
