package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-form-mailer/config"
	"go-form-mailer/internal/domain"
	"go-form-mailer/pkg/logger"

	"github.com/resend/resend-go/v3"
)

// ErrNotConfigured is the dispatch cause when no Resend API key was provided
var ErrNotConfigured = errors.New("email service is not configured")

// EmailsAPI is the part of the Resend client the service uses
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailService dispatches composed messages through the Resend API
type EmailService struct {
	emails     EmailsAPI
	configured bool
}

var _ domain.Dispatcher = (*EmailService)(nil) // Compile-time interface check

// NewEmailService creates a Resend-backed email service from configuration
func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		emails:     client.Emails,
		configured: cfg.ResendAPIKey != "",
	}
}

// NewEmailServiceWithAPI wraps an existing Resend emails API; emails must be non-nil
func NewEmailServiceWithAPI(emails EmailsAPI) *EmailService {
	return &EmailService{emails: emails, configured: true}
}

// IsConfigured checks if the email service has a Resend API key
func (s *EmailService) IsConfigured() bool {
	return s.configured
}

// Dispatch makes a single blocking send call. There is no retry: a failure is final for the request.
func (s *EmailService) Dispatch(ctx context.Context, msg *domain.EmailMessage) domain.DispatchResult {
	if !s.IsConfigured() {
		return domain.DispatchResult{Cause: ErrNotConfigured}
	}

	start := time.Now()
	sent, err := s.emails.SendWithContext(ctx, toSendRequest(msg))
	if err != nil {
		logger.Log.Error("Email dispatch failed",
			"request_id", domain.RequestIDFrom(ctx),
			"to", msg.To,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return domain.DispatchResult{Cause: fmt.Errorf("resend: failed to send email: %w", err)}
	}

	id := ""
	if sent != nil {
		id = sent.Id
	}
	logger.Log.Info("Email dispatched",
		"request_id", domain.RequestIDFrom(ctx),
		"provider_message_id", id,
		"to", msg.To,
		"attachments", len(msg.Attachments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return domain.DispatchResult{ProviderMessageID: id}
}

func toSendRequest(msg *domain.EmailMessage) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		ReplyTo: msg.ReplyTo,
	}

	if len(msg.Attachments) > 0 {
		req.Attachments = make([]*resend.Attachment, len(msg.Attachments))
		for i, a := range msg.Attachments {
			req.Attachments[i] = &resend.Attachment{
				Filename:    a.Filename,
				Content:     a.Content, // marshalled by resend-go as a JSON array of byte values
				ContentType: a.ContentType,
			}
		}
	}

	return req
}
