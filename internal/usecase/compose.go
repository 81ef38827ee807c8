package usecase

import (
	"bytes"
	"fmt"

	"go-form-mailer/internal/domain"
)

// replyTo returns the submitter's address so recipients can answer directly
func replyTo(sub domain.Submission) string {
	switch s := sub.(type) {
	case *domain.ContactSubmission:
		return s.Email
	case *domain.CareerSubmission:
		return s.Email
	}
	return ""
}

// Compose builds the outgoing message for a validated submission.
// attachments are the already-read upload bytes, in order.
func Compose(from string, desc KindDescriptor, sub domain.Submission, attachments []domain.Attachment) (*domain.EmailMessage, error) {
	data := desc.view(sub)

	var subject bytes.Buffer
	if err := desc.Subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("failed to execute %s subject template: %w", desc.Kind, err)
	}

	var body bytes.Buffer
	if err := desc.Body.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute %s body template: %w", desc.Kind, err)
	}

	return &domain.EmailMessage{
		From:        from,
		To:          []string{desc.Recipient},
		ReplyTo:     replyTo(sub),
		Subject:     subject.String(),
		HTMLBody:    body.String(),
		Attachments: attachments,
	}, nil
}
