package domain

import "context"

// EmailMessage is a fully composed email ready for dispatch
type EmailMessage struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a binary file attached to an EmailMessage
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// DispatchResult is the classified outcome of handing a message to the provider.
// Exactly one of ProviderMessageID or Cause is set.
type DispatchResult struct {
	ProviderMessageID string
	Cause             error
}

// Sent reports whether the provider accepted the message
func (r DispatchResult) Sent() bool {
	return r.Cause == nil
}

// Dispatcher hands composed messages to the email provider
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *EmailMessage) DispatchResult
}
