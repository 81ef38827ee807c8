package domain

import (
	"context"
	"io"
)

// Kind names a submission flow
type Kind string

const (
	KindContact Kind = "contact"
	KindCareer  Kind = "career"
)

// Submission is one form-fill event to be relayed as email.
// Implemented by *ContactSubmission and *CareerSubmission.
type Submission interface {
	Kind() Kind
	// Attachment returns the stored upload owned by this submission, or nil
	Attachment() *UploadedFile
}

// UploadedFile is a blob received with a submission and written to transient storage.
// It is owned by the pipeline handling one request and must be released before the response.
type UploadedFile struct {
	OriginalName string
	MIMEType     string
	SizeBytes    int64
	StoragePath  string
}

// FileStore persists uploads for the lifetime of a single request
type FileStore interface {
	Store(ctx context.Context, blob io.Reader, originalName, mimeType string) (*UploadedFile, error)
	Read(file *UploadedFile) ([]byte, error)
	// Release deletes the stored file; it is safe to call more than once
	Release(file *UploadedFile) error
}

// SubmissionUsecase runs the submission pipeline
type SubmissionUsecase interface {
	// Submit validates, composes and dispatches the submission, releasing any
	// stored attachment before returning. The returned message is shown to the caller.
	Submit(ctx context.Context, sub Submission) (string, error)
}
