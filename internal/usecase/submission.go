package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-form-mailer/internal/domain"
	"go-form-mailer/pkg/apperror"
	"go-form-mailer/pkg/logger"
	"go-form-mailer/pkg/security"
	"go-form-mailer/pkg/security/antivirus"
	"go-form-mailer/pkg/validation"
)

// Submission outcomes reported to the observer
const (
	OutcomeSent          = "sent"
	OutcomeRejected      = "rejected"
	OutcomeStorageError  = "storage_error"
	OutcomeDispatchError = "dispatch_error"
	OutcomeInternalError = "internal_error"
)

// SubmissionObserver receives pipeline measurements
type SubmissionObserver interface {
	ObserveSubmission(kind domain.Kind, outcome string, elapsed time.Duration)
	ObserveDispatch(kind domain.Kind, sent bool, elapsed time.Duration)
}

type SubmissionDeps struct {
	Files      domain.FileStore
	Dispatcher domain.Dispatcher
	Validator  *validation.Validator
	From       string
	Kinds      []KindDescriptor
	Scanner    antivirus.Scanner  // optional, attachments are not scanned when nil
	Observer   SubmissionObserver // optional
}

type submissionUsecase struct {
	files      domain.FileStore
	dispatcher domain.Dispatcher
	validator  *validation.Validator
	from       string
	kinds      map[domain.Kind]KindDescriptor
	scanner    antivirus.Scanner
	observer   SubmissionObserver
}

// NewSubmissionUsecase creates the submission pipeline shared by every form kind
func NewSubmissionUsecase(deps SubmissionDeps) domain.SubmissionUsecase {
	kinds := make(map[domain.Kind]KindDescriptor, len(deps.Kinds))
	for _, k := range deps.Kinds {
		kinds[k.Kind] = k
	}

	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	scanner := deps.Scanner
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}

	return &submissionUsecase{
		files:      deps.Files,
		dispatcher: deps.Dispatcher,
		validator:  deps.Validator,
		from:       deps.From,
		kinds:      kinds,
		scanner:    scanner,
		observer:   observer,
	}
}

// Submit runs validate -> read attachment -> scan -> compose -> dispatch. Any stored
// attachment is released on every return path, after dispatch and before the response.
func (uc *submissionUsecase) Submit(ctx context.Context, sub domain.Submission) (message string, err error) {
	start := time.Now()

	if file := sub.Attachment(); file != nil {
		defer uc.release(ctx, file)
	}

	desc, ok := uc.kinds[sub.Kind()]
	if !ok {
		return "", apperror.Internal(fmt.Errorf("no descriptor for submission kind %q", sub.Kind()))
	}

	defer func() {
		uc.observer.ObserveSubmission(desc.Kind, outcomeOf(err), time.Since(start))
	}()

	if err := uc.validator.Validate(sub); err != nil {
		var rejected *validation.RejectedError
		if errors.As(err, &rejected) {
			logger.Log.Warn("Submission rejected",
				"request_id", domain.RequestIDFrom(ctx),
				"kind", desc.Kind,
				"fields", rejected.Fields,
			)
			return "", apperror.Validation(rejected.Reason)
		}
		return "", apperror.New(http.StatusInternalServerError, desc.FailureMessage, err)
	}

	var attachments []domain.Attachment
	if file := sub.Attachment(); file != nil {
		data, err := uc.files.Read(file)
		if err != nil {
			return "", apperror.Storage(desc.FailureMessage, err)
		}
		if err := uc.scan(ctx, desc, file, data); err != nil {
			return "", err
		}
		attachments = append(attachments, domain.Attachment{
			Filename:    file.OriginalName,
			ContentType: file.MIMEType,
			Content:     data,
		})
	}

	msg, err := Compose(uc.from, desc, sub, attachments)
	if err != nil {
		return "", apperror.New(http.StatusInternalServerError, desc.FailureMessage, err)
	}

	dispatchStart := time.Now()
	result := uc.dispatcher.Dispatch(ctx, msg)
	uc.observer.ObserveDispatch(desc.Kind, result.Sent(), time.Since(dispatchStart))
	if !result.Sent() {
		return "", apperror.Dispatch(desc.FailureMessage, result.Cause)
	}

	return desc.SuccessMessage, nil
}

// scan rejects infected attachments with 400; a scanner failure is a 500 (fail closed)
func (uc *submissionUsecase) scan(ctx context.Context, desc KindDescriptor, file *domain.UploadedFile, data []byte) error {
	result := uc.scanner.Scan(ctx, file.OriginalName, bytes.NewReader(data))
	if result.Error != nil {
		return apperror.New(http.StatusInternalServerError, desc.FailureMessage,
			fmt.Errorf("%s scan of %q: %w", result.ScannerName, file.OriginalName, result.Error))
	}
	if result.Infected {
		logger.Log.Warn("Attachment rejected by malware scan",
			"request_id", domain.RequestIDFrom(ctx),
			"scanner", result.ScannerName,
			"threat", result.ThreatName,
			"file", file.OriginalName,
		)
		return apperror.Validation(security.ReasonMalwareDetected)
	}
	return nil
}

// release deletes the stored attachment; a failure here is logged and never escalated
func (uc *submissionUsecase) release(ctx context.Context, file *domain.UploadedFile) {
	if err := uc.files.Release(file); err != nil {
		logger.Log.Warn("Failed to release stored file",
			"request_id", domain.RequestIDFrom(ctx),
			"path", file.StoragePath,
			"error", err,
		)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSent
	}
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return OutcomeRejected
	case apperror.KindStorage:
		return OutcomeStorageError
	case apperror.KindDispatch:
		return OutcomeDispatchError
	default:
		return OutcomeInternalError
	}
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(domain.Kind, string, time.Duration) {}
func (nopObserver) ObserveDispatch(domain.Kind, bool, time.Duration)     {}
