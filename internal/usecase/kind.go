package usecase

import (
	"text/template"

	"go-form-mailer/internal/domain"
)

// KindDescriptor parameterizes the submission pipeline for one kind of form
type KindDescriptor struct {
	Kind           domain.Kind
	Recipient      string
	Subject        *template.Template
	Body           *template.Template
	SuccessMessage string
	FailureMessage string // generic message for storage and dispatch failures
}

// view returns the template data for a submission
func (d KindDescriptor) view(sub domain.Submission) any {
	if career, ok := sub.(*domain.CareerSubmission); ok {
		return newCareerView(career)
	}
	return sub
}
