package usecase

import (
	"text/template"

	"go-form-mailer/internal/domain"
)

// Placeholders rendered for optional career fields left empty
const (
	ExperiencePlaceholder = "Not specified"
	MessagePlaceholder    = "N/A"
)

const careerBodyTemplate = `<h2>New Job Application</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Job Role:</strong> {{.JobRole}}</p>
<p><strong>Experience:</strong> {{.Experience}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
<p><em>Resume attached: {{.ResumeName}}</em></p>`

// CareerKind describes the job application flow, delivered to the HR inbox
func CareerKind(recipient string) KindDescriptor {
	return KindDescriptor{
		Kind:           domain.KindCareer,
		Recipient:      recipient,
		Subject:        template.Must(template.New("career_subject").Parse(`New Job Application: {{.JobRole}} - {{.Name}}`)),
		Body:           template.Must(template.New("career_body").Parse(careerBodyTemplate)),
		SuccessMessage: "Application submitted successfully",
		FailureMessage: "Failed to submit application",
	}
}

type careerView struct {
	Name       string
	Email      string
	Phone      string
	JobRole    string
	Experience string
	Message    string
	ResumeName string
}

func newCareerView(s *domain.CareerSubmission) careerView {
	v := careerView{
		Name:       s.Name,
		Email:      s.Email,
		Phone:      s.Phone,
		JobRole:    s.JobRole,
		Experience: s.Experience,
		Message:    s.Message,
	}
	if v.Experience == "" {
		v.Experience = ExperiencePlaceholder
	}
	if v.Message == "" {
		v.Message = MessagePlaceholder
	}
	if s.Resume != nil {
		v.ResumeName = s.Resume.OriginalName
	}
	return v
}
