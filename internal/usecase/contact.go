package usecase

import (
	"text/template"

	"go-form-mailer/internal/domain"
)

// Fields are interpolated without HTML escaping; markup in a submission reaches the recipient as-is.
const contactBodyTemplate = `<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>`

// ContactKind describes the contact form flow, delivered to the contact inbox
func ContactKind(recipient string) KindDescriptor {
	return KindDescriptor{
		Kind:           domain.KindContact,
		Recipient:      recipient,
		Subject:        template.Must(template.New("contact_subject").Parse(`New Contact Form Submission from {{.Name}}`)),
		Body:           template.Must(template.New("contact_body").Parse(contactBodyTemplate)),
		SuccessMessage: "Email sent successfully",
		FailureMessage: "Failed to send email",
	}
}
