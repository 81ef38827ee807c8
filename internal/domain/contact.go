package domain

// ContactSubmission represents a contact form submission
type ContactSubmission struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (s *ContactSubmission) Kind() Kind { return KindContact }

// Attachment is always nil; contact messages carry no file
func (s *ContactSubmission) Attachment() *UploadedFile { return nil }
