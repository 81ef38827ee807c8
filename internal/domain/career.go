package domain

// CareerSubmission represents a job application with its resume.
// Experience and Message are optional and stay empty when not provided.
type CareerSubmission struct {
	Name       string        `form:"name" validate:"required"`
	Email      string        `form:"email" validate:"required"`
	Phone      string        `form:"phone" validate:"required"`
	JobRole    string        `form:"jobRole" validate:"required"`
	Experience string        `form:"experience"`
	Message    string        `form:"message"`
	Resume     *UploadedFile `form:"-" validate:"required"`
}

func (s *CareerSubmission) Kind() Kind { return KindCareer }

func (s *CareerSubmission) Attachment() *UploadedFile { return s.Resume }
