package v1

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go-form-mailer/internal/delivery/http/response"
	"go-form-mailer/internal/domain"
	"go-form-mailer/pkg/apperror"
	"go-form-mailer/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ResumeField is the multipart field carrying the resume file
const ResumeField = "resume"

// formOverheadBytes is the allowance for text fields and multipart framing on top of the resume limit
const formOverheadBytes = 1 << 20

type SubmissionHandler struct {
	submissionUC   domain.SubmissionUsecase
	files          domain.FileStore
	maxResumeBytes int64
	observeResume  func(sizeBytes int64)
}

type SubmissionHandlerDeps struct {
	SubmissionUC   domain.SubmissionUsecase
	Files          domain.FileStore
	MaxResumeBytes int64
	RateLimit      gin.HandlerFunc       // optional
	ObserveResume  func(sizeBytes int64) // optional
}

// NewSubmissionHandler registers the form routes (public, no auth required)
func NewSubmissionHandler(public *gin.RouterGroup, deps SubmissionHandlerDeps) {
	handler := &SubmissionHandler{
		submissionUC:   deps.SubmissionUC,
		files:          deps.Files,
		maxResumeBytes: deps.MaxResumeBytes,
		observeResume:  deps.ObserveResume,
	}
	if handler.maxResumeBytes <= 0 {
		handler.maxResumeBytes = security.MaxResumeBytes
	}
	if handler.observeResume == nil {
		handler.observeResume = func(int64) {}
	}

	forms := public.Group("")
	if deps.RateLimit != nil {
		forms.Use(deps.RateLimit)
	}
	forms.POST("/send-email", handler.SendEmail)
	forms.POST("/send-career-email", handler.SendCareerEmail)
}

// SendEmail godoc
// @Summary      Submit Contact Form
// @Description  Relays a contact message to the contact inbox. All fields are required.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactSubmission  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /send-email [post]
func (h *SubmissionHandler) SendEmail(c *gin.Context) {
	var req domain.ContactSubmission
	// An empty body is a submission with every field missing, not a malformed one
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	h.submit(c, &req)
}

// SendCareerEmail godoc
// @Summary      Submit Job Application
// @Description  Relays a job application with its resume (PDF, DOC or DOCX, max 5 MiB) to the HR inbox.
// @Tags         forms
// @Accept       multipart/form-data
// @Produce      json
// @Param        name        formData  string  true   "Applicant name"
// @Param        email       formData  string  true   "Applicant email"
// @Param        phone       formData  string  true   "Applicant phone"
// @Param        jobRole     formData  string  true   "Role applied for"
// @Param        experience  formData  string  false  "Experience (free text)"
// @Param        message     formData  string  false  "Cover message"
// @Param        resume      formData  file    true   "Resume file"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /send-career-email [post]
func (h *SubmissionHandler) SendCareerEmail(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxResumeBytes+formOverheadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			// No file can be present; let validation report the missing fields
			h.submit(c, &domain.CareerSubmission{})
		case isBodyTooLarge(err):
			_ = c.Error(apperror.Validation(security.ReasonFileTooLarge))
		default:
			_ = c.Error(apperror.BadRequest("Invalid form data"))
		}
		return
	}
	defer form.RemoveAll()

	var req domain.CareerSubmission
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid form data"))
		return
	}

	for field, headers := range form.File {
		if field != ResumeField || len(headers) > 1 {
			_ = c.Error(apperror.BadRequest("Only a single resume file is accepted"))
			return
		}
	}

	if headers := form.File[ResumeField]; len(headers) == 1 {
		fh := headers[0]
		check := security.CheckResume(fh.Header.Get("Content-Type"), fh.Size, h.maxResumeBytes)
		if !check.Valid {
			_ = c.Error(apperror.Validation(check.Error))
			return
		}

		src, err := fh.Open()
		if err != nil {
			_ = c.Error(apperror.Storage("Failed to submit application", err))
			return
		}
		stored, err := h.files.Store(c.Request.Context(), src, fh.Filename, check.MIMEType)
		src.Close()
		if err != nil {
			_ = c.Error(apperror.Storage("Failed to submit application", err))
			return
		}

		// From here the pipeline owns the file and releases it on every path
		h.observeResume(stored.SizeBytes)
		req.Resume = stored
	}

	h.submit(c, &req)
}

func (h *SubmissionHandler) submit(c *gin.Context, sub domain.Submission) {
	message, err := h.submissionUC.Submit(c.Request.Context(), sub)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, message)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
