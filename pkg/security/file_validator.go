package security

import (
	"mime"
	"sort"
	"strings"
)

// Rejection reasons shown to the caller verbatim
const (
	ReasonInvalidFileType = "invalid file type"
	ReasonFileTooLarge    = "file too large"
	ReasonMalwareDetected = "file failed security scan"
)

// MaxResumeBytes is the default resume size ceiling (5 MiB)
const MaxResumeBytes int64 = 5 * 1024 * 1024

// FileValidationResult contains the result of file validation
type FileValidationResult struct {
	Valid    bool   // Whether the file passed all validation checks
	MIMEType string // Normalized declared MIME type
	Error    string // Rejection reason if validation failed
}

// Accepted resume MIME types - PDF and Word documents only
var resumeMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// CheckResume decides whether an upload may be accepted as a resume.
// mimeType is the Content-Type the client declared for the file part.
// maxBytes <= 0 falls back to MaxResumeBytes.
func CheckResume(mimeType string, size, maxBytes int64) FileValidationResult {
	if maxBytes <= 0 {
		maxBytes = MaxResumeBytes
	}

	result := FileValidationResult{MIMEType: normalizeMIME(mimeType)}

	if !resumeMIMETypes[result.MIMEType] {
		result.Error = ReasonInvalidFileType
		return result
	}

	if size > maxBytes {
		result.Error = ReasonFileTooLarge
		return result
	}

	result.Valid = true
	return result
}

// AllowedResumeTypes returns the accepted MIME types, sorted
func AllowedResumeTypes() []string {
	types := make([]string, 0, len(resumeMIMETypes))
	for t := range resumeMIMETypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// normalizeMIME drops parameters and case so "Application/PDF; name=cv.pdf" matches
func normalizeMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
