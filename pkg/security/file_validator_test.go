package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckResume(t *testing.T) {
	const docx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	tests := []struct {
		name     string
		mimeType string
		size     int64
		maxBytes int64
		valid    bool
		reason   string
	}{
		{name: "pdf", mimeType: "application/pdf", size: 1 << 20, valid: true},
		{name: "doc", mimeType: "application/msword", size: 10, valid: true},
		{name: "docx", mimeType: docx, size: 10, valid: true},
		{name: "declared with params", mimeType: "Application/PDF; name=cv.pdf", size: 10, valid: true},
		{name: "exactly at limit", mimeType: "application/pdf", size: MaxResumeBytes, valid: true},
		{name: "one byte over", mimeType: "application/pdf", size: MaxResumeBytes + 1, reason: ReasonFileTooLarge},
		{name: "ten MiB", mimeType: "application/pdf", size: 10 << 20, reason: ReasonFileTooLarge},
		{name: "custom limit", mimeType: "application/pdf", size: 2048, maxBytes: 1024, reason: ReasonFileTooLarge},
		{name: "image", mimeType: "image/png", size: 10, reason: ReasonInvalidFileType},
		{name: "octet stream", mimeType: "application/octet-stream", size: 10, reason: ReasonInvalidFileType},
		{name: "empty", mimeType: "", size: 10, reason: ReasonInvalidFileType},
		{name: "type checked before size", mimeType: "text/plain", size: 10 << 20, reason: ReasonInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckResume(tt.mimeType, tt.size, tt.maxBytes)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.reason, result.Error)
		})
	}
}

func TestAllowedResumeTypes(t *testing.T) {
	assert.Equal(t, []string{
		"application/msword",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}, AllowedResumeTypes())
}

func TestRejectionReasonsAreStable(t *testing.T) {
	assert.Equal(t, "invalid file type", ReasonInvalidFileType)
	assert.Equal(t, "file too large", ReasonFileTooLarge)
}
