package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-form-mailer/internal/domain"
	"go-form-mailer/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRateLimiterInMemory(t *testing.T) {
	limited := 0
	rl := NewRateLimiter(SubmitRateLimitConfig(2, time.Minute), nil).OnLimited(func(string) { limited++ })

	r := gin.New()
	r.POST("/send-email", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/send-email", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	w := send("10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 1, limited)

	// other clients have their own window
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(SubmitRateLimitConfig(1, time.Minute), nil)
	now := time.Now()

	count, _ := rl.checkInMemory("k", now)
	assert.Equal(t, 1, count)
	count, _ = rl.checkInMemory("k", now.Add(time.Second))
	assert.Equal(t, 2, count)
	count, _ = rl.checkInMemory("k", now.Add(2*time.Minute))
	assert.Equal(t, 1, count)
}

func TestRateLimiterSkipsSweptEntry(t *testing.T) {
	rl := NewRateLimiter(SubmitRateLimitConfig(5, time.Minute), nil)
	now := time.Now()
	rl.nextSweep = now.Add(time.Hour)

	// An entry swept after another request loaded it must not absorb that request's count
	stale := &rateLimitEntry{count: 3, resetAt: now.Add(time.Minute), removed: true}
	rl.entries.Store("k", stale)

	count, _ := rl.checkInMemory("k", now)
	assert.Equal(t, 1, count)
	assert.Equal(t, 3, stale.count)

	current, ok := rl.entries.Load("k")
	require.True(t, ok)
	assert.NotSame(t, stale, current)

	count, _ = rl.checkInMemory("k", now.Add(time.Second))
	assert.Equal(t, 2, count)
}

func TestRateLimiterSweepMarksExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(SubmitRateLimitConfig(5, time.Minute), nil)
	now := time.Now()

	rl.checkInMemory("k", now)
	loaded, _ := rl.entries.Load("k")
	entry := loaded.(*rateLimitEntry)

	rl.sweep(now.Add(2 * time.Minute))

	assert.True(t, entry.removed)
	_, ok := rl.entries.Load("k")
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = domain.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, seen)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/validation", func(c *gin.Context) { _ = c.Error(apperror.Validation("file too large")) })
	r.GET("/dispatch", func(c *gin.Context) {
		_ = c.Error(apperror.Dispatch("Failed to send email", errors.New("resend: 500 upstream secret detail")))
	})
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })

	tests := []struct {
		path    string
		code    int
		message string
	}{
		{"/validation", http.StatusBadRequest, "file too large"},
		{"/dispatch", http.StatusInternalServerError, "Failed to send email"},
		{"/plain", http.StatusInternalServerError, "An unexpected error occurred. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.code, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, w.Body.String(), "secret")
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	// Origins must differ from the request host (example.com), which cors treats as same-origin
	preflight := func(r *gin.Engine, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/send-email", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should allow a listed origin", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware([]string{"https://site.example"}))
		r.POST("/send-email", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := preflight(r, "https://site.example")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://site.example", w.Header().Get("Access-Control-Allow-Origin"))

		req := httptest.NewRequest(http.MethodPost, "/send-email", nil)
		req.Header.Set("Origin", "https://evil.example")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Should allow any origin with a wildcard", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware([]string{"*"}))
		r.POST("/send-email", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := preflight(r, "https://site.example")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}
