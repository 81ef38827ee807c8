package response

import (
	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is the envelope returned by the health check
type HealthResponse struct {
	Response
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// Success sends a success response
func Success(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Success: true,
		Message: message,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Success: false,
		Message: message,
	})
}
