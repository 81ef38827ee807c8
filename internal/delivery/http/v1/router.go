package v1

import (
	"net/http"

	"go-form-mailer/config"
	"go-form-mailer/internal/delivery/http/middleware"
	"go-form-mailer/internal/delivery/http/response"
	"go-form-mailer/internal/domain"
	"go-form-mailer/internal/health"
	"go-form-mailer/internal/metrics"
	"go-form-mailer/internal/usecase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	SubmissionUC domain.SubmissionUsecase
	HealthUC     usecase.HealthUsecase
	Files        domain.FileStore
	RateLimiter  *middleware.RateLimiter // nil disables rate limiting
	Metrics      *metrics.Metrics        // nil disables /metrics
	Probes       *health.Checker         // nil disables /live and /ready
	Config       *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.AllowedOrigins)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.Use(middleware.ErrorHandler())

	// Health Check
	r.GET("/", HealthCheck(deps.HealthUC))
	if deps.Probes != nil {
		r.GET("/live", gin.WrapF(deps.Probes.LiveEndpoint))
		r.GET("/ready", gin.WrapF(deps.Probes.ReadyEndpoint))
	}

	// Public form routes
	handlerDeps := SubmissionHandlerDeps{
		SubmissionUC:   deps.SubmissionUC,
		Files:          deps.Files,
		MaxResumeBytes: deps.Config.MaxResumeBytes,
	}
	if deps.RateLimiter != nil {
		handlerDeps.RateLimit = deps.RateLimiter.Middleware()
	}
	if deps.Metrics != nil {
		handlerDeps.ObserveResume = deps.Metrics.ObserveResume
	}
	NewSubmissionHandler(r.Group(""), handlerDeps)

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Reports service status and the available submission endpoints.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.HealthResponse
// @Router       / [get]
func HealthCheck(healthUC usecase.HealthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := healthUC.Check(c.Request.Context())
		c.JSON(http.StatusOK, response.HealthResponse{
			Response:  response.Response{Success: true, Message: "Form mailer is running"},
			Status:    status.Status,
			Endpoints: status.Endpoints,
		})
	}
}
