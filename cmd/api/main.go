package main

import (
	"context"
	"errors"
	"go-form-mailer/config"
	_ "go-form-mailer/docs" // Important for Swagger
	"go-form-mailer/internal/delivery/http/middleware"
	v1 "go-form-mailer/internal/delivery/http/v1"
	"go-form-mailer/internal/health"
	"go-form-mailer/internal/metrics"
	"go-form-mailer/internal/usecase"
	"go-form-mailer/pkg/email"
	"go-form-mailer/pkg/logger"
	"go-form-mailer/pkg/redis"
	"go-form-mailer/pkg/security/antivirus"
	"go-form-mailer/pkg/storage"
	"go-form-mailer/pkg/validation"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// staleUploadAge is how old a scratch file must be before a sweep removes it
const staleUploadAge = time.Hour

// @title           Form Mailer API
// @version         1.0
// @description     Relays contact and career form submissions as email through Resend.
// @host            localhost:3000
// @BasePath        /
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting form mailer", "port", cfg.Port)

	// 3. Setup Scratch Storage
	files, err := storage.NewTransientStore(cfg.UploadDir)
	if err != nil {
		logger.Log.Error("Failed to open upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}
	sweepUploads(files)

	// 4. Setup Email Service
	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not configured - submissions will fail at dispatch")
	}

	// 5. Setup Metrics, Probes and optional backends
	m := metrics.NewMetrics()
	probes := health.NewChecker()
	probes.AddReadiness("scratch-dir", health.ScratchDirCheck(files.Dir()))
	probes.AddReadiness("email", health.EmailCheck(emailService.IsConfigured()))

	scanner := newScanner(cfg)
	if scanner != nil {
		probes.AddReadiness("antivirus", health.ScannerCheck(scanner))
	}

	redisClient := connectRedis(cfg)
	if redisClient != nil {
		probes.AddReadiness("redis", health.RedisCheck(redisClient))
	}

	// 6. Setup UseCases
	submissionUC := usecase.NewSubmissionUsecase(usecase.SubmissionDeps{
		Files:      files,
		Dispatcher: emailService,
		Validator:  validation.New(),
		From:       cfg.MailFrom,
		Kinds: []usecase.KindDescriptor{
			usecase.ContactKind(cfg.ContactEmailTo),
			usecase.CareerKind(cfg.CareerEmailTo),
		},
		Scanner:  scanner,
		Observer: m,
	})
	healthUC := usecase.NewHealthUsecase()

	// 7. Setup Rate Limiter (Redis when available, in-memory otherwise)
	limiter := middleware.NewRateLimiter(
		middleware.SubmitRateLimitConfig(cfg.RateLimitSubmitThreshold, time.Duration(cfg.RateLimitWindowSeconds)*time.Second),
		redisClient,
	).OnLimited(m.ObserveRateLimited)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		SubmissionUC: submissionUC,
		HealthUC:     healthUC,
		Files:        files,
		RateLimiter:  limiter,
		Metrics:      m,
		Probes:       probes,
		Config:       cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			return err
		}
		return nil
	})

	// Periodic sweep of uploads orphaned by crashed requests
	group.Go(func() error {
		ticker := time.NewTicker(staleUploadAge)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				sweepUploads(files)
			}
		}
	})

	// Graceful Shutdown
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Server forced to shutdown", "error", err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Log.Warn("Failed to close Redis", "error", err)
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Log.Info("Server exiting")
}

func sweepUploads(files *storage.TransientStore) {
	removed, err := files.Sweep(staleUploadAge)
	if err != nil {
		logger.Log.Warn("Stale upload sweep failed", "dir", files.Dir(), "error", err)
		return
	}
	if removed > 0 {
		logger.Log.Info("Removed stale uploads", "count", removed, "dir", files.Dir())
	}
}

// newScanner returns a ClamAV scanner when CLAMAV_ADDRESS is set, nil otherwise
func newScanner(cfg *config.Config) antivirus.Scanner {
	if cfg.ClamAVAddress == "" {
		logger.Log.Info("Malware scanning disabled (CLAMAV_ADDRESS not set)")
		return nil
	}

	scanner := antivirus.NewClamAVScanner(cfg.ClamAVAddress, time.Duration(cfg.ClamAVTimeoutSeconds)*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !scanner.Available(ctx) {
		// Scans still run and fail closed until clamd comes up
		logger.Log.Warn("ClamAV not reachable at startup", "address", cfg.ClamAVAddress)
	}
	return scanner
}

// connectRedis returns nil when Redis is not configured or unreachable
func connectRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redis.Connect(ctx, redis.Config{
		URL:      cfg.UpstashRedisURL,
		Password: cfg.UpstashRedisPassword,
	})
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		return nil
	case err != nil:
		logger.Log.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
		return nil
	}
	logger.Log.Info("Connected to Redis for rate limiting")
	return client
}
