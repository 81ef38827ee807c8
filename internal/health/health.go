package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go-form-mailer/pkg/security/antivirus"

	"github.com/heptiolabs/healthcheck"
	goredis "github.com/redis/go-redis/v9"
)

// checkTimeout bounds every individual probe
const checkTimeout = 2 * time.Second

// Checker serves liveness and readiness probes for the submission pipeline's dependencies
type Checker struct {
	health healthcheck.Handler
}

func NewChecker() *Checker {
	c := &Checker{health: healthcheck.NewHandler()}
	c.health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(10000))
	return c
}

// AddReadiness registers a dependency that must be healthy before traffic is accepted
func (c *Checker) AddReadiness(name string, check healthcheck.Check) {
	c.health.AddReadinessCheck(name, healthcheck.Timeout(check, checkTimeout))
}

func (c *Checker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	c.health.LiveEndpoint(w, r)
}

func (c *Checker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	c.health.ReadyEndpoint(w, r)
}

// ScratchDirCheck verifies uploads can still be written to dir
func ScratchDirCheck(dir string) healthcheck.Check {
	return func() error {
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return fmt.Errorf("scratch directory not writable: %w", err)
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// EmailCheck fails while no provider API key is configured
func EmailCheck(configured bool) healthcheck.Check {
	return func() error {
		if !configured {
			return errors.New("RESEND_API_KEY not configured")
		}
		return nil
	}
}

// RedisCheck pings the rate limit backend
func RedisCheck(client *goredis.Client) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// ScannerCheck verifies the malware scanner answers
func ScannerCheck(scanner antivirus.Scanner) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		if !scanner.Available(ctx) {
			return fmt.Errorf("%s scanner unavailable", scanner.Name())
		}
		return nil
	}
}
