// Package health runs periodic readiness probes against inference engine
// providers with a configurable interval and consecutive-failure threshold.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/callinsights/diarize/cmd/server/internal/engine"
)

// ProviderStatus is the current health state of one engine provider.
type ProviderStatus struct {
	// Provider is the engine implementation name.
	Provider string `json:"provider"`

	// IsHealthy indicates whether the provider passed recent checks.
	IsHealthy bool `json:"is_healthy"`

	// LastCheckTime records when the most recent probe ran.
	LastCheckTime time.Time `json:"last_check_time"`

	// ConsecutiveFails counts probes failed in a row; reset on success.
	ConsecutiveFails int `json:"consecutive_fails"`

	// ErrorMessage holds the last probe error, empty while healthy.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Checker probes a single engine.Provider on a fixed interval. A provider
// is marked unhealthy only after failThreshold consecutive failures so a
// single slow probe does not flap the health endpoint.
//
// All public methods are safe for concurrent use.
type Checker struct {
	provider      engine.Provider
	log           *slog.Logger
	mu            sync.RWMutex
	status        ProviderStatus
	checkInterval time.Duration
	failThreshold int
	stopOnce      sync.Once
	stopChan      chan struct{}
}

// NewChecker builds a checker for provider. The checker starts optimistic
// (healthy) until the first probe says otherwise; call Start to begin
// probing.
func NewChecker(provider engine.Provider, log *slog.Logger, checkInterval time.Duration, failThreshold int) *Checker {
	return &Checker{
		provider:      provider,
		log:           log,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		status: ProviderStatus{
			Provider:      provider.Name(),
			IsHealthy:     true,
			LastCheckTime: time.Now(),
		},
	}
}

// Start probes immediately, then on every tick until Stop is called or
// the context is cancelled. It blocks; run it in its own goroutine.
func (c *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	c.performCheck(ctx)

	for {
		select {
		case <-ticker.C:
			c.performCheck(ctx)
		case <-c.stopChan:
			c.log.Info("health checker stopped", "provider", c.provider.Name())
			return
		case <-ctx.Done():
			c.log.Info("health checker context cancelled", "provider", c.provider.Name())
			return
		}
	}
}

// Stop terminates the probe loop. Safe to call multiple times.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Checker) performCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := c.provider.HealthCheck(checkCtx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.LastCheckTime = time.Now()

	if isHealthy {
		c.status.IsHealthy = true
		c.status.ConsecutiveFails = 0
		c.status.ErrorMessage = ""
		return
	}

	c.status.ConsecutiveFails++
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	c.status.ErrorMessage = fmt.Sprintf("health check failed: %s", errMsg)

	if c.status.ConsecutiveFails >= c.failThreshold {
		c.status.IsHealthy = false
		c.log.Error("provider marked unhealthy",
			"provider", c.provider.Name(),
			"consecutive_fails", c.status.ConsecutiveFails,
		)
	} else {
		c.log.Warn("provider health check failed",
			"provider", c.provider.Name(),
			"fails", c.status.ConsecutiveFails,
			"threshold", c.failThreshold,
			"error", errMsg,
		)
	}
}

// GetStatus returns a copy of the current status so callers cannot mutate
// checker state.
func (c *Checker) GetStatus() ProviderStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
