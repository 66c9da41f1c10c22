package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks
type Service struct {
	sessions  ports.SessionRepository
	queueURL  string
	groqReady bool
	bankReady bool
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration
type Config struct {
	Version string

	// Sessions is the durable session backend to ping.
	Sessions ports.SessionRepository

	// QueueURL is the configured event bus address, empty when disabled.
	QueueURL string

	// GroqConfigured / BafokaConfigured report whether the collaborator
	// credentials are present. Collaborators are external; we only verify
	// configuration, never call them from a probe.
	GroqConfigured   bool
	BafokaConfigured bool
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		sessions:  config.Sessions,
		queueURL:  config.QueueURL,
		groqReady: config.GroqConfigured,
		bankReady: config.BafokaConfigured,
		startTime: time.Now(),
		version:   config.Version,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	// Register default checkers
	if config.Sessions != nil {
		s.RegisterChecker("session_store", s.checkSessionStore)
	}
	if config.QueueURL != "" {
		s.RegisterChecker("queue", s.checkQueue)
	}
	s.RegisterChecker("groq", s.checkGroq)
	s.RegisterChecker("bafoka", s.checkBafoka)

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready performs a comprehensive readiness check
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	// Run all checks concurrently
	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	// Determine overall status
	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// checkSessionStore pings the durable session backend
func (s *Service) checkSessionStore(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "session_store",
		Timestamp: time.Now(),
	}

	if s.sessions == nil {
		result.Status = StatusUnhealthy
		result.Message = "session store not configured"
		result.Duration = time.Since(start)
		return result
	}

	err := s.sessions.Ping(ctx)
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Session store health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

// checkQueue checks the event bus configuration
func (s *Service) checkQueue(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "queue",
		Timestamp: time.Now(),
	}

	result.Duration = time.Since(start)
	if s.queueURL == "" {
		result.Status = StatusDegraded
		result.Message = "queue not configured"
		return result
	}

	result.Status = StatusHealthy
	result.Message = "configured"
	return result
}

// checkGroq verifies the NLU/STT collaborator credentials are present. A
// missing key degrades rather than kills readiness: text-only endpoints that
// don't need Groq keep working.
func (s *Service) checkGroq(ctx context.Context) CheckResult {
	return s.configuredCheck("groq", s.groqReady)
}

// checkBafoka verifies the banking backend credentials are present
func (s *Service) checkBafoka(ctx context.Context) CheckResult {
	return s.configuredCheck("bafoka", s.bankReady)
}

func (s *Service) configuredCheck(name string, configured bool) CheckResult {
	result := CheckResult{
		Name:      name,
		Timestamp: time.Now(),
	}
	if configured {
		result.Status = StatusHealthy
		result.Message = "configured"
	} else {
		result.Status = StatusDegraded
		result.Message = "credentials missing"
	}
	return result
}
