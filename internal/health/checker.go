package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the health of one component or of the whole service
type State string

const (
	StateHealthy   State = "healthy"
	StateWarning   State = "warning"
	StateUnhealthy State = "unhealthy"
)

// Check probes one component
type Check interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Name        string                 `json:"name"`
	Status      State                  `json:"status"`
	Message     string                 `json:"message"`
	LastChecked time.Time              `json:"last_checked"`
	DurationMS  int64                  `json:"duration_ms"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Status is the aggregated result of every registered check
type Status struct {
	Overall    State                      `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker runs registered checks in parallel on demand
type Checker struct {
	version string
	timeout time.Duration
	logger  *logrus.Logger
	started time.Time

	mu     sync.RWMutex
	checks []Check
}

// NewChecker creates a checker; each run is bounded by timeout
func NewChecker(version string, timeout time.Duration, logger *logrus.Logger) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		version: version,
		timeout: timeout,
		logger:  logger,
		started: time.Now(),
	}
}

// Register adds a check
func (h *Checker) Register(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// Names lists the registered checks in registration order
func (h *Checker) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checks))
	for _, c := range h.checks {
		names = append(names, c.Name())
	}
	return names
}

// Run executes every check and aggregates the overall state: any unhealthy component makes
// the service unhealthy, otherwise any warning makes it a warning.
func (h *Checker) Run(ctx context.Context) *Status {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	checks := append([]Check(nil), h.checks...)
	h.mu.RUnlock()

	results := make(chan ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Name = c.Name()
			result.LastChecked = time.Now()
			result.DurationMS = time.Since(start).Milliseconds()
			results <- result
		}(check)
	}
	wg.Wait()
	close(results)

	status := &Status{
		Overall:    StateHealthy,
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Components: make(map[string]ComponentHealth, len(checks)),
	}
	for result := range results {
		status.Components[result.Name] = result
		switch {
		case result.Status == StateUnhealthy:
			status.Overall = StateUnhealthy
		case result.Status == StateWarning && status.Overall == StateHealthy:
			status.Overall = StateWarning
		}
	}

	if status.Overall != StateHealthy {
		h.logger.WithFields(logrus.Fields{
			"overall_status":       status.Overall,
			"unhealthy_components": status.Failing(),
		}).Warn("Health check completed with issues")
	} else {
		h.logger.Debug("Health check completed successfully")
	}
	return status
}

// Failing lists components that are not healthy, sorted by name
func (s *Status) Failing() []string {
	var out []string
	for name, c := range s.Components {
		if c.Status != StateHealthy {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
