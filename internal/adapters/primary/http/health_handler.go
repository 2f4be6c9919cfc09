package http

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthChecker is anything that can be pinged: the pgx pool, the redis cache.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to HealthChecker
type HealthCheckerFunc func(ctx context.Context) error

func (f HealthCheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependency is one checked backend. A failing required dependency makes the
// service unready; a failing optional one (the dashboard cache) only degrades it,
// since dashboards are recomputed when the cache is unavailable.
type Dependency struct {
	Name     string
	Checker  HealthChecker
	Required bool
}

// HealthHandler serves liveness, readiness and a detailed report.
type HealthHandler struct {
	deps        []Dependency
	connections func() int
	started     time.Time
	version     string
}

// NewHealthHandler builds a handler over deps. Entries with a nil Checker are
// dropped, so disabled backends can be passed unconditionally. connections may
// be nil; when set it reports the live feed's subscriber count.
func NewHealthHandler(version string, deps []Dependency, connections func() int) *HealthHandler {
	active := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if d.Checker != nil {
			active = append(active, d)
		}
	}
	return &HealthHandler{
		deps:        active,
		connections: connections,
		started:     time.Now(),
		version:     version,
	}
}

// HealthResponse is the body of every health endpoint.
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Runtime   *RuntimeInfo     `json:"runtime,omitempty"`
}

// Check is the result of pinging one dependency.
type Check struct {
	Status   string `json:"status"`
	Required bool   `json:"required"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency"`
}

// RuntimeInfo is only included in the detailed report.
type RuntimeInfo struct {
	Goroutines      int    `json:"goroutines"`
	HeapAllocBytes  uint64 `json:"heapAllocBytes"`
	NumGC           uint32 `json:"numGc"`
	LiveConnections *int   `json:"liveConnections,omitempty"`
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness answers 200 as long as the process serves HTTP.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: now(),
	})
}

// HandleReadiness answers 503 only when a required dependency is down.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := h.report(r.Context())
	WriteJSON(w, readinessCode(resp.Status), resp)
}

// HandleHealth is the readiness report plus runtime figures.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := h.report(r.Context())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	resp.Runtime = &RuntimeInfo{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		NumGC:          mem.NumGC,
	}
	if h.connections != nil {
		n := h.connections()
		resp.Runtime.LiveConnections = &n
	}

	WriteJSON(w, readinessCode(resp.Status), resp)
}

func (h *HealthHandler) report(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := h.runChecks(ctx)
	return HealthResponse{
		Status:    overallStatus(checks),
		Timestamp: now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Checks:    checks,
	}
}

// runChecks pings every dependency concurrently.
func (h *HealthHandler) runChecks(ctx context.Context) map[string]Check {
	results := make([]Check, len(h.deps))

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = ping(ctx, dep)
		}()
	}
	wg.Wait()

	checks := make(map[string]Check, len(h.deps))
	for i, dep := range h.deps {
		checks[dep.Name] = results[i]
	}
	return checks
}

func ping(ctx context.Context, dep Dependency) Check {
	start := time.Now()
	err := dep.Checker.Ping(ctx)
	c := Check{
		Status:   statusHealthy,
		Required: dep.Required,
		Latency:  time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		c.Status = statusUnhealthy
		c.Message = err.Error()
	}
	return c
}

func overallStatus(checks map[string]Check) string {
	status := statusHealthy
	for _, c := range checks {
		if c.Status == statusHealthy {
			continue
		}
		if c.Required {
			return statusUnhealthy
		}
		status = statusDegraded
	}
	return status
}

func readinessCode(status string) int {
	if status == statusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }
