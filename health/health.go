// Package health runs liveness and readiness checks for the storefront.
//
// Liveness only reports that the process serves HTTP. Readiness runs every
// registered Checker concurrently under a shared timeout; the service is
// ready unless a check reports StatusUnhealthy.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/cache"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of a single health check.
type Check struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Report aggregates all checks.
type Report struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

type Checker interface {
	Name() string
	Check(ctx context.Context) Check
}

// Manager coordinates health checks.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	version  string
	timeout  time.Duration
}

func NewManager(version string, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Manager{version: version, timeout: timeout}
}

func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Check runs all checkers concurrently. Checks are reported sorted by name.
func (m *Manager) Check(ctx context.Context) Report {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	checks := make([]Check, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			res := c.Check(ctx)
			res.Name = c.Name()
			res.LatencyMs = time.Since(start).Milliseconds()
			checks[i] = res
		}(i, c)
	}
	wg.Wait()

	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	report := Report{Status: StatusHealthy, Version: m.version, Timestamp: time.Now(), Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status != StatusUnhealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// LiveHandler answers liveness probes.
func (m *Manager) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyHandler answers readiness probes with the full report.
func (m *Manager) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := m.Check(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// PingChecker reports a dependency reachable through a ping function, such
// as the database or Redis.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) Check {
	if err := c.ping(ctx); err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}
	return Check{Status: StatusHealthy, Message: "connected"}
}

// CacheChecker writes, reads back and deletes a probe key. A failing cache
// only degrades the service since every cached value can be recomputed.
type CacheChecker struct {
	cache cache.Cache
}

func NewCacheChecker(c cache.Cache) *CacheChecker {
	return &CacheChecker{cache: c}
}

func (c *CacheChecker) Name() string { return "cache" }

func (c *CacheChecker) Check(ctx context.Context) Check {
	key := fmt.Sprintf("health:%d", time.Now().UnixNano())
	want := []byte("ok")

	if err := c.cache.Set(ctx, key, want, time.Minute); err != nil {
		return Check{Status: StatusDegraded, Message: err.Error()}
	}
	defer c.cache.Delete(ctx, key)

	got, err := c.cache.Get(ctx, key)
	if err != nil {
		return Check{Status: StatusDegraded, Message: err.Error()}
	}
	if string(got) != string(want) {
		return Check{Status: StatusDegraded, Message: "cache returned unexpected value"}
	}
	return Check{Status: StatusHealthy, Message: "round trip ok"}
}
