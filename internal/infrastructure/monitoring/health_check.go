package monitoring

import (
	"context"
	"sync"
	"time"
)

// HealthChecker aggregates named liveness probes (redis, gateway) for
// the /health endpoint.
type HealthChecker struct {
	checks map[string]CheckFunc
	mu     sync.RWMutex
}

type CheckFunc func(ctx context.Context) error

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]CheckFunc),
	}
}

func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	for name, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := check(checkCtx)
		cancel()

		if err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = err.Error()
		} else {
			status.Checks[name] = "healthy"
		}
	}

	return status
}
