package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

// HealthChecker reports the health of one infrastructure component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// namedChecker pairs a checker with its component name.
type namedChecker struct {
	name    string
	checker HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	version  string
	startAt  time.Time
	checkers []namedChecker
}

// NewHealthHandler constructs a HealthHandler reporting version.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, startAt: time.Now()}
}

// AddChecker registers a component for the readiness probe.
func (h *HealthHandler) AddChecker(name string, c HealthChecker) {
	h.checkers = append(h.checkers, namedChecker{name: name, checker: c})
}

// Liveness handles GET /healthz.  It confirms the process only; dependencies
// are the readiness probe's concern.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"version": h.version,
		"uptime":  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz.  All registered components are probed
// concurrently; any failure yields 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make([]common.ComponentHealth, len(h.checkers))
	var wg sync.WaitGroup
	for i, nc := range h.checkers {
		wg.Add(1)
		go func(i int, nc namedChecker) {
			defer wg.Done()
			start := time.Now()
			health := common.ComponentHealth{Name: nc.name, Status: common.HealthUp}
			if err := nc.checker.HealthCheck(ctx); err != nil {
				health.Status = common.HealthDown
				health.Message = err.Error()
			}
			health.Latency = time.Since(start)
			components[i] = health
		}(i, nc)
	}
	wg.Wait()

	ready := true
	for _, comp := range components {
		if comp.Status != common.HealthUp {
			ready = false
			break
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "components": components})
}
