package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surajpaudel2/sports-ticketing/pkg/response"
)

// HealthChecker is anything whose liveness the health endpoint reports
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service liveness and dependency health
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a health handler over named dependency checks
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := gin.H{}
	healthy := true
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
		} else {
			status[name] = "ok"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
		return
	}
	response.Success(c, gin.H{"status": "ok", "checks": status})
}
