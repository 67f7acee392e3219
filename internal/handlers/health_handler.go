package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns the health endpoint. Every named dependency is pinged;
// any failure turns the response into a 503.
func HealthCheck(version string, deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = gin.H{"status": "unhealthy", "error": err.Error()}
				continue
			}
			checks[name] = gin.H{"status": "healthy"}
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
