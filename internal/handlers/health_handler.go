package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready checks the database and, when configured, Redis.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]check{"database": h.checkDatabase(ctx)}
	if h.redis != nil {
		checks["redis"] = h.checkRedis(ctx)
	}

	status, code := "UP", http.StatusOK
	for _, ch := range checks {
		if ch.Status != "UP" {
			status, code = "DOWN", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}

func (h *Handler) checkDatabase(ctx context.Context) check {
	sqlDB, err := h.db.DB()
	if err != nil {
		return check{Status: "DOWN", Message: "database handle unavailable"}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return check{Status: "DOWN", Message: "cannot reach database"}
	}
	return check{Status: "UP"}
}

func (h *Handler) checkRedis(ctx context.Context) check {
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return check{Status: "DOWN", Message: "cannot reach redis"}
	}
	return check{Status: "UP"}
}
