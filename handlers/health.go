package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "Blog API running",
		"service": "healthy",
	})
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready answers 503 while the store cannot be pinged. A nil pinger is always ready.
// The ping error is logged, never returned to the caller.
func Ready(p Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Warn("readiness ping failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": "store unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
