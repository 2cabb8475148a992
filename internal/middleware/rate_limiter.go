package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

// RateLimiter is a fixed-window limiter keyed by client IP
type RateLimiter struct {
	clients map[string]*clientWindow
	mu      sync.Mutex
	metrics *metrics.Metrics
	logger  *logrus.Logger
	limit   int           // Max requests
	window  time.Duration // Time window
	now     func() time.Time
}

type clientWindow struct {
	count   int
	started time.Time
}

// NewRateLimiter allows limit requests per client IP in every window.
// Call Run to evict idle clients.
func NewRateLimiter(limit int, window time.Duration, m *metrics.Metrics, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		metrics: m,
		logger:  logger,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Middleware returns a gin middleware handler
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed, retryAfter := rl.allow(clientIP)
		rl.metrics.RecordRateLimit(allowed)

		if !allowed {
			rl.logger.WithFields(logrus.Fields{
				"client_ip":  clientIP,
				"request_id": GetRequestID(c),
				"path":       c.Request.URL.Path,
			}).Warn("Rate limit exceeded")

			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}

// allow counts a request and, when refused, reports when the window resets
func (rl *RateLimiter) allow(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.started) >= rl.window {
		client = &clientWindow{started: now}
		rl.clients[clientIP] = client
	}

	if client.count >= rl.limit {
		return false, client.started.Add(rl.window).Sub(now)
	}
	client.count++
	return true, 0
}

// Run evicts clients whose window has expired until ctx is cancelled
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, client := range rl.clients {
		if now.Sub(client.started) >= rl.window {
			delete(rl.clients, ip)
		}
	}
}

// Stats returns current rate limiter statistics
func (rl *RateLimiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"total_clients": len(rl.clients),
		"limit":         rl.limit,
		"window":        rl.window.String(),
	}
}
