package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/familybicons/socios-server/internal/models"
	"github.com/gin-gonic/gin"
)

// ipEntry tracks login attempts per IP within a fixed window.
type ipEntry struct {
	count     int
	windowEnd time.Time
}

// LoginLimiter caps login attempts per client IP. It is the only brake on
// password guessing; the session state machine has no lockout.
type LoginLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*ipEntry
}

// NewLoginLimiter allows limit attempts per window per IP
func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*ipEntry),
	}
}

// Allow records an attempt from ip and reports whether it is within the limit
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &ipEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}

	entry.count++
	return entry.count <= l.limit
}

// Middleware rejects requests over the limit with 429
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Status:  "error",
				Code:    "TOO_MANY_ATTEMPTS",
				Message: "Too many login attempts. Try again in a minute.",
			})
			return
		}
		c.Next()
	}
}

// Purge drops entries whose window has closed and returns how many were dropped
func (l *LoginLimiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}
