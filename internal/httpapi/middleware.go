package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestLogger assigns a request id and logs every request once it is
// served.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			logger.Warn("request failed", append(attrs, "error", c.Errors.String())...)
			return
		}
		logger.Info("request served", attrs...)
	}
}

// corsMiddleware allows the configured browser origins to call the API.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Accept", "Content-Type", "Origin", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", requestIDHeader},
		MaxAge:        12 * time.Hour,
	})
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// clientTTL is how long an idle client keeps its limiter.
const clientTTL = 10 * time.Minute

// clientLimiter applies a token bucket per client IP.
type clientLimiter struct {
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	clients map[string]*clientEntry
	swept   time.Time
	now     func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		rate:    rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientEntry),
		now:     time.Now,
	}
}

// allow reports whether the client may make a request now. Idle clients are
// swept at most once per clientTTL.
func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > clientTTL {
		for key, entry := range l.clients {
			if now.Sub(entry.lastSeen) > clientTTL {
				delete(l.clients, key)
			}
		}
		l.swept = now
	}

	entry, ok := l.clients[client]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *clientLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			fail(c, &APIError{Code: http.StatusTooManyRequests, Message: "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
