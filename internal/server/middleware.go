package server

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/menta2k/ph-analyzer/internal/log"
)

const RequestIDKey = "X-Request-ID"

// NewULIDFromTimestamp returns a monotonic ULID for t.
func NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// NewRequestIDMiddleware keeps an incoming X-Request-ID or assigns a ULID.
func NewRequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if requestID == "" {
			requestID, _ = NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

// GetRequestID returns the request ID stored by the request ID middleware.
func GetRequestID(c *fiber.Ctx) string {
	requestID, ok := c.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// NewLoggingMiddleware writes one access line per request. Request bodies are
// never logged since they carry image data.
func NewLoggingMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		entry := logger.WithFields(log.Fields{
			"request_id":    GetRequestID(c),
			"method":        c.Method(),
			"path":          c.Path(),
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"ip":            c.IP(),
			"user_agent":    c.Get("User-Agent"),
			"response_size": len(c.Response().Body()),
		})

		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Success")
		}

		return err
	}
}

// limiterIdleTTL is how long an IP's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	bucket    map[string]*visitor
	rate      rate.Limit
	burstSize int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	mutex     sync.Mutex
	logger    *logrus.Logger
}

func newRateLimiter(reqRate rate.Limit, burstSize int, logger *logrus.Logger) *rateLimiter {
	return &rateLimiter{
		bucket:    make(map[string]*visitor),
		rate:      reqRate,
		burstSize: burstSize,
		idleTTL:   limiterIdleTTL,
		now:       time.Now,
		logger:    logger,
	}
}

func (r *rateLimiter) limiterFor(ip string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idleTTL {
		r.evictIdle(now)
	}

	v, exist := r.bucket[ip]
	if !exist {
		v = &visitor{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.bucket[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

// evictIdle drops buckets not used within idleTTL. Callers hold the mutex.
func (r *rateLimiter) evictIdle(now time.Time) {
	for ip, v := range r.bucket {
		if now.Sub(v.lastSeen) >= r.idleTTL {
			delete(r.bucket, ip)
		}
	}
	r.lastSweep = now
}

// Handle rejects requests beyond the per-IP token bucket with 429.
func (r *rateLimiter) Handle(c *fiber.Ctx) error {
	clientIP := c.IP()
	if !r.limiterFor(clientIP).Allow() {
		r.logger.Warnf("too many requests for IP %s", clientIP)
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Error:     "too many requests",
			Code:      "RATE_LIMITED",
			RequestID: GetRequestID(c),
		})
	}

	return c.Next()
}
