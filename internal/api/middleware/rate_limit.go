package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"collab-service/pkg/logger"
	"collab-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimiter is implemented by services.RedisService.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, error)
}

type RateLimitMiddleware struct {
	limiter RateLimiter
	logger  *logger.Logger
}

func NewRateLimitMiddleware(limiter RateLimiter, log *logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  log.Component("rate_limit"),
	}
}

// RateLimitIP limits requests per client IP within scope. When the limiter
// backend fails the request is let through and the failure logged, so a
// Redis outage does not lock every client out.
func (rm *RateLimitMiddleware) RateLimitIP(scope string, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, err := rm.limiter.CheckRateLimit(c.Request.Context(), scope, clientIP, requests, window)
		if err != nil {
			rm.logger.Error("Rate limit check failed", "scope", scope, "ip", clientIP, "error", err)
			c.Next()
			return
		}

		if !allowed {
			response.Abort(c, http.StatusTooManyRequests, response.ErrCodeTooManyReqs,
				fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window))
			return
		}

		c.Next()
	}
}
