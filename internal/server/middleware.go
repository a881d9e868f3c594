package server

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	rateLimitEndpointCheckout = "checkout"
	rateLimitReasonClientRate = "client-rate"
)

// AdminAuthRequired checks the static admin bearer token. An empty token leaves the
// admin surface open, which is only expected in development.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	expected := strings.TrimSpace(s.cfg.AdminToken)
	if expected == "" && s.cfg.IsProduction() {
		s.log.Warn("admin token is not configured; admin routes are unauthenticated")
	}

	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader(headerAuthorization))
		if !strings.HasPrefix(header, bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}

// CheckoutRateLimit throttles order placement per client address. Limiter errors let
// the request through.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.checkoutLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.checkoutLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("checkout rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}

		if !result.Allowed {
			logger.FromContext(ctx).Warn("checkout rate limit exceeded",
				zap.String("reason", rateLimitReasonClientRate),
				zap.String("endpoint", rateLimitEndpointCheckout),
			)
			s.metrics.RecordRateLimitDenied(ctx, rateLimitEndpointCheckout, rateLimitReasonClientRate)

			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		s.metrics.RecordRateLimitAllowed(ctx, rateLimitEndpointCheckout)
		c.Next()
	}
}
