package http

import (
	"net/http"
	"strconv"
	"strings"

	"gatehouse/internal/usecase"

	"github.com/gin-gonic/gin"
)

// tenantContextMiddleware attaches exactly one TenantContext to the request.
// Priority-1 signals arrive from a reverse proxy via headers; when absent,
// the resolver's own host lookup stands in for that upstream step.
func (s *Server) tenantContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sig := usecase.Signals{
			HeaderTenantID: strings.TrimSpace(c.GetHeader(headerTenantID)),
		}
		if identity, ok := getIdentity(c); ok && !isAdminKey(c) {
			sig.UserID = identity.UserID
		}

		if resolved := strings.TrimSpace(c.GetHeader(headerResolvedTenant)); resolved != "" && c.GetHeader(headerDomainResolved) != "" {
			sig.DomainResolved = true
			sig.DomainTenantID = resolved
		} else if s.domains != nil {
			host := c.GetHeader("X-Forwarded-Host")
			if host == "" {
				host = c.Request.Host
			}
			ownership, err := s.domains.Resolve(c.Request.Context(), host)
			switch {
			case err != nil:
				// Not fatal: lower-priority sources still apply.
				s.logger.Printf("warn: host %s tenant lookup failed: %v", host, err)
			case ownership != nil:
				sig.DomainResolved = true
				sig.DomainTenantID = ownership.TenantID
			}
		}

		c.Set(tenantContextKey, s.resolver.Resolve(c.Request.Context(), sig))
		c.Next()
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if s.rateLimitWithSubject {
			if identity, ok := getIdentity(c); ok && identity.UserID != "" {
				key = key + ":" + identity.UserID
			}
		}
		decision, err := s.rateLimiter.Allow(c.Request.Context(), "gatehouse:rl:"+key, s.rateLimitRequests, s.rateLimitWindow)
		if err != nil {
			if s.rateLimitFailClosed {
				writeErrorCode(c, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
				return
			}
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		c.Next()
	}
}
