package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"gatehouse/internal/domain"
	"gatehouse/internal/infra/auth/rbac"

	"github.com/gin-gonic/gin"
)

const (
	identityContextKey = "identity"
	tenantContextKey   = "tenant_context"

	headerResolvedTenant = "X-Resolved-Tenant"
	headerDomainResolved = "X-Domain-Resolved"
	headerTenantID       = "X-Tenant-ID"
	headerUserID         = "X-User-ID"
	headerAdminKey       = "X-Admin-Key"
)

// identityMiddleware establishes the acting identity when a credential is
// present. It never rejects: public routes proceed anonymously, and the
// Unauthorized outcome belongs to requireIdentity on protected routes.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.adminAPIKey != "" {
			if key := strings.TrimSpace(c.GetHeader(headerAdminKey)); key != "" &&
				subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) == 1 {
				c.Set(identityContextKey, domain.Identity{UserID: "admin-key"})
				c.Set(adminKeyContextKey, true)
				c.Next()
				return
			}
		}
		if s.cfg.AuthMode == "none" {
			if userID := strings.TrimSpace(c.GetHeader(headerUserID)); userID != "" {
				c.Set(identityContextKey, domain.Identity{UserID: userID})
			}
			c.Next()
			return
		}
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		if s.authInitErr != nil || s.authenticator == nil {
			c.Next()
			return
		}
		identity, err := s.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			// Failed verification is the same as no identity; the
			// route decides whether that is fatal.
			c.Next()
			return
		}
		c.Set(identityContextKey, identity)
		c.Next()
	}
}

const adminKeyContextKey = "admin_key"

func extractBearerToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(value), "bearer ") {
		return ""
	}
	return strings.TrimSpace(value[len("bearer "):])
}

func getIdentity(c *gin.Context) (domain.Identity, bool) {
	raw, ok := c.Get(identityContextKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := raw.(domain.Identity)
	return identity, ok
}

func isAdminKey(c *gin.Context) bool {
	return c.GetBool(adminKeyContextKey)
}

func getTenantContext(c *gin.Context) domain.TenantContext {
	raw, ok := c.Get(tenantContextKey)
	if !ok {
		return domain.SystemContext("", "", domain.ResolvedFromDefault)
	}
	tc, ok := raw.(domain.TenantContext)
	if !ok {
		return domain.SystemContext("", "", domain.ResolvedFromDefault)
	}
	return tc
}

// requireIdentity is the Unauthorized/Forbidden split: no established actor
// means 401 before any tenant or role work happens.
func (s *Server) requireIdentity(c *gin.Context) (domain.Identity, bool) {
	identity, ok := getIdentity(c)
	if !ok || identity.UserID == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return domain.Identity{}, false
	}
	return identity, true
}

// requirePermission enforces permission on the request's resolved tenant.
// The admin key and the admin role bypass individual permission checks.
func (s *Server) requirePermission(c *gin.Context, permission string) (domain.Identity, domain.TenantContext, bool) {
	identity, ok := s.requireIdentity(c)
	if !ok {
		return domain.Identity{}, domain.TenantContext{}, false
	}
	tc := getTenantContext(c)
	if isAdminKey(c) {
		return identity, tc, true
	}
	roles, err := s.permissions.Roles(c.Request.Context(), identity.UserID, tc.TenantID)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_LOOKUP_FAILED", "failed to load roles")
		return domain.Identity{}, domain.TenantContext{}, false
	}
	if rbac.HasRole(roles, domain.RoleAdmin) {
		return identity, tc, true
	}
	permissions, err := s.permissions.Permissions(c.Request.Context(), identity.UserID, tc.TenantID)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "PERMISSION_LOOKUP_FAILED", "failed to load permissions")
		return domain.Identity{}, domain.TenantContext{}, false
	}
	if !rbac.HasPermission(permissions, permission) {
		writeAuthzError(c, &rbac.AuthzError{Code: "MISSING_PERMISSION", Err: domain.ErrForbidden}, permission)
		return domain.Identity{}, domain.TenantContext{}, false
	}
	return identity, tc, true
}

// requireAnyRole enforces that the actor holds one of the roles in the
// resolved tenant.
func (s *Server) requireAnyRole(c *gin.Context, wanted ...string) (domain.Identity, domain.TenantContext, bool) {
	identity, ok := s.requireIdentity(c)
	if !ok {
		return domain.Identity{}, domain.TenantContext{}, false
	}
	tc := getTenantContext(c)
	if isAdminKey(c) {
		return identity, tc, true
	}
	roles, err := s.permissions.Roles(c.Request.Context(), identity.UserID, tc.TenantID)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_LOOKUP_FAILED", "failed to load roles")
		return domain.Identity{}, domain.TenantContext{}, false
	}
	if !rbac.HasAnyRole(roles, wanted...) {
		writeAuthzError(c, &rbac.AuthzError{Code: "MISSING_ROLE", Err: domain.ErrForbidden}, strings.Join(wanted, "|"))
		return domain.Identity{}, domain.TenantContext{}, false
	}
	return identity, tc, true
}

func writeAuthzError(c *gin.Context, err error, missing string) {
	if authz, ok := rbac.IsAuthzError(err); ok {
		writeErrorCode(c, http.StatusForbidden, authz.Code, "requires "+missing)
		return
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
}
