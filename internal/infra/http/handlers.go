package http

import (
	"errors"
	"net/http"

	"gatehouse/internal/domain"
	"gatehouse/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}

type contextResponse struct {
	UserID       string `json:"user_id,omitempty"`
	TenantID     string `json:"tenant_id"`
	AppID        string `json:"app_id,omitempty"`
	IsPro        bool   `json:"is_pro"`
	ResolvedFrom string `json:"resolved_from"`
}

// handleGetContext is public: anonymous callers still get a context, scoped
// to the system tenant. The owner id is deliberately not projected.
func (s *Server) handleGetContext(c *gin.Context) {
	tc := getTenantContext(c)
	c.JSON(http.StatusOK, contextResponse{
		UserID:       tc.UserID,
		TenantID:     tc.TenantID,
		AppID:        tc.AppID,
		IsPro:        tc.IsPro,
		ResolvedFrom: string(tc.ResolvedFrom),
	})
}

type tenantResponse struct {
	ID            string `json:"id"`
	AppID         string `json:"app_id"`
	IsPro         bool   `json:"is_pro"`
	PrimaryDomain string `json:"primary_domain,omitempty"`
	Status        string `json:"status"`
}

func (s *Server) handleGetTenant(c *gin.Context) {
	_, tc, ok := s.requirePermission(c, "tenant:read")
	if !ok {
		return
	}
	tenant, err := s.tenants.GetByID(c.Request.Context(), tc.TenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "TENANT_LOOKUP_FAILED", "failed to load tenant")
		return
	}
	c.JSON(http.StatusOK, tenantResponse{
		ID:            tenant.ID,
		AppID:         tenant.AppID,
		IsPro:         tenant.IsPro,
		PrimaryDomain: tenant.PrimaryDomain,
		Status:        tenant.Status,
	})
}

type bindDomainRequest struct {
	Host string `json:"host" binding:"required"`
}

func (s *Server) handleBindDomain(c *gin.Context) {
	_, tc, ok := s.requireAnyRole(c, domain.RoleProducer, domain.RoleAdmin)
	if !ok {
		return
	}
	var req bindDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "host is required")
		return
	}
	// Bindings are stored in the same form lookups use, or the host would
	// never resolve back to the tenant.
	host := usecase.NormalizeHost(req.Host)
	if host == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "host is not a usable domain")
		return
	}
	if tc.TenantID == domain.SystemTenantID {
		writeErrorCode(c, http.StatusConflict, "NO_TENANT", "no tenant resolved for this request")
		return
	}
	var previous string
	if tenant, err := s.tenants.GetByID(c.Request.Context(), tc.TenantID); err == nil {
		previous = tenant.PrimaryDomain
	}
	err := s.tenants.SetPrimaryDomain(c.Request.Context(), tc.TenantID, host)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeErrorCode(c, http.StatusConflict, "DOMAIN_TAKEN", "domain is already bound")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "DOMAIN_BIND_FAILED", "failed to bind domain")
		return
	}
	if s.domainCache != nil {
		if previous != "" && previous != host {
			_ = s.domainCache.DeleteDomainTenant(c.Request.Context(), previous)
		}
		_ = s.domainCache.SetDomainTenant(c.Request.Context(), host, tc.TenantID)
	}
	c.JSON(http.StatusOK, gin.H{"tenant_id": tc.TenantID, "host": host})
}

type setProRequest struct {
	IsPro bool `json:"is_pro"`
}

func (s *Server) handleSetPro(c *gin.Context) {
	_, tc, ok := s.requireAnyRole(c, domain.RoleAdmin)
	if !ok {
		return
	}
	var req setProRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body")
		return
	}
	if err := s.tenants.SetPro(c.Request.Context(), tc.TenantID, req.IsPro); err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "TENANT_UPDATE_FAILED", "failed to update tenant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant_id": tc.TenantID, "is_pro": req.IsPro})
}

type ensureRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Permissions []string `json:"permissions"`
}

func (s *Server) handleEnsureRole(c *gin.Context) {
	if _, _, ok := s.requireAnyRole(c, domain.RoleAdmin); !ok {
		return
	}
	var req ensureRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}
	role, err := s.permissions.EnsureRole(c.Request.Context(), req.Name, req.Permissions)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_UPSERT_FAILED", "failed to create role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": role.ID, "name": role.Name})
}

func (s *Server) handleDeleteRole(c *gin.Context) {
	if _, _, ok := s.requireAnyRole(c, domain.RoleAdmin); !ok {
		return
	}
	name := c.Param("name")
	if err := s.permissions.DeleteRole(c.Request.Context(), name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "ROLE_NOT_FOUND", "role not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_DELETE_FAILED", "failed to delete role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

type assignRoleRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	TenantID string `json:"tenant_id"`
}

func (s *Server) handleAssignRole(c *gin.Context) {
	_, tc, ok := s.requireAnyRole(c, domain.RoleAdmin)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "user_id is required")
		return
	}
	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = tc.TenantID
	}
	name := c.Param("name")
	if err := s.permissions.Assign(c.Request.Context(), req.UserID, name, tenantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "ROLE_NOT_FOUND", "role not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_ASSIGN_FAILED", "failed to assign role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "role": name, "tenant_id": tenantID})
}

func (s *Server) handleRevokeRole(c *gin.Context) {
	_, tc, ok := s.requireAnyRole(c, domain.RoleAdmin)
	if !ok {
		return
	}
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		tenantID = tc.TenantID
	}
	name := c.Param("name")
	userID := c.Param("userID")
	if err := s.permissions.Revoke(c.Request.Context(), userID, name, tenantID); err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_REVOKE_FAILED", "failed to revoke role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": name, "tenant_id": tenantID})
}

type signupRoleRequest struct {
	Service string `json:"service"`
}

// handleGrantSignupRole is called by the signup flow after identity creation.
// The service value is validated against a closed set; unknown services get
// the least-privileged role rather than an error.
func (s *Server) handleGrantSignupRole(c *gin.Context) {
	if _, _, ok := s.requireAnyRole(c, domain.RoleAdmin); !ok {
		return
	}
	var req signupRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body")
		return
	}
	userID := c.Param("userID")
	role, err := s.permissions.GrantDefaultRole(c.Request.Context(), userID, req.Service)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_ASSIGN_FAILED", "failed to grant default role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
}

type userRolesResponse struct {
	UserID      string           `json:"user_id"`
	HighestRole string           `json:"highest_role,omitempty"`
	Assignments []assignmentItem `json:"assignments"`
}

type assignmentItem struct {
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

func (s *Server) handleListUserRoles(c *gin.Context) {
	if _, _, ok := s.requireAnyRole(c, domain.RoleAdmin); !ok {
		return
	}
	userID := c.Param("userID")
	assignments, err := s.permissions.Assignments(c.Request.Context(), userID)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "ROLE_LOOKUP_FAILED", "failed to load assignments")
		return
	}
	names := make([]string, 0, len(assignments))
	items := make([]assignmentItem, 0, len(assignments))
	for _, a := range assignments {
		names = append(names, a.RoleName)
		items = append(items, assignmentItem{Role: a.RoleName, TenantID: a.TenantID})
	}
	c.JSON(http.StatusOK, userRolesResponse{
		UserID:      userID,
		HighestRole: domain.HighestRole(names),
		Assignments: items,
	})
}
