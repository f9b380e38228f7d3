package usecase

import (
	"context"

	"gatehouse/internal/domain"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant domain.Tenant) error
	GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetByOwner(ctx context.Context, ownerUserID string) (*domain.Tenant, error)
	GetByDomain(ctx context.Context, host string) (*domain.Tenant, error)
	SetPrimaryDomain(ctx context.Context, tenantID, host string) error
	SetPro(ctx context.Context, tenantID string, isPro bool) error
}

type RoleRepository interface {
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	RoleNamesFor(ctx context.Context, userID, tenantID string) ([]string, error)
	PermissionsOf(ctx context.Context, roleName string) ([]string, error)
	EnsureRole(ctx context.Context, name string, permissions []string) (*domain.Role, error)
	AssignRole(ctx context.Context, userID, roleName, tenantID string) error
	RevokeRole(ctx context.Context, userID, roleName, tenantID string) error
	DeleteRole(ctx context.Context, name string) error
	AssignmentsFor(ctx context.Context, userID string) ([]domain.RoleAssignment, error)
}

// DomainCache is the soft lookaside in front of GetByDomain. Implementations
// may be absent (nil) and errors are treated as misses.
type DomainCache interface {
	GetDomainTenant(ctx context.Context, host string) (string, error)
	SetDomainTenant(ctx context.Context, host, tenantID string) error
	DeleteDomainTenant(ctx context.Context, host string) error
}

type Provisioner interface {
	GetOrCreate(ctx context.Context, ownerUserID string) (*domain.Tenant, error)
}
