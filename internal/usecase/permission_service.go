package usecase

import (
	"context"
	"sort"

	"gatehouse/internal/domain"
)

// PermissionService aggregates the role/permission graph for a (user,
// tenant) pair. The permission set is a plain union over the held roles:
// there are no negative permissions and no precedence between roles.
type PermissionService struct {
	roles RoleRepository
}

func NewPermissionService(roles RoleRepository) *PermissionService {
	return &PermissionService{roles: roles}
}

// Roles returns the role names userID holds in tenantID.
func (s *PermissionService) Roles(ctx context.Context, userID, tenantID string) ([]string, error) {
	return s.roles.RoleNamesFor(ctx, userID, tenantID)
}

// RolesGlobal aggregates across every tenant the user holds roles in. Used
// for global admin checks only.
func (s *PermissionService) RolesGlobal(ctx context.Context, userID string) ([]string, error) {
	return s.roles.RoleNamesFor(ctx, userID, "")
}

// Permissions returns the sorted, deduplicated union of the permissions
// granted by every role userID holds in tenantID.
func (s *PermissionService) Permissions(ctx context.Context, userID, tenantID string) ([]string, error) {
	names, err := s.roles.RoleNamesFor(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	return s.unionPermissions(ctx, names)
}

func (s *PermissionService) PermissionsGlobal(ctx context.Context, userID string) ([]string, error) {
	names, err := s.roles.RoleNamesFor(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return s.unionPermissions(ctx, names)
}

// HighestRole returns the highest-ranked built-in role the user holds in the
// tenant, or "" when none is ranked.
func (s *PermissionService) HighestRole(ctx context.Context, userID, tenantID string) (string, error) {
	names, err := s.roles.RoleNamesFor(ctx, userID, tenantID)
	if err != nil {
		return "", err
	}
	return domain.HighestRole(names), nil
}

// GrantDefaultRole assigns the signup-default role for the client service the
// user registered through. The service string is validated against the closed
// ServiceKind enumeration; anything unrecognized grants the least-privileged
// role. The assignment lives in the system tenant since signup precedes any
// tenant of the user's own.
func (s *PermissionService) GrantDefaultRole(ctx context.Context, userID, service string) (string, error) {
	roleName := domain.ParseServiceKind(service).DefaultRole()
	if _, err := s.roles.EnsureRole(ctx, roleName, nil); err != nil {
		return "", err
	}
	if err := s.roles.AssignRole(ctx, userID, roleName, domain.SystemTenantID); err != nil {
		return "", err
	}
	return roleName, nil
}

func (s *PermissionService) Assign(ctx context.Context, userID, roleName, tenantID string) error {
	return s.roles.AssignRole(ctx, userID, roleName, tenantID)
}

func (s *PermissionService) Revoke(ctx context.Context, userID, roleName, tenantID string) error {
	return s.roles.RevokeRole(ctx, userID, roleName, tenantID)
}

func (s *PermissionService) EnsureRole(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	return s.roles.EnsureRole(ctx, name, permissions)
}

func (s *PermissionService) DeleteRole(ctx context.Context, name string) error {
	return s.roles.DeleteRole(ctx, name)
}

func (s *PermissionService) Assignments(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	return s.roles.AssignmentsFor(ctx, userID)
}

func (s *PermissionService) unionPermissions(ctx context.Context, roleNames []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, name := range roleNames {
		permissions, err := s.roles.PermissionsOf(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, p := range permissions {
			if p != "" {
				seen[p] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
