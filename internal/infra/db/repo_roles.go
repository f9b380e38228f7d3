package db

import (
	"context"
	"errors"
	"time"

	"gatehouse/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model RoleModel
	err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.Role{ID: model.ID, Name: model.Name}, nil
}

// RoleNamesFor returns the names of the roles userID holds. An empty tenantID
// aggregates across all tenants; otherwise the result is scoped to that
// tenant only.
func (r *RoleRepository) RoleNamesFor(ctx context.Context, userID, tenantID string) ([]string, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	q := r.db.WithContext(ctx).
		Table("user_roles").
		Select("DISTINCT roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID)
	if tenantID != "" {
		q = q.Where("user_roles.tenant_id = ?", tenantID)
	}
	var names []string
	if err := q.Scan(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *RoleRepository) PermissionsOf(ctx context.Context, roleName string) ([]string, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var permissions []string
	err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("role_permissions.permission").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Where("roles.name = ?", roleName).
		Scan(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

// EnsureRole creates the role if it does not exist and adds any of the given
// permissions that are not already attached. Overlapping permissions are
// skipped, never an error.
func (r *RoleRepository) EnsureRole(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	role, err := r.GetRoleByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		model := RoleModel{
			ID:        uuid.NewString(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		if createErr := r.db.WithContext(ctx).Create(&model).Error; createErr != nil {
			if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return nil, createErr
			}
			// Lost a concurrent create; the winner's row is authoritative.
		}
		role, err = r.GetRoleByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	for _, permission := range permissions {
		row := RolePermissionModel{RoleID: role.ID, Permission: permission}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, err
		}
	}
	return role, nil
}

// AssignRole grants roleName to userID within tenantID. Assigning an already
// held role is a no-op.
func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleName, tenantID string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	role, err := r.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	row := UserRoleModel{
		UserID:    userID,
		RoleID:    role.ID,
		TenantID:  tenantID,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}

// RevokeRole removes the assignment if present. Revoking an unheld role is a
// no-op.
func (r *RoleRepository) RevokeRole(ctx context.Context, userID, roleName, tenantID string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	role, err := r.GetRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND tenant_id = ?", userID, role.ID, tenantID).
		Delete(&UserRoleModel{}).Error
}

// DeleteRole removes the role and everything hanging off it. Order matters:
// permissions first, then assignments, then the role row, inside one
// transaction, so no dangling reference is ever observable.
func (r *RoleRepository) DeleteRole(ctx context.Context, name string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	role, err := r.GetRoleByName(ctx, name)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&RolePermissionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&UserRoleModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", role.ID).Delete(&RoleModel{}).Error
	})
}

// AssignmentsFor lists userID's role assignments across all tenants.
func (r *RoleRepository) AssignmentsFor(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var rows []struct {
		Name     string
		TenantID string
	}
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("roles.name, user_roles.tenant_id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	assignments := make([]domain.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, domain.RoleAssignment{
			UserID:   userID,
			RoleName: row.Name,
			TenantID: row.TenantID,
		})
	}
	return assignments, nil
}
