package db

import (
	"context"
	"errors"

	"gatehouse/internal/domain"

	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a tenant row. A uniqueness violation on owner_user_id (or
// id) is reported as domain.ErrConflict so the provisioner can re-fetch the
// winning row instead of failing.
func (r *TenantRepository) Create(ctx context.Context, tenant domain.Tenant) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := tenantToModel(tenant)
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return r.getOne(ctx, "id = ?", tenantID)
}

func (r *TenantRepository) GetByOwner(ctx context.Context, ownerUserID string) (*domain.Tenant, error) {
	return r.getOne(ctx, "owner_user_id = ?", ownerUserID)
}

func (r *TenantRepository) GetByDomain(ctx context.Context, host string) (*domain.Tenant, error) {
	return r.getOne(ctx, "primary_domain = ?", host)
}

func (r *TenantRepository) SetPrimaryDomain(ctx context.Context, tenantID, host string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	var value *string
	if host != "" {
		value = &host
	}
	res := r.db.WithContext(ctx).
		Model(&TenantModel{}).
		Where("id = ?", tenantID).
		Update("primary_domain", value)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) SetPro(ctx context.Context, tenantID string, isPro bool) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&TenantModel{}).
		Where("id = ?", tenantID).
		Update("is_pro", isPro)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) getOne(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model TenantModel
	err := r.db.WithContext(ctx).First(&model, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	tenant := modelToTenant(model)
	return &tenant, nil
}

func tenantToModel(tenant domain.Tenant) TenantModel {
	model := TenantModel{
		ID:          tenant.ID,
		OwnerUserID: tenant.OwnerUserID,
		AppID:       tenant.AppID,
		IsPro:       tenant.IsPro,
		Status:      tenant.Status,
		CreatedAt:   tenant.CreatedAt,
	}
	if tenant.PrimaryDomain != "" {
		model.PrimaryDomain = &tenant.PrimaryDomain
	}
	return model
}

func modelToTenant(model TenantModel) domain.Tenant {
	tenant := domain.Tenant{
		ID:          model.ID,
		OwnerUserID: model.OwnerUserID,
		AppID:       model.AppID,
		IsPro:       model.IsPro,
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
	}
	if model.PrimaryDomain != nil {
		tenant.PrimaryDomain = *model.PrimaryDomain
	}
	return tenant
}
