package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gatehouse/internal/domain"

	"github.com/google/uuid"
)

// TenantProvisioner creates-or-fetches the tenant owned by a user. The
// owner_user_id uniqueness constraint is what makes the first-call race safe:
// lookup, try-insert, and on a conflict re-fetch the winner's row. A naive
// check-then-insert without the constraint would mint two tenants.
type TenantProvisioner struct {
	tenants      TenantRepository
	roles        RoleRepository
	defaultAppID string
	logger       *log.Logger
}

func NewTenantProvisioner(tenants TenantRepository, roles RoleRepository, defaultAppID string, logger *log.Logger) *TenantProvisioner {
	if logger == nil {
		logger = log.Default()
	}
	return &TenantProvisioner{
		tenants:      tenants,
		roles:        roles,
		defaultAppID: defaultAppID,
		logger:       logger,
	}
}

func (p *TenantProvisioner) GetOrCreate(ctx context.Context, ownerUserID string) (*domain.Tenant, error) {
	if ownerUserID == "" {
		return nil, errors.New("owner user id is required")
	}

	existing, err := p.tenants.GetByOwner(ctx, ownerUserID)
	if err == nil {
		if p.roles != nil {
			// Re-assert the owner grant so a failure at creation time heals
			// on the next call. Both steps are idempotent.
			if grantErr := p.grantOwnerRole(ctx, ownerUserID, existing.ID); grantErr != nil {
				p.logger.Printf("warn: owner role grant for user %s failed: %v", ownerUserID, grantErr)
			}
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup tenant by owner: %w", err)
	}

	tenant := domain.Tenant{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		AppID:       p.defaultAppID,
		Status:      domain.TenantStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	// The insert is a single atomic statement; a cancelled request cannot
	// leave a half-provisioned row behind.
	err = p.tenants.Create(ctx, tenant)
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("create tenant: %w", err)
		}
		// Lost the race: another request inserted the owner's tenant
		// between our lookup and insert. Their row wins.
		winner, fetchErr := p.tenants.GetByOwner(ctx, ownerUserID)
		if fetchErr != nil {
			return nil, fmt.Errorf("refetch tenant after conflict: %w", fetchErr)
		}
		return winner, nil
	}

	if p.roles != nil {
		// The tenant exists either way; the grant is re-asserted on the next
		// GetOrCreate for this owner.
		if grantErr := p.grantOwnerRole(ctx, ownerUserID, tenant.ID); grantErr != nil {
			p.logger.Printf("warn: owner role grant for user %s failed: %v", ownerUserID, grantErr)
		}
	}
	return &tenant, nil
}

func (p *TenantProvisioner) grantOwnerRole(ctx context.Context, ownerUserID, tenantID string) error {
	if _, err := p.roles.EnsureRole(ctx, domain.RoleProducer, nil); err != nil {
		return err
	}
	return p.roles.AssignRole(ctx, ownerUserID, domain.RoleProducer, tenantID)
}
