package usecase

import (
	"context"
	"errors"
	"log"

	"gatehouse/internal/domain"
)

// Signals carries the per-request inputs tenant resolution consumes. The
// HTTP layer extracts them from headers and the authenticated identity
// before the resolver runs.
type Signals struct {
	// DomainResolved is set when an upstream step already mapped the host
	// to a tenant; DomainTenantID is that tenant.
	DomainResolved bool
	DomainTenantID string
	// HeaderTenantID is the explicit tenant-id header value, if any.
	HeaderTenantID string
	// UserID is the verified session identity, empty when anonymous.
	UserID string
}

// TenantContextResolver produces exactly one TenantContext per request.
// Resolve never fails: each source is tried in priority order (domain,
// header, session, default) and any lookup error logs a warning and falls
// through, degrading to the system tenant rather than an elevated context.
type TenantContextResolver struct {
	tenants      TenantRepository
	provisioner  Provisioner
	defaultAppID string
	logger       *log.Logger
}

func NewTenantContextResolver(tenants TenantRepository, provisioner Provisioner, defaultAppID string, logger *log.Logger) *TenantContextResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &TenantContextResolver{
		tenants:      tenants,
		provisioner:  provisioner,
		defaultAppID: defaultAppID,
		logger:       logger,
	}
}

func (r *TenantContextResolver) Resolve(ctx context.Context, sig Signals) domain.TenantContext {
	if sig.DomainResolved && sig.DomainTenantID != "" {
		if tc, ok := r.contextFromTenantID(ctx, sig.DomainTenantID, sig.UserID, domain.ResolvedFromDomain); ok {
			return tc
		}
		r.logger.Printf("warn: domain-resolved tenant %s not usable, falling through", sig.DomainTenantID)
	}

	if sig.HeaderTenantID != "" && sig.HeaderTenantID != domain.SystemTenantID {
		if tc, ok := r.contextFromTenantID(ctx, sig.HeaderTenantID, sig.UserID, domain.ResolvedFromHeader); ok {
			return tc
		}
		r.logger.Printf("warn: header tenant %s not found, falling through", sig.HeaderTenantID)
	}

	if sig.UserID != "" && r.provisioner != nil {
		tenant, err := r.provisioner.GetOrCreate(ctx, sig.UserID)
		if err == nil {
			return contextFromTenant(*tenant, sig.UserID, domain.ResolvedFromSession)
		}
		r.logger.Printf("warn: session tenant provisioning for user %s failed: %v", sig.UserID, err)
	}

	return domain.SystemContext(sig.UserID, r.defaultAppID, domain.ResolvedFromDefault)
}

// ResolveLocal classifies the same signals without touching the store, for
// call sites that cannot await I/O. Tenant ids are taken from the signals
// as-is; the session and default branches carry the system tenant since the
// user's own tenant cannot be provisioned synchronously.
func (r *TenantContextResolver) ResolveLocal(sig Signals) domain.TenantContext {
	if sig.DomainResolved && sig.DomainTenantID != "" {
		return domain.TenantContext{
			UserID:       sig.UserID,
			TenantID:     sig.DomainTenantID,
			AppID:        r.defaultAppID,
			ResolvedFrom: domain.ResolvedFromDomain,
		}
	}
	if sig.HeaderTenantID != "" && sig.HeaderTenantID != domain.SystemTenantID {
		return domain.TenantContext{
			UserID:       sig.UserID,
			TenantID:     sig.HeaderTenantID,
			AppID:        r.defaultAppID,
			ResolvedFrom: domain.ResolvedFromHeader,
		}
	}
	if sig.UserID != "" {
		return domain.SystemContext(sig.UserID, r.defaultAppID, domain.ResolvedFromSession)
	}
	return domain.SystemContext("", r.defaultAppID, domain.ResolvedFromDefault)
}

func (r *TenantContextResolver) contextFromTenantID(ctx context.Context, tenantID, userID string, from domain.ResolvedFrom) (domain.TenantContext, bool) {
	tenant, err := r.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("warn: tenant %s lookup error: %v", tenantID, err)
		}
		return domain.TenantContext{}, false
	}
	return contextFromTenant(*tenant, userID, from), true
}

func contextFromTenant(tenant domain.Tenant, userID string, from domain.ResolvedFrom) domain.TenantContext {
	return domain.TenantContext{
		UserID:            userID,
		TenantID:          tenant.ID,
		TenantOwnerUserID: tenant.OwnerUserID,
		AppID:             tenant.AppID,
		IsPro:             tenant.IsPro,
		ResolvedFrom:      from,
	}
}
