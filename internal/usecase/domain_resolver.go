package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"gatehouse/internal/domain"
)

// DomainOwnership is the outcome of a host lookup: which tenant has the host
// bound as its primary domain.
type DomainOwnership struct {
	TenantID string
	AppID    string
}

// DomainOwnershipResolver maps a request host to a tenant. Localhost-family
// hosts and configured shared domains never resolve; unbound hosts resolve
// to nil so callers fall through to lower-priority resolution.
type DomainOwnershipResolver struct {
	tenants       TenantRepository
	cache         DomainCache
	sharedDomains []string
}

func NewDomainOwnershipResolver(tenants TenantRepository, cache DomainCache, sharedDomains []string) *DomainOwnershipResolver {
	normalized := make([]string, 0, len(sharedDomains))
	for _, d := range sharedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &DomainOwnershipResolver{
		tenants:       tenants,
		cache:         cache,
		sharedDomains: normalized,
	}
}

func (r *DomainOwnershipResolver) Resolve(ctx context.Context, host string) (*DomainOwnership, error) {
	host = NormalizeHost(host)
	if host == "" || isLocalHost(host) || r.isSharedDomain(host) {
		return nil, nil
	}

	if r.cache != nil {
		if tenantID, err := r.cache.GetDomainTenant(ctx, host); err == nil && tenantID != "" {
			tenant, err := r.tenants.GetByID(ctx, tenantID)
			if err == nil {
				return &DomainOwnership{TenantID: tenant.ID, AppID: tenant.AppID}, nil
			}
			// Stale cache entry; fall through to the direct lookup.
		}
	}

	tenant, err := r.tenants.GetByDomain(ctx, host)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup domain %q: %w", host, err)
	}
	if r.cache != nil {
		_ = r.cache.SetDomainTenant(ctx, host, tenant.ID)
	}
	return &DomainOwnership{TenantID: tenant.ID, AppID: tenant.AppID}, nil
}

// NormalizeHost lowercases and strips any port from a Host header value.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func isLocalHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func (r *DomainOwnershipResolver) isSharedDomain(host string) bool {
	for _, shared := range r.sharedDomains {
		if host == shared || strings.HasSuffix(host, "."+shared) {
			return true
		}
	}
	return false
}
