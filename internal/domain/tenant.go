package domain

import "time"

// SystemTenantID is the reserved tenant that owns public resources. It is
// never returned by domain or header resolution and always exists in the
// tenants table.
const SystemTenantID = "00000000-0000-0000-0000-000000000000"

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

type Tenant struct {
	ID            string
	OwnerUserID   string
	AppID         string
	IsPro         bool
	PrimaryDomain string
	Status        string
	CreatedAt     time.Time
}

// ResolvedFrom records which resolution source produced a TenantContext.
type ResolvedFrom string

const (
	ResolvedFromDomain  ResolvedFrom = "domain"
	ResolvedFromHeader  ResolvedFrom = "header"
	ResolvedFromSession ResolvedFrom = "session"
	ResolvedFromDefault ResolvedFrom = "default"
)

// TenantContext is the per-request resolution result. TenantID always names
// an existing tenant (the system tenant in the degraded case); it is never
// empty.
type TenantContext struct {
	UserID            string
	TenantID          string
	TenantOwnerUserID string
	AppID             string
	IsPro             bool
	ResolvedFrom      ResolvedFrom
}

// SystemContext returns the most restrictive usable context: the system
// tenant with no owner. userID may be empty for anonymous requests.
func SystemContext(userID, appID string, from ResolvedFrom) TenantContext {
	return TenantContext{
		UserID:       userID,
		TenantID:     SystemTenantID,
		AppID:        appID,
		ResolvedFrom: from,
	}
}
