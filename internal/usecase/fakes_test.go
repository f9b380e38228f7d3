package usecase

import (
	"context"
	"sync"

	"gatehouse/internal/domain"
)

// memTenantRepo mimics the tenants table including its owner_user_id
// uniqueness constraint, so provisioning races behave as they would against
// postgres.
type memTenantRepo struct {
	mu       sync.Mutex
	byID     map[string]domain.Tenant
	byOwner  map[string]string
	byDomain map[string]string

	failGetByID  error
	failGetOwner error
	createCalls  int
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{
		byID:     make(map[string]domain.Tenant),
		byOwner:  make(map[string]string),
		byDomain: make(map[string]string),
	}
}

func (m *memTenantRepo) Create(_ context.Context, tenant domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.byID[tenant.ID]; ok {
		return domain.ErrConflict
	}
	if _, ok := m.byOwner[tenant.OwnerUserID]; ok {
		return domain.ErrConflict
	}
	m.byID[tenant.ID] = tenant
	m.byOwner[tenant.OwnerUserID] = tenant.ID
	if tenant.PrimaryDomain != "" {
		m.byDomain[tenant.PrimaryDomain] = tenant.ID
	}
	return nil
}

func (m *memTenantRepo) GetByID(_ context.Context, tenantID string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetByID != nil {
		return nil, m.failGetByID
	}
	tenant, ok := m.byID[tenantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := tenant
	return &out, nil
}

func (m *memTenantRepo) GetByOwner(_ context.Context, ownerUserID string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetOwner != nil {
		return nil, m.failGetOwner
	}
	id, ok := m.byOwner[ownerUserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := m.byID[id]
	return &out, nil
}

func (m *memTenantRepo) GetByDomain(_ context.Context, host string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byDomain[host]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := m.byID[id]
	return &out, nil
}

func (m *memTenantRepo) SetPrimaryDomain(_ context.Context, tenantID, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenant, ok := m.byID[tenantID]
	if !ok {
		return domain.ErrNotFound
	}
	if owner, taken := m.byDomain[host]; taken && owner != tenantID {
		return domain.ErrConflict
	}
	if tenant.PrimaryDomain != "" {
		delete(m.byDomain, tenant.PrimaryDomain)
	}
	tenant.PrimaryDomain = host
	m.byID[tenantID] = tenant
	if host != "" {
		m.byDomain[host] = tenantID
	}
	return nil
}

func (m *memTenantRepo) SetPro(_ context.Context, tenantID string, isPro bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenant, ok := m.byID[tenantID]
	if !ok {
		return domain.ErrNotFound
	}
	tenant.IsPro = isPro
	m.byID[tenantID] = tenant
	return nil
}

func (m *memTenantRepo) add(tenant domain.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[tenant.ID] = tenant
	m.byOwner[tenant.OwnerUserID] = tenant.ID
	if tenant.PrimaryDomain != "" {
		m.byDomain[tenant.PrimaryDomain] = tenant.ID
	}
}

// memRoleRepo is a map-backed RoleRepository with the same idempotence rules
// as the SQL implementation.
type memRoleRepo struct {
	mu          sync.Mutex
	roles       map[string]string              // name -> id
	permissions map[string]map[string]struct{} // role name -> permissions
	held        map[string]map[string]struct{} // userID|tenantID -> role names
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{
		roles:       make(map[string]string),
		permissions: make(map[string]map[string]struct{}),
		held:        make(map[string]map[string]struct{}),
	}
}

func heldKey(userID, tenantID string) string { return userID + "|" + tenantID }

func (m *memRoleRepo) GetRoleByName(_ context.Context, name string) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.roles[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Role{ID: id, Name: name}, nil
}

func (m *memRoleRepo) RoleNamesFor(_ context.Context, userID, tenantID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	for key, names := range m.held {
		if key == heldKey(userID, tenantID) || (tenantID == "" && hasPrefix(key, userID+"|")) {
			for name := range names {
				seen[name] = struct{}{}
			}
		}
	}
	var out []string
	for name := range seen {
		out = append(out, name)
	}
	return out, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (m *memRoleRepo) PermissionsOf(_ context.Context, roleName string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.permissions[roleName] {
		out = append(out, p)
	}
	return out, nil
}

func (m *memRoleRepo) EnsureRole(_ context.Context, name string, permissions []string) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.roles[name]
	if !ok {
		id = "role-" + name
		m.roles[name] = id
		m.permissions[name] = make(map[string]struct{})
	}
	for _, p := range permissions {
		m.permissions[name][p] = struct{}{}
	}
	return &domain.Role{ID: id, Name: name}, nil
}

func (m *memRoleRepo) AssignRole(_ context.Context, userID, roleName, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleName]; !ok {
		return domain.ErrNotFound
	}
	key := heldKey(userID, tenantID)
	if m.held[key] == nil {
		m.held[key] = make(map[string]struct{})
	}
	m.held[key][roleName] = struct{}{}
	return nil
}

func (m *memRoleRepo) RevokeRole(_ context.Context, userID, roleName, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held[heldKey(userID, tenantID)], roleName)
	return nil
}

func (m *memRoleRepo) DeleteRole(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.roles, name)
	delete(m.permissions, name)
	for _, names := range m.held {
		delete(names, name)
	}
	return nil
}

func (m *memRoleRepo) AssignmentsFor(_ context.Context, userID string) ([]domain.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RoleAssignment
	for key, names := range m.held {
		if !hasPrefix(key, userID+"|") {
			continue
		}
		tenantID := key[len(userID)+1:]
		for name := range names {
			out = append(out, domain.RoleAssignment{UserID: userID, RoleName: name, TenantID: tenantID})
		}
	}
	return out, nil
}

func (m *memRoleRepo) assignmentCount(userID, roleName, tenantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[heldKey(userID, tenantID)][roleName]; ok {
		return 1
	}
	return 0
}

// memDomainCache records cache traffic for assertions.
type memDomainCache struct {
	mu   sync.Mutex
	data map[string]string
	gets int
	sets int
}

func newMemDomainCache() *memDomainCache {
	return &memDomainCache{data: make(map[string]string)}
}

func (m *memDomainCache) GetDomainTenant(_ context.Context, host string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	return m.data[host], nil
}

func (m *memDomainCache) SetDomainTenant(_ context.Context, host, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[host] = tenantID
	return nil
}

func (m *memDomainCache) DeleteDomainTenant(_ context.Context, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, host)
	return nil
}
