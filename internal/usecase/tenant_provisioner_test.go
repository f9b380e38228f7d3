package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gatehouse/internal/domain"
)

func TestProvisioner_CreatesOnce(t *testing.T) {
	tenants := newMemTenantRepo()
	roles := newMemRoleRepo()
	p := NewTenantProvisioner(tenants, roles, "web", quietLogger())

	first, err := p.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	if first.OwnerUserID != "user-1" {
		t.Fatalf("expected owner user-1, got %s", first.OwnerUserID)
	}
	if first.Status != domain.TenantStatusActive {
		t.Fatalf("expected active tenant, got %s", first.Status)
	}

	second, err := p.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same tenant id, got %s and %s", first.ID, second.ID)
	}
	if len(tenants.byID) != 1 {
		t.Fatalf("expected exactly one tenant row, got %d", len(tenants.byID))
	}
}

func TestProvisioner_GrantsProducerRoleToOwner(t *testing.T) {
	tenants := newMemTenantRepo()
	roles := newMemRoleRepo()
	p := NewTenantProvisioner(tenants, roles, "web", quietLogger())

	tenant, err := p.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if roles.assignmentCount("user-1", domain.RoleProducer, tenant.ID) != 1 {
		t.Fatal("expected producer role assigned to owner in own tenant")
	}
}

func TestProvisioner_ConflictRecoversToWinner(t *testing.T) {
	tenants := newMemTenantRepo()
	winner := domain.Tenant{ID: "t-winner", OwnerUserID: "user-1", AppID: "web", Status: domain.TenantStatusActive}

	// Simulate losing the race: the lookup misses, then the insert hits the
	// uniqueness constraint because the winner's row landed in between.
	raced := &racingTenantRepo{memTenantRepo: tenants, winner: winner}
	p := NewTenantProvisioner(raced, newMemRoleRepo(), "web", quietLogger())

	got, err := p.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate after conflict: %v", err)
	}
	if got.ID != "t-winner" {
		t.Fatalf("expected winner's tenant, got %s", got.ID)
	}
}

// racingTenantRepo injects the winner's row between the first lookup and the
// insert attempt.
type racingTenantRepo struct {
	*memTenantRepo
	winner   domain.Tenant
	injected bool
	mu       sync.Mutex
}

func (r *racingTenantRepo) GetByOwner(ctx context.Context, ownerUserID string) (*domain.Tenant, error) {
	r.mu.Lock()
	first := !r.injected
	r.mu.Unlock()
	if first {
		return nil, domain.ErrNotFound
	}
	return r.memTenantRepo.GetByOwner(ctx, ownerUserID)
}

func (r *racingTenantRepo) Create(ctx context.Context, tenant domain.Tenant) error {
	r.mu.Lock()
	if !r.injected {
		r.injected = true
		r.memTenantRepo.add(r.winner)
	}
	r.mu.Unlock()
	return r.memTenantRepo.Create(ctx, tenant)
}

// flakyRoleRepo fails the first AssignRole calls, then recovers.
type flakyRoleRepo struct {
	*memRoleRepo
	failures int
	mu       sync.Mutex
}

func (f *flakyRoleRepo) AssignRole(ctx context.Context, userID, roleName, tenantID string) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errors.New("role store unavailable")
	}
	f.mu.Unlock()
	return f.memRoleRepo.AssignRole(ctx, userID, roleName, tenantID)
}

func TestProvisioner_OwnerGrantHealsOnNextCall(t *testing.T) {
	tenants := newMemTenantRepo()
	roles := &flakyRoleRepo{memRoleRepo: newMemRoleRepo(), failures: 1}
	p := NewTenantProvisioner(tenants, roles, "web", quietLogger())

	tenant, err := p.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	if roles.assignmentCount("user-1", domain.RoleProducer, tenant.ID) != 0 {
		t.Fatal("expected no assignment while the role store is down")
	}

	again, err := p.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if again.ID != tenant.ID {
		t.Fatalf("expected same tenant, got %s and %s", tenant.ID, again.ID)
	}
	if roles.assignmentCount("user-1", domain.RoleProducer, tenant.ID) != 1 {
		t.Fatal("expected the owner grant re-asserted on the existing-tenant path")
	}
}

func TestProvisioner_ConcurrentFirstCalls(t *testing.T) {
	tenants := newMemTenantRepo()
	roles := newMemRoleRepo()
	p := NewTenantProvisioner(tenants, roles, "web", quietLogger())

	const n = 16
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tenant, err := p.GetOrCreate(context.Background(), "new-user")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = tenant.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("calls disagree on tenant id: %s vs %s", ids[0], ids[i])
		}
	}
	if len(tenants.byID) != 1 {
		t.Fatalf("expected exactly one tenant row, got %d", len(tenants.byID))
	}
}

func TestProvisioner_EmptyOwnerRejected(t *testing.T) {
	p := NewTenantProvisioner(newMemTenantRepo(), newMemRoleRepo(), "web", quietLogger())
	if _, err := p.GetOrCreate(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty owner user id")
	}
}
