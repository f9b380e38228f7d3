package main

import (
	"context"
	"log"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/domain"
	"gatehouse/internal/infra/db"
	httpinfra "gatehouse/internal/infra/http"
)

// Permissions attached to the built-in roles on first boot. EnsureRole only
// adds what is missing, so operator-added grants survive restarts.
var builtinRoles = map[string][]string{
	domain.RoleViewer:    {"tickets:read"},
	domain.RoleModerator: {"tickets:read", "chat:moderate"},
	domain.RoleProducer:  {"tickets:read", "tickets:update", "tenant:read", "orders:read"},
	domain.RoleAdmin:     {"tickets:read", "tickets:update", "tenant:read", "tenant:update", "orders:read", "orders:update"},
}

func main() {
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	if store.DB != nil {
		if err := store.Migrate(); err != nil {
			log.Fatalf("failed to migrate schema: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureSystemTenant(ctx, cfg.DefaultAppID); err != nil {
			log.Fatalf("failed to ensure system tenant: %v", err)
		}
		roles := db.NewRoleRepository(store.DB)
		for name, permissions := range builtinRoles {
			if _, err := roles.EnsureRole(ctx, name, permissions); err != nil {
				log.Fatalf("failed to seed role %s: %v", name, err)
			}
		}
	}

	srv := httpinfra.NewServer(cfg, store)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
