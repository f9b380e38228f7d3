package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		log.Printf("POSTGRES_DSN not set; starting in no-db mode.")
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Store{DB: gdb}, nil
}

func (s *Store) Migrate() error {
	if s.DB == nil {
		return errDBUnavailable
	}
	return s.DB.AutoMigrate(
		&TenantModel{},
		&RoleModel{},
		&RolePermissionModel{},
		&UserRoleModel{},
	)
}

// EnsureSystemTenant creates the reserved system tenant row if it is absent.
// Resolution relies on this row existing, so it runs at startup.
func (s *Store) EnsureSystemTenant(ctx context.Context, appID string) error {
	if s.DB == nil {
		return errDBUnavailable
	}
	model := TenantModel{
		ID:          domain.SystemTenantID,
		OwnerUserID: domain.SystemTenantID,
		AppID:       appID,
		Status:      domain.TenantStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	err := s.DB.WithContext(ctx).Create(&model).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("ensure system tenant: %w", err)
	}
	return nil
}
