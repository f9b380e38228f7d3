package db

import "time"

type TenantModel struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	OwnerUserID   string `gorm:"type:uuid;uniqueIndex;not null"`
	AppID         string `gorm:"not null"`
	IsPro         bool   `gorm:"not null;default:false"`
	PrimaryDomain *string `gorm:"uniqueIndex"`
	Status        string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (TenantModel) TableName() string { return "tenants" }

type RoleModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (RoleModel) TableName() string { return "roles" }

type RolePermissionModel struct {
	ID         int64  `gorm:"primaryKey"`
	RoleID     string `gorm:"type:uuid;uniqueIndex:idx_role_permission;not null"`
	Permission string `gorm:"uniqueIndex:idx_role_permission;not null"`
}

func (RolePermissionModel) TableName() string { return "role_permissions" }

type UserRoleModel struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    string    `gorm:"type:uuid;uniqueIndex:idx_user_role_tenant;index;not null"`
	RoleID    string    `gorm:"type:uuid;uniqueIndex:idx_user_role_tenant;index;not null"`
	TenantID  string    `gorm:"type:uuid;uniqueIndex:idx_user_role_tenant;index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserRoleModel) TableName() string { return "user_roles" }
