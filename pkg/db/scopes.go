package db

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantScope restricts a query to one tenant's rows.
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// TenantScopeOn is TenantScope for joined queries where the column must be qualified.
func TenantScopeOn(table string, tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".tenant_id = ?", tenantID)
	}
}
