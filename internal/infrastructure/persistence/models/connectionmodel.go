package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConnectionModel represents the database persistence model for platform
// connections. This is the anti-corruption layer between domain and database.
type ConnectionModel struct {
	ID              uint   `gorm:"primarykey"`
	SID             string `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: conn_xxx"`
	UUID            string `gorm:"uniqueIndex;not null;size:36"`
	TenantID        uint   `gorm:"not null;index:idx_tenant_platform,priority:1"`
	Platform        string `gorm:"not null;size:20;index:idx_tenant_platform,priority:2"`
	TokenCiphertext string `gorm:"not null;size:4096"`
	TokenPlaintext  bool   `gorm:"not null;default:false"`
	LongLived       bool   `gorm:"not null;default:false"`
	TokenExpiresAt  *time.Time
	Scopes          datatypes.JSON
	Status          string `gorm:"not null;size:20;index:idx_conn_status"`
	LastValidatedAt *time.Time
	IsDefault       bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (ConnectionModel) TableName() string {
	return "platform_connections"
}
