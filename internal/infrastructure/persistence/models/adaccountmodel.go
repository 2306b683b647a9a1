package models

import (
	"time"

	"gorm.io/gorm"
)

// AdAccountModel represents the database persistence model for external ad
// accounts.
type AdAccountModel struct {
	ID                  uint   `gorm:"primarykey"`
	SID                 string `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: acct_xxx"`
	TenantID            uint   `gorm:"not null;uniqueIndex:idx_tenant_external,priority:1"`
	ExternalID          string `gorm:"not null;size:64;uniqueIndex:idx_tenant_external,priority:2"`
	Name                string `gorm:"size:255"`
	Currency            string `gorm:"not null;size:3"`
	Status              string `gorm:"size:32"`
	PrimaryConnectionID uint   `gorm:"not null;index:idx_primary_connection"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (AdAccountModel) TableName() string {
	return "ad_accounts"
}

// AccountAccessModel is the many-to-many grant between ad accounts and the
// connections allowed to read them.
type AccountAccessModel struct {
	ID           uint `gorm:"primarykey"`
	AccountID    uint `gorm:"not null;uniqueIndex:idx_account_connection,priority:1"`
	ConnectionID uint `gorm:"not null;uniqueIndex:idx_account_connection,priority:2"`
	CreatedAt    time.Time
}

// TableName specifies the table name for GORM
func (AccountAccessModel) TableName() string {
	return "ad_account_connections"
}
