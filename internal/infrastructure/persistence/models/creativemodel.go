package models

import (
	"time"

	"gorm.io/datatypes"
)

// CreativeRecordModel represents the database persistence model for resolved
// ad creatives. One row per (tenant, ad); re-resolution overwrites it.
type CreativeRecordModel struct {
	ID        uint   `gorm:"primarykey"`
	TenantID  uint   `gorm:"not null;uniqueIndex:idx_creative_tenant_ad,priority:1"`
	AccountID uint   `gorm:"not null;index:idx_creative_account"`
	AdID      string `gorm:"not null;size:64;uniqueIndex:idx_creative_tenant_ad,priority:2"`

	CreativeType string `gorm:"not null;size:16"`
	MediaURL     string `gorm:"size:2048"`
	MediaURLHD   string `gorm:"size:2048"`
	Width        int    `gorm:"not null;default:0"`
	Height       int    `gorm:"not null;default:0"`
	Quality      string `gorm:"not null;size:16"`
	Texts        datatypes.JSON
	FetchStatus  string `gorm:"not null;size:16;index:idx_creative_status"`

	VideoID   string `gorm:"size:64"`
	ImageHash string `gorm:"size:64"`
	PostID    string `gorm:"size:128"`

	CachedMediaURL string `gorm:"size:2048"`
	CachedBytes    int64  `gorm:"not null;default:0"`

	RawSource datatypes.JSON

	ResolvedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (CreativeRecordModel) TableName() string {
	return "ad_creatives"
}
