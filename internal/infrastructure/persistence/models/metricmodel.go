package models

import (
	"time"

	"gorm.io/datatypes"
)

// MetricRowModel represents the database persistence model for normalized
// metric facts. The composite unique index is the idempotency key for upserts.
type MetricRowModel struct {
	ID         uint      `gorm:"primarykey"`
	TenantID   uint      `gorm:"not null;uniqueIndex:idx_metric_fact,priority:1"`
	AccountID  uint      `gorm:"not null;uniqueIndex:idx_metric_fact,priority:2"`
	Level      string    `gorm:"not null;size:16;uniqueIndex:idx_metric_fact,priority:3"`
	EntityID   string    `gorm:"not null;size:64;uniqueIndex:idx_metric_fact,priority:4"`
	Date       time.Time `gorm:"not null;uniqueIndex:idx_metric_fact,priority:5;index:idx_metric_date"`
	EntityName string    `gorm:"size:255"`

	Spend           float64 `gorm:"not null;default:0"`
	Impressions     int64   `gorm:"not null;default:0"`
	Clicks          int64   `gorm:"not null;default:0"`
	CTR             float64 `gorm:"not null;default:0"`
	CPC             float64 `gorm:"not null;default:0"`
	CPM             float64 `gorm:"not null;default:0"`
	Conversions     float64 `gorm:"not null;default:0"`
	ConversionValue float64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (MetricRowModel) TableName() string {
	return "ad_metrics"
}

// MetricSnapshotModel is the append-only raw payload captured before
// normalization.
type MetricSnapshotModel struct {
	ID        uint   `gorm:"primarykey"`
	TenantID  uint   `gorm:"not null;index:idx_snap_tenant_account,priority:1"`
	AccountID uint   `gorm:"not null;index:idx_snap_tenant_account,priority:2"`
	Level     string `gorm:"not null;size:16"`
	JobID     string `gorm:"not null;size:26;index:idx_snap_job"`
	Payload   datatypes.JSON
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (MetricSnapshotModel) TableName() string {
	return "metric_snapshots"
}
