package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncJobModel represents the database persistence model for sync job runs.
type SyncJobModel struct {
	ID                uint      `gorm:"primarykey"`
	JobID             string    `gorm:"uniqueIndex;not null;size:26;comment:time-ordered ULID"`
	TenantID          uint      `gorm:"not null;index:idx_job_tenant_account,priority:1"`
	AccountID         uint      `gorm:"not null;index:idx_job_tenant_account,priority:2"`
	Kind              string    `gorm:"not null;size:16"`
	SinceDate         time.Time `gorm:"not null"`
	UntilDate         time.Time `gorm:"not null"`
	Status            string    `gorm:"not null;size:16;index:idx_job_status"`
	RowsByLevel       datatypes.JSON
	CreativesResolved int    `gorm:"not null;default:0"`
	CreativesFailed   int    `gorm:"not null;default:0"`
	ErrorText         string `gorm:"size:2048"`
	StartedAt         time.Time
	FinishedAt        *time.Time
	DurationMS        int64 `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// SyncWatermarkModel represents the database persistence model for per-account
// sync cursors.
type SyncWatermarkModel struct {
	ID             uint `gorm:"primarykey"`
	TenantID       uint `gorm:"not null;uniqueIndex:idx_wm_tenant_account,priority:1"`
	AccountID      uint `gorm:"not null;uniqueIndex:idx_wm_tenant_account,priority:2"`
	LastDailyDate  *time.Time
	LastIntradayAt *time.Time
	LastSuccessAt  *time.Time
	LastError      string `gorm:"size:2048"`
	Enabled        bool   `gorm:"not null;default:true;index:idx_wm_enabled"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (SyncWatermarkModel) TableName() string {
	return "sync_watermarks"
}
