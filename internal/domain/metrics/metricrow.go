// Package metrics models normalized performance rows and raw snapshots.
package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Level is the reporting entity level of a metric row.
type Level string

const (
	LevelCampaign Level = "campaign"
	LevelAdSet    Level = "adset"
	LevelAd       Level = "ad"
)

// ParseLevel validates a level string.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelCampaign:
		return LevelCampaign, nil
	case LevelAdSet:
		return LevelAdSet, nil
	case LevelAd:
		return LevelAd, nil
	}
	return "", fmt.Errorf("unknown entity level: %q", s)
}

// AllLevels lists every supported level in fetch order.
func AllLevels() []Level {
	return []Level{LevelCampaign, LevelAdSet, LevelAd}
}

// Row is one normalized metric fact, upserted on the composite key
// (tenant, account, level, entity ID, date).
type Row struct {
	TenantID   uint
	AccountID  uint
	Level      Level
	EntityID   string
	EntityName string
	Date       time.Time

	Spend           float64
	Impressions     int64
	Clicks          int64
	CTR             float64
	CPC             float64
	CPM             float64
	Conversions     float64
	ConversionValue float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the upsert key is complete.
func (r *Row) Validate() error {
	if r.TenantID == 0 || r.AccountID == 0 {
		return fmt.Errorf("tenant and account are required")
	}
	if r.EntityID == "" {
		return fmt.Errorf("entity ID is required")
	}
	if _, err := ParseLevel(string(r.Level)); err != nil {
		return err
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// ComputeRates fills the derived rate fields from the base facts.
func (r *Row) ComputeRates() {
	if r.Impressions > 0 {
		r.CTR = float64(r.Clicks) / float64(r.Impressions) * 100
		r.CPM = r.Spend / float64(r.Impressions) * 1000
	}
	if r.Clicks > 0 {
		r.CPC = r.Spend / float64(r.Clicks)
	}
}

// Snapshot is an immutable raw payload captured before normalization, kept
// for audit and replay.
type Snapshot struct {
	TenantID  uint
	AccountID uint
	Level     Level
	JobID     string
	Payload   []byte
	CreatedAt time.Time
}
