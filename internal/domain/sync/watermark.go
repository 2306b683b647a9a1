package sync

import (
	"fmt"
	"time"

	"github.com/meridian-ads/meridian/internal/shared/biztime"
)

// Watermark is the per-account sync cursor. last daily date synced only moves
// forward, and only after a daily job completes.
type Watermark struct {
	internalID     uint
	tenantID       uint
	accountID      uint
	lastDailyDate  *time.Time
	lastIntradayAt *time.Time
	lastSuccessAt  *time.Time
	lastError      string
	enabled        bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewWatermark creates an enabled watermark with no progress yet.
func NewWatermark(tenantID, accountID uint) (*Watermark, error) {
	if tenantID == 0 || accountID == 0 {
		return nil, fmt.Errorf("tenant and account are required")
	}
	now := time.Now().UTC()
	return &Watermark{
		tenantID:  tenantID,
		accountID: accountID,
		enabled:   true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWatermarkParams carries persisted state back into the aggregate.
type ReconstructWatermarkParams struct {
	ID             uint
	TenantID       uint
	AccountID      uint
	LastDailyDate  *time.Time
	LastIntradayAt *time.Time
	LastSuccessAt  *time.Time
	LastError      string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReconstructWatermark rebuilds a watermark from persistence.
func ReconstructWatermark(p ReconstructWatermarkParams) (*Watermark, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("watermark ID cannot be zero")
	}
	return &Watermark{
		internalID:     p.ID,
		tenantID:       p.TenantID,
		accountID:      p.AccountID,
		lastDailyDate:  p.LastDailyDate,
		lastIntradayAt: p.LastIntradayAt,
		lastSuccessAt:  p.LastSuccessAt,
		lastError:      p.LastError,
		enabled:        p.Enabled,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (w *Watermark) ID() uint                   { return w.internalID }
func (w *Watermark) TenantID() uint             { return w.tenantID }
func (w *Watermark) AccountID() uint            { return w.accountID }
func (w *Watermark) LastDailyDate() *time.Time  { return w.lastDailyDate }
func (w *Watermark) LastIntradayAt() *time.Time { return w.lastIntradayAt }
func (w *Watermark) LastSuccessAt() *time.Time  { return w.lastSuccessAt }
func (w *Watermark) LastError() string          { return w.lastError }
func (w *Watermark) Enabled() bool              { return w.enabled }
func (w *Watermark) CreatedAt() time.Time       { return w.createdAt }
func (w *Watermark) UpdatedAt() time.Time       { return w.updatedAt }

// SetID records the persistence-assigned ID after Create.
func (w *Watermark) SetID(dbID uint) error {
	if w.internalID != 0 {
		return fmt.Errorf("watermark ID already set")
	}
	w.internalID = dbID
	return nil
}

// AdvanceDaily moves the daily cursor forward to date. The cursor is
// monotonic: an older date is silently ignored so replayed or overlapping
// backfills cannot rewind progress.
func (w *Watermark) AdvanceDaily(date time.Time) {
	day := biztime.StartOfDay(date)
	if w.lastDailyDate != nil && !day.After(*w.lastDailyDate) {
		return
	}
	w.lastDailyDate = &day
	w.updatedAt = time.Now().UTC()
}

// RecordIntraday stamps the intraday cursor.
func (w *Watermark) RecordIntraday(at time.Time) {
	at = at.UTC()
	w.lastIntradayAt = &at
	w.updatedAt = time.Now().UTC()
}

// RecordSuccess stamps the success cursor and clears the last error.
func (w *Watermark) RecordSuccess(at time.Time) {
	at = at.UTC()
	w.lastSuccessAt = &at
	w.lastError = ""
	w.updatedAt = time.Now().UTC()
}

// RecordError stores the most recent failure summary.
func (w *Watermark) RecordError(text string) {
	w.lastError = text
	w.updatedAt = time.Now().UTC()
}

// SetEnabled toggles scheduled syncing for the account.
func (w *Watermark) SetEnabled(enabled bool) {
	w.enabled = enabled
	w.updatedAt = time.Now().UTC()
}
