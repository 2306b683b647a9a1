package sync

import "context"

// JobRepository persists sync jobs.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	GetByJobID(ctx context.Context, tenantID uint, jobID string) (*Job, error)
	ListByAccount(ctx context.Context, tenantID, accountID uint, limit int) ([]*Job, error)
}

// WatermarkRepository persists per-account watermarks.
type WatermarkRepository interface {
	// GetOrCreate returns the watermark for (tenant, account), creating an
	// enabled empty one when absent.
	GetOrCreate(ctx context.Context, tenantID, accountID uint) (*Watermark, error)
	Get(ctx context.Context, tenantID, accountID uint) (*Watermark, error)
	Update(ctx context.Context, wm *Watermark) error
	ListEnabled(ctx context.Context) ([]*Watermark, error)
}
