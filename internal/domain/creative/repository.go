package creative

import "context"

// Repository persists resolved creative records.
type Repository interface {
	// Upsert writes the record idempotently on (tenant, ad ID), overwriting
	// any prior resolution.
	Upsert(ctx context.Context, rec *Record) error
	GetByAdID(ctx context.Context, tenantID uint, adID string) (*Record, error)
	ListByAccount(ctx context.Context, tenantID, accountID uint, limit int) ([]*Record, error)
}
