package metrics

import (
	"context"
	"time"
)

// Repository persists metric rows and raw snapshots.
type Repository interface {
	// UpsertRows writes normalized rows idempotently on the composite key
	// (tenant, account, level, entity ID, date).
	UpsertRows(ctx context.Context, rows []*Row) error
	// AppendSnapshots writes raw payloads append-only.
	AppendSnapshots(ctx context.Context, snaps []*Snapshot) error

	ListRows(ctx context.Context, tenantID, accountID uint, level Level, since, until time.Time) ([]*Row, error)
	CountRows(ctx context.Context, tenantID, accountID uint, level Level, since, until time.Time) (int64, error)
}
