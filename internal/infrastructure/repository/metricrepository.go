package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meridian-ads/meridian/internal/domain/metrics"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/mappers"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
	"github.com/meridian-ads/meridian/internal/shared/db"
)

// MetricRepository implements the metrics.Repository interface using GORM.
// Rows are upserted on the composite fact key so replayed syncs are
// idempotent; snapshots are append-only.
type MetricRepository struct {
	db     *gorm.DB
	mapper *mappers.MetricMapper
}

// NewMetricRepository creates a new MetricRepository.
func NewMetricRepository(gdb *gorm.DB) metrics.Repository {
	return &MetricRepository{
		db:     gdb,
		mapper: mappers.NewMetricMapper(),
	}
}

const upsertChunkSize = 200

func (r *MetricRepository) UpsertRows(ctx context.Context, rows []*metrics.Row) error {
	if len(rows) == 0 {
		return nil
	}

	rowModels := make([]*models.MetricRowModel, 0, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("invalid metric row: %w", err)
		}
		rowModels = append(rowModels, r.mapper.RowToModel(row))
	}

	err := db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"}, {Name: "account_id"}, {Name: "level"},
				{Name: "entity_id"}, {Name: "date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"entity_name", "spend", "impressions", "clicks",
				"ctr", "cpc", "cpm", "conversions", "conversion_value",
				"updated_at",
			}),
		}).
		CreateInBatches(rowModels, upsertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert metric rows: %w", err)
	}
	return nil
}

func (r *MetricRepository) AppendSnapshots(ctx context.Context, snaps []*metrics.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	snapModels := make([]*models.MetricSnapshotModel, 0, len(snaps))
	for _, snap := range snaps {
		snapModels = append(snapModels, r.mapper.SnapshotToModel(snap))
	}

	err := db.FromContext(ctx, r.db).
		CreateInBatches(snapModels, upsertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to append metric snapshots: %w", err)
	}
	return nil
}

func (r *MetricRepository) ListRows(ctx context.Context, tenantID, accountID uint, level metrics.Level, since, until time.Time) ([]*metrics.Row, error) {
	var rowModels []*models.MetricRowModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND account_id = ? AND level = ? AND date >= ? AND date <= ?",
			tenantID, accountID, string(level), since, until).
		Order("date, entity_id").
		Find(&rowModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list metric rows: %w", err)
	}

	rows := make([]*metrics.Row, 0, len(rowModels))
	for _, model := range rowModels {
		rows = append(rows, r.mapper.RowToEntity(model))
	}
	return rows, nil
}

func (r *MetricRepository) CountRows(ctx context.Context, tenantID, accountID uint, level metrics.Level, since, until time.Time) (int64, error) {
	var count int64
	err := db.FromContext(ctx, r.db).
		Model(&models.MetricRowModel{}).
		Where("tenant_id = ? AND account_id = ? AND level = ? AND date >= ? AND date <= ?",
			tenantID, accountID, string(level), since, until).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count metric rows: %w", err)
	}
	return count, nil
}
