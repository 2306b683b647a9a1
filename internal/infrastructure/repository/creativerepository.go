package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/mappers"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
	"github.com/meridian-ads/meridian/internal/shared/db"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

// CreativeRepository implements the creative.Repository interface using GORM.
type CreativeRepository struct {
	db     *gorm.DB
	mapper mappers.CreativeMapper
}

// NewCreativeRepository creates a new CreativeRepository.
func NewCreativeRepository(gdb *gorm.DB) creative.Repository {
	return &CreativeRepository{
		db:     gdb,
		mapper: mappers.NewCreativeMapper(),
	}
}

// Upsert overwrites the record for (tenant, ad ID). Each re-resolution
// replaces the prior values wholesale.
func (r *CreativeRepository) Upsert(ctx context.Context, rec *creative.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid creative record: %w", err)
	}
	model, err := r.mapper.ToModel(rec)
	if err != nil {
		return fmt.Errorf("failed to map creative record: %w", err)
	}

	err = db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "ad_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"account_id", "creative_type", "media_url", "media_url_hd",
				"width", "height", "quality", "texts", "fetch_status",
				"video_id", "image_hash", "post_id",
				"cached_media_url", "cached_bytes", "raw_source",
				"resolved_at", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert creative record: %w", err)
	}
	return nil
}

func (r *CreativeRepository) GetByAdID(ctx context.Context, tenantID uint, adID string) (*creative.Record, error) {
	var model models.CreativeRecordModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND ad_id = ?", tenantID, adID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("creative record not found")
		}
		return nil, fmt.Errorf("failed to get creative record: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *CreativeRepository) ListByAccount(ctx context.Context, tenantID, accountID uint, limit int) ([]*creative.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	var recModels []*models.CreativeRecordModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&recModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list creative records: %w", err)
	}
	return r.mapper.ToEntities(recModels)
}
