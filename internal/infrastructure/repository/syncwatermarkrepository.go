package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	syncdomain "github.com/meridian-ads/meridian/internal/domain/sync"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/mappers"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
	"github.com/meridian-ads/meridian/internal/shared/db"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

// SyncWatermarkRepository implements the sync.WatermarkRepository interface
// using GORM.
type SyncWatermarkRepository struct {
	db     *gorm.DB
	mapper mappers.SyncWatermarkMapper
}

// NewSyncWatermarkRepository creates a new SyncWatermarkRepository.
func NewSyncWatermarkRepository(gdb *gorm.DB) syncdomain.WatermarkRepository {
	return &SyncWatermarkRepository{
		db:     gdb,
		mapper: mappers.NewSyncWatermarkMapper(),
	}
}

// GetOrCreate returns the watermark for (tenant, account), creating an
// enabled empty one when absent.
func (r *SyncWatermarkRepository) GetOrCreate(ctx context.Context, tenantID, accountID uint) (*syncdomain.Watermark, error) {
	wm, err := r.Get(ctx, tenantID, accountID)
	if err == nil {
		return wm, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	fresh, err := syncdomain.NewWatermark(tenantID, accountID)
	if err != nil {
		return nil, err
	}
	model, err := r.mapper.ToModel(fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to map watermark: %w", err)
	}
	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		// Lost a create race; the row exists now.
		if existing, getErr := r.Get(ctx, tenantID, accountID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create watermark: %w", err)
	}
	if err := fresh.SetID(model.ID); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *SyncWatermarkRepository) Get(ctx context.Context, tenantID, accountID uint) (*syncdomain.Watermark, error) {
	var model models.SyncWatermarkModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("watermark not found")
		}
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *SyncWatermarkRepository) Update(ctx context.Context, wm *syncdomain.Watermark) error {
	model, err := r.mapper.ToModel(wm)
	if err != nil {
		return fmt.Errorf("failed to map watermark: %w", err)
	}
	result := db.FromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update watermark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("watermark not found")
	}
	return nil
}

func (r *SyncWatermarkRepository) ListEnabled(ctx context.Context) ([]*syncdomain.Watermark, error) {
	var wmModels []*models.SyncWatermarkModel
	err := db.FromContext(ctx, r.db).
		Where("enabled = ?", true).
		Order("id").
		Find(&wmModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled watermarks: %w", err)
	}
	return r.mapper.ToEntities(wmModels)
}
