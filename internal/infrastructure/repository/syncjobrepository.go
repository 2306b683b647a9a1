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

// SyncJobRepository implements the sync.JobRepository interface using GORM.
type SyncJobRepository struct {
	db     *gorm.DB
	mapper mappers.SyncJobMapper
}

// NewSyncJobRepository creates a new SyncJobRepository.
func NewSyncJobRepository(gdb *gorm.DB) syncdomain.JobRepository {
	return &SyncJobRepository{
		db:     gdb,
		mapper: mappers.NewSyncJobMapper(),
	}
}

func (r *SyncJobRepository) Create(ctx context.Context, job *syncdomain.Job) error {
	model, err := r.mapper.ToModel(job)
	if err != nil {
		return fmt.Errorf("failed to map sync job: %w", err)
	}
	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create sync job: %w", err)
	}
	return job.SetID(model.ID)
}

func (r *SyncJobRepository) Update(ctx context.Context, job *syncdomain.Job) error {
	model, err := r.mapper.ToModel(job)
	if err != nil {
		return fmt.Errorf("failed to map sync job: %w", err)
	}
	result := db.FromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update sync job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("sync job not found")
	}
	return nil
}

func (r *SyncJobRepository) GetByJobID(ctx context.Context, tenantID uint, jobID string) (*syncdomain.Job, error) {
	var model models.SyncJobModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND job_id = ?", tenantID, jobID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("sync job not found")
		}
		return nil, fmt.Errorf("failed to get sync job: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *SyncJobRepository) ListByAccount(ctx context.Context, tenantID, accountID uint, limit int) ([]*syncdomain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobModels []*models.SyncJobModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Order("job_id DESC"). // ULIDs sort by creation time
		Limit(limit).
		Find(&jobModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync jobs: %w", err)
	}
	return r.mapper.ToEntities(jobModels)
}
