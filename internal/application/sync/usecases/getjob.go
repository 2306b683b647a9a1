package usecases

import (
	"context"

	syncdomain "github.com/meridian-ads/meridian/internal/domain/sync"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

type GetSyncJobCommand struct {
	TenantID uint
	JobID    string
}

type GetSyncJobResult struct {
	Job *syncdomain.Job
}

// GetSyncJobUseCase reads one job by its public ULID.
type GetSyncJobUseCase struct {
	jobRepo syncdomain.JobRepository
}

func NewGetSyncJobUseCase(jobRepo syncdomain.JobRepository) *GetSyncJobUseCase {
	return &GetSyncJobUseCase{jobRepo: jobRepo}
}

func (uc *GetSyncJobUseCase) Execute(ctx context.Context, cmd GetSyncJobCommand) (*GetSyncJobResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}
	if cmd.JobID == "" {
		return nil, apperrors.NewValidationError("job ID is required")
	}

	job, err := uc.jobRepo.GetByJobID(ctx, cmd.TenantID, cmd.JobID)
	if err != nil {
		return nil, err
	}
	return &GetSyncJobResult{Job: job}, nil
}
