package usecases

import (
	"context"

	"github.com/meridian-ads/meridian/internal/domain/account"
	syncdomain "github.com/meridian-ads/meridian/internal/domain/sync"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

type GetWatermarkCommand struct {
	TenantID   uint
	AccountSID string
}

type GetWatermarkResult struct {
	Watermark *syncdomain.Watermark
	Account   *account.AdAccount
}

// GetWatermarkUseCase reads the sync watermark for an account.
type GetWatermarkUseCase struct {
	acctRepo account.Repository
	wmRepo   syncdomain.WatermarkRepository
}

func NewGetWatermarkUseCase(acctRepo account.Repository, wmRepo syncdomain.WatermarkRepository) *GetWatermarkUseCase {
	return &GetWatermarkUseCase{acctRepo: acctRepo, wmRepo: wmRepo}
}

func (uc *GetWatermarkUseCase) Execute(ctx context.Context, cmd GetWatermarkCommand) (*GetWatermarkResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}

	acct, err := uc.acctRepo.GetBySID(ctx, cmd.TenantID, cmd.AccountSID)
	if err != nil {
		return nil, err
	}

	wm, err := uc.wmRepo.Get(ctx, cmd.TenantID, acct.ID())
	if err != nil {
		return nil, err
	}
	return &GetWatermarkResult{Watermark: wm, Account: acct}, nil
}
