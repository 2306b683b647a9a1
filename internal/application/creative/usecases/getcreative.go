package usecases

import (
	"context"

	"github.com/meridian-ads/meridian/internal/domain/account"
	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

type GetCreativeCommand struct {
	TenantID   uint
	AccountSID string
	AdID       string
}

type GetCreativeResult struct {
	Record *creativedomain.Record
}

// GetCreativeUseCase reads a previously resolved creative record.
type GetCreativeUseCase struct {
	acctRepo account.Repository
	repo     creativedomain.Repository
}

func NewGetCreativeUseCase(acctRepo account.Repository, repo creativedomain.Repository) *GetCreativeUseCase {
	return &GetCreativeUseCase{acctRepo: acctRepo, repo: repo}
}

func (uc *GetCreativeUseCase) Execute(ctx context.Context, cmd GetCreativeCommand) (*GetCreativeResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}
	if cmd.AdID == "" {
		return nil, apperrors.NewValidationError("ad ID is required")
	}

	// The account lookup scopes the read and confirms the caller's SID maps
	// to this tenant before touching creative rows.
	if _, err := uc.acctRepo.GetBySID(ctx, cmd.TenantID, cmd.AccountSID); err != nil {
		return nil, err
	}

	rec, err := uc.repo.GetByAdID(ctx, cmd.TenantID, cmd.AdID)
	if err != nil {
		return nil, err
	}
	return &GetCreativeResult{Record: rec}, nil
}
