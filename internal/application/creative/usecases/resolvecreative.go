package usecases

import (
	"context"

	"github.com/meridian-ads/meridian/internal/application/creative"
	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	creativedomain "github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

type ResolveCreativeCommand struct {
	TenantID   uint
	AccountSID string
	AdID       string
	CacheMedia bool
}

type ResolveCreativeResult struct {
	Record *creativedomain.Record
}

// ResolveCreativeUseCase resolves one ad's creative on demand.
type ResolveCreativeUseCase struct {
	acctRepo account.Repository
	connRepo connection.Repository
	vault    TokenRevealer
	resolver *creative.Resolver
	logger   logger.Interface
}

func NewResolveCreativeUseCase(
	acctRepo account.Repository,
	connRepo connection.Repository,
	vault TokenRevealer,
	resolver *creative.Resolver,
	logger logger.Interface,
) *ResolveCreativeUseCase {
	return &ResolveCreativeUseCase{
		acctRepo: acctRepo,
		connRepo: connRepo,
		vault:    vault,
		resolver: resolver,
		logger:   logger,
	}
}

func (uc *ResolveCreativeUseCase) Execute(ctx context.Context, cmd ResolveCreativeCommand) (*ResolveCreativeResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}
	if cmd.AdID == "" {
		return nil, apperrors.NewValidationError("ad ID is required")
	}

	acct, err := uc.acctRepo.GetBySID(ctx, cmd.TenantID, cmd.AccountSID)
	if err != nil {
		return nil, err
	}

	conn, token, err := resolveCredential(ctx, uc.connRepo, uc.vault, acct)
	if err != nil {
		return nil, err
	}

	rec, err := uc.resolver.Resolve(ctx, creative.Request{
		TenantID:          cmd.TenantID,
		AccountID:         acct.ID(),
		AccountExternalID: acct.ExternalID(),
		Token:             token,
		AdID:              cmd.AdID,
		CacheMedia:        cmd.CacheMedia,
	})
	if err != nil {
		if metaapi.IsAuthError(err) {
			if merr := markConnectionError(ctx, uc.connRepo, conn); merr != nil {
				uc.logger.Errorw("failed to mark connection errored", "connection_sid", conn.SID(), "error", merr)
			}
			return nil, apperrors.NewAuthError("platform rejected the connection token", err.Error())
		}
		if rec == nil {
			return nil, err
		}
		// Resolution succeeded but the write failed; surface both.
		return &ResolveCreativeResult{Record: rec}, err
	}

	return &ResolveCreativeResult{Record: rec}, nil
}
