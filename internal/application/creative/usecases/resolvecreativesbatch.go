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

const maxBatchAdIDs = 1000

type ResolveCreativesBatchCommand struct {
	TenantID   uint
	AccountSID string
	AdIDs      []string
	CacheMedia bool
}

type ResolveCreativesBatchResult struct {
	Records map[string]*creativedomain.Record
	// Errors maps ad IDs to human-readable failure reasons.
	Errors   map[string]string
	Resolved int
	Failed   int
}

// ResolveCreativesBatchUseCase resolves many ads in one run, sharing lookup
// caches across the batch.
type ResolveCreativesBatchUseCase struct {
	acctRepo account.Repository
	connRepo connection.Repository
	vault    TokenRevealer
	resolver *creative.Resolver
	logger   logger.Interface
}

func NewResolveCreativesBatchUseCase(
	acctRepo account.Repository,
	connRepo connection.Repository,
	vault TokenRevealer,
	resolver *creative.Resolver,
	logger logger.Interface,
) *ResolveCreativesBatchUseCase {
	return &ResolveCreativesBatchUseCase{
		acctRepo: acctRepo,
		connRepo: connRepo,
		vault:    vault,
		resolver: resolver,
		logger:   logger,
	}
}

func (uc *ResolveCreativesBatchUseCase) Execute(ctx context.Context, cmd ResolveCreativesBatchCommand) (*ResolveCreativesBatchResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}
	if len(cmd.AdIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one ad ID is required")
	}
	if len(cmd.AdIDs) > maxBatchAdIDs {
		return nil, apperrors.NewValidationError("too many ad IDs in one batch")
	}

	acct, err := uc.acctRepo.GetBySID(ctx, cmd.TenantID, cmd.AccountSID)
	if err != nil {
		return nil, err
	}

	conn, token, err := resolveCredential(ctx, uc.connRepo, uc.vault, acct)
	if err != nil {
		return nil, err
	}

	outcome, err := uc.resolver.ResolveBatch(ctx, creative.Request{
		TenantID:          cmd.TenantID,
		AccountID:         acct.ID(),
		AccountExternalID: acct.ExternalID(),
		Token:             token,
		CacheMedia:        cmd.CacheMedia,
	}, dedupe(cmd.AdIDs))
	if err != nil {
		if metaapi.IsAuthError(err) {
			if merr := markConnectionError(ctx, uc.connRepo, conn); merr != nil {
				uc.logger.Errorw("failed to mark connection errored", "connection_sid", conn.SID(), "error", merr)
			}
			return nil, apperrors.NewAuthError("platform rejected the connection token", err.Error())
		}
		return nil, err
	}

	result := &ResolveCreativesBatchResult{
		Records:  outcome.Records,
		Errors:   make(map[string]string, len(outcome.Errors)),
		Resolved: outcome.Resolved(),
		Failed:   outcome.Failed(),
	}
	for adID, adErr := range outcome.Errors {
		result.Errors[adID] = adErr.Error()
	}

	uc.logger.Infow("creative batch resolved",
		"tenant_id", cmd.TenantID,
		"account_sid", cmd.AccountSID,
		"requested", len(cmd.AdIDs),
		"resolved", result.Resolved,
		"failed", result.Failed)

	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
