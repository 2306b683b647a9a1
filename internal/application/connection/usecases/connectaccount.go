package usecases

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

// PlatformAuth is the slice of the platform client the connection usecases
// need: code exchange, long-lived upgrade, and token validation.
type PlatformAuth interface {
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	ExchangeLongLived(ctx context.Context, shortToken string) (token string, expiresAt time.Time, longLived bool, err error)
	Validate(ctx context.Context, token string) error
}

// AccountCatalog lists the ad accounts a token can read.
type AccountCatalog interface {
	FetchAdAccounts(ctx context.Context, token string) ([]metaapi.AdAccountInfo, error)
}

// TokenSealer seals raw tokens for storage.
type TokenSealer interface {
	Store(rawToken string) (stored string, isPlaintext bool, err error)
}

type ConnectAccountCommand struct {
	TenantID uint
	// Code is an OAuth authorization code; ShortToken is used directly when
	// the caller already holds a user token. Exactly one must be set.
	Code        string
	ShortToken  string
	Scopes      []string
	MakeDefault bool
}

type ConnectAccountResult struct {
	Connection         *connection.Connection
	AccountsDiscovered int
}

type ConnectAccountUseCase struct {
	connRepo connection.Repository
	acctRepo account.Repository
	auth     PlatformAuth
	catalog  AccountCatalog
	vault    TokenSealer
	logger   logger.Interface
}

func NewConnectAccountUseCase(
	connRepo connection.Repository,
	acctRepo account.Repository,
	auth PlatformAuth,
	catalog AccountCatalog,
	vault TokenSealer,
	logger logger.Interface,
) *ConnectAccountUseCase {
	return &ConnectAccountUseCase{
		connRepo: connRepo,
		acctRepo: acctRepo,
		auth:     auth,
		catalog:  catalog,
		vault:    vault,
		logger:   logger,
	}
}

func (uc *ConnectAccountUseCase) Execute(ctx context.Context, cmd ConnectAccountCommand) (*ConnectAccountResult, error) {
	if cmd.TenantID == 0 {
		return nil, apperrors.NewValidationError("tenant is required")
	}

	shortToken := cmd.ShortToken
	if cmd.Code != "" {
		tok, err := uc.auth.ExchangeCode(ctx, cmd.Code)
		if err != nil {
			uc.logger.Errorw("oauth code exchange failed", "error", err, "tenant_id", cmd.TenantID)
			return nil, apperrors.NewAuthError("authorization code exchange failed")
		}
		shortToken = tok.AccessToken
	}
	if shortToken == "" {
		return nil, apperrors.NewValidationError("either code or short-lived token is required")
	}

	token, expiresAt, longLived, err := uc.auth.ExchangeLongLived(ctx, shortToken)
	if err != nil {
		uc.logger.Errorw("long-lived token exchange failed", "error", err, "tenant_id", cmd.TenantID)
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if !longLived {
		uc.logger.Warnw("continuing with short-lived token",
			"tenant_id", cmd.TenantID, "expires_at", expiresAt)
	}

	if err := uc.auth.Validate(ctx, token); err != nil {
		uc.logger.Errorw("token validation failed", "error", err, "tenant_id", cmd.TenantID)
		return nil, apperrors.NewAuthError("platform rejected the access token")
	}

	stored, isPlaintext, err := uc.vault.Store(token)
	if err != nil {
		return nil, fmt.Errorf("failed to seal access token: %w", err)
	}

	conn, err := connection.NewConnection(cmd.TenantID, connection.PlatformMeta, stored, isPlaintext, cmd.Scopes)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := conn.RotateToken(stored, isPlaintext, longLived, &expiresAt); err != nil {
		return nil, err
	}
	if err := conn.MarkConnected(); err != nil {
		return nil, err
	}
	if err := uc.connRepo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to persist connection: %w", err)
	}

	if uc.shouldBecomeDefault(ctx, cmd) {
		if err := uc.connRepo.SetDefault(ctx, conn); err != nil {
			uc.logger.Errorw("failed to set default connection", "error", err, "connection_sid", conn.SID())
		}
	}

	discovered, err := uc.discoverAccounts(ctx, cmd.TenantID, conn, token)
	if err != nil {
		// The connection itself is established; catalog discovery can be
		// retried later.
		uc.logger.Warnw("ad account discovery failed", "error", err, "connection_sid", conn.SID())
	}

	uc.logger.Infow("platform connection established",
		"tenant_id", cmd.TenantID,
		"connection_sid", conn.SID(),
		"long_lived", longLived,
		"accounts_discovered", discovered)

	return &ConnectAccountResult{Connection: conn, AccountsDiscovered: discovered}, nil
}

func (uc *ConnectAccountUseCase) shouldBecomeDefault(ctx context.Context, cmd ConnectAccountCommand) bool {
	if cmd.MakeDefault {
		return true
	}
	_, err := uc.connRepo.GetDefault(ctx, cmd.TenantID, connection.PlatformMeta)
	return apperrors.IsNotFoundError(err)
}

// discoverAccounts upserts the token's visible ad accounts and grants this
// connection read access. Existing accounts keep their primary connection.
func (uc *ConnectAccountUseCase) discoverAccounts(ctx context.Context, tenantID uint, conn *connection.Connection, token string) (int, error) {
	infos, err := uc.catalog.FetchAdAccounts(ctx, token)
	if err != nil {
		return 0, err
	}

	discovered := 0
	for _, info := range infos {
		acct, err := uc.acctRepo.GetByExternalID(ctx, tenantID, info.ID)
		switch {
		case apperrors.IsNotFoundError(err):
			acct, err = account.NewAdAccount(tenantID, info.ID, info.Name, info.Currency, info.Status(), conn.ID())
			if err != nil {
				uc.logger.Warnw("skipping invalid ad account", "error", err, "external_id", info.ID)
				continue
			}
			if err := uc.acctRepo.Create(ctx, acct); err != nil {
				uc.logger.Errorw("failed to create ad account", "error", err, "external_id", info.ID)
				continue
			}
		case err != nil:
			uc.logger.Errorw("failed to look up ad account", "error", err, "external_id", info.ID)
			continue
		default:
			if err := acct.RefreshCatalog(info.Name, info.Currency, info.Status()); err != nil {
				uc.logger.Warnw("failed to refresh ad account", "error", err, "external_id", info.ID)
				continue
			}
			if err := uc.acctRepo.Update(ctx, acct); err != nil {
				uc.logger.Errorw("failed to update ad account", "error", err, "external_id", info.ID)
				continue
			}
		}

		if err := uc.acctRepo.GrantAccess(ctx, acct.ID(), conn.ID()); err != nil {
			uc.logger.Errorw("failed to grant account access", "error", err, "external_id", info.ID)
			continue
		}
		discovered++
	}
	return discovered, nil
}
