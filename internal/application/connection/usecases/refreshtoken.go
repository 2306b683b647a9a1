package usecases

import (
	"context"
	"fmt"

	"github.com/meridian-ads/meridian/internal/domain/connection"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

type RefreshTokenCommand struct {
	TenantID   uint
	SID        string
	ShortToken string
}

type RefreshTokenResult struct {
	Connection *connection.Connection
	LongLived  bool
}

// RefreshTokenUseCase rotates a connection's stored token, upgrading to a
// long-lived one when the platform allows. It also clears an error status
// after a successful validation.
type RefreshTokenUseCase struct {
	connRepo connection.Repository
	auth     PlatformAuth
	vault    TokenSealer
	logger   logger.Interface
}

func NewRefreshTokenUseCase(
	connRepo connection.Repository,
	auth PlatformAuth,
	vault TokenSealer,
	logger logger.Interface,
) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{
		connRepo: connRepo,
		auth:     auth,
		vault:    vault,
		logger:   logger,
	}
}

func (uc *RefreshTokenUseCase) Execute(ctx context.Context, cmd RefreshTokenCommand) (*RefreshTokenResult, error) {
	if cmd.ShortToken == "" {
		return nil, apperrors.NewValidationError("a fresh token is required")
	}

	conn, err := uc.connRepo.GetBySID(ctx, cmd.TenantID, cmd.SID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, longLived, err := uc.auth.ExchangeLongLived(ctx, cmd.ShortToken)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if err := uc.auth.Validate(ctx, token); err != nil {
		return nil, apperrors.NewAuthError("platform rejected the refreshed token")
	}

	stored, isPlaintext, err := uc.vault.Store(token)
	if err != nil {
		return nil, fmt.Errorf("failed to seal access token: %w", err)
	}

	if err := conn.RotateToken(stored, isPlaintext, longLived, &expiresAt); err != nil {
		return nil, err
	}
	if err := conn.MarkConnected(); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	if err := uc.connRepo.Update(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to persist rotated token: %w", err)
	}

	uc.logger.Infow("connection token rotated",
		"tenant_id", cmd.TenantID,
		"connection_sid", conn.SID(),
		"long_lived", longLived)

	return &RefreshTokenResult{Connection: conn, LongLived: longLived}, nil
}
