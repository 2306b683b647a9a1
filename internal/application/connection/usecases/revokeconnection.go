package usecases

import (
	"context"
	"fmt"

	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

type RevokeConnectionCommand struct {
	TenantID uint
	SID      string
}

// RevokeConnectionUseCase terminates a connection. The row is kept for audit;
// deletion is a separate operation and is refused while accounts are bound.
type RevokeConnectionUseCase struct {
	connRepo connection.Repository
	logger   logger.Interface
}

func NewRevokeConnectionUseCase(connRepo connection.Repository, logger logger.Interface) *RevokeConnectionUseCase {
	return &RevokeConnectionUseCase{connRepo: connRepo, logger: logger}
}

func (uc *RevokeConnectionUseCase) Execute(ctx context.Context, cmd RevokeConnectionCommand) error {
	conn, err := uc.connRepo.GetBySID(ctx, cmd.TenantID, cmd.SID)
	if err != nil {
		return err
	}

	conn.Revoke()
	if err := uc.connRepo.Update(ctx, conn); err != nil {
		return fmt.Errorf("failed to persist revocation: %w", err)
	}

	uc.logger.Infow("connection revoked",
		"tenant_id", cmd.TenantID,
		"connection_sid", conn.SID())
	return nil
}
