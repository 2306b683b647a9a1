package usecases

import (
	"context"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

// TokenRevealer opens sealed tokens for upstream calls.
type TokenRevealer interface {
	Reveal(stored string, isPlaintext bool) (string, error)
}

// resolveCredential loads the account's primary connection and reveals its
// token. Returns the connection too so callers can mark it on auth failures.
func resolveCredential(
	ctx context.Context,
	connRepo connection.Repository,
	vault TokenRevealer,
	acct *account.AdAccount,
) (*connection.Connection, string, error) {
	if acct.PrimaryConnectionID() == 0 {
		return nil, "", apperrors.NewConflictError("account has no primary connection")
	}

	conn, err := connRepo.GetByID(ctx, acct.PrimaryConnectionID())
	if err != nil {
		return nil, "", err
	}
	if !conn.Usable() {
		return nil, "", apperrors.NewConflictError("connection is not usable: status is " + conn.Status().String())
	}

	token, err := vault.Reveal(conn.TokenCiphertext(), conn.TokenIsPlaintext())
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to reveal connection token", err.Error())
	}
	return conn, token, nil
}

// markConnectionError flags the connection after an upstream auth failure so
// later runs skip it until the token is refreshed.
func markConnectionError(ctx context.Context, connRepo connection.Repository, conn *connection.Connection) error {
	conn.MarkError()
	return connRepo.Update(ctx, conn)
}
