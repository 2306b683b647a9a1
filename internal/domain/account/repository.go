package account

import "context"

// Repository persists ad accounts and their connection access grants.
type Repository interface {
	Create(ctx context.Context, acct *AdAccount) error
	GetByID(ctx context.Context, dbID uint) (*AdAccount, error)
	GetBySID(ctx context.Context, tenantID uint, sid string) (*AdAccount, error)
	GetByExternalID(ctx context.Context, tenantID uint, externalID string) (*AdAccount, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]*AdAccount, error)
	Update(ctx context.Context, acct *AdAccount) error

	// GrantAccess records that a connection can read an account. Granting the
	// same pair twice is a no-op.
	GrantAccess(ctx context.Context, accountID, connectionID uint) error
	RevokeAccess(ctx context.Context, accountID, connectionID uint) error
	// CountAccountsBoundTo returns how many accounts have the connection as
	// their primary writer.
	CountAccountsBoundTo(ctx context.Context, connectionID uint) (int64, error)
}
