package connection

import "context"

// Repository persists connections.
type Repository interface {
	Create(ctx context.Context, conn *Connection) error
	GetByID(ctx context.Context, dbID uint) (*Connection, error)
	GetBySID(ctx context.Context, tenantID uint, sid string) (*Connection, error)
	GetDefault(ctx context.Context, tenantID uint, platform string) (*Connection, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]*Connection, error)
	Update(ctx context.Context, conn *Connection) error
	// SetDefault atomically clears the previous default for the
	// (tenant, platform) pair and marks conn as default.
	SetDefault(ctx context.Context, conn *Connection) error
	// Delete removes a connection. Implementations must refuse to delete a
	// connection that is still the primary writer for any account.
	Delete(ctx context.Context, tenantID uint, sid string) error
}
