// Package connection models a tenant's credential link to the ads platform.
package connection

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-ads/meridian/internal/shared/id"
)

// Platform identifies the external ads platform a connection targets.
const PlatformMeta = "meta"

// Connection is the aggregate for one tenant credential to the ads platform.
// The access token is stored encrypted; TokenCiphertext is opaque to this
// package and only the vault can reveal it.
type Connection struct {
	internalID      uint
	sid             string
	uuidStr         string
	tenantID        uint
	platform        string
	tokenCiphertext string
	tokenPlaintext  bool
	longLived       bool
	tokenExpiresAt  *time.Time
	scopes          []string
	status          Status
	lastValidatedAt *time.Time
	isDefault       bool
	createdAt       time.Time
	updatedAt       time.Time
}

// NewConnection creates a pending connection for a tenant. The token
// ciphertext must already be sealed (or deliberately flagged plaintext) by the
// vault before it reaches the domain.
func NewConnection(tenantID uint, platform, tokenCiphertext string, tokenPlaintext bool, scopes []string) (*Connection, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if platform == "" {
		return nil, fmt.Errorf("platform is required")
	}
	if tokenCiphertext == "" {
		return nil, fmt.Errorf("token ciphertext is required")
	}

	now := time.Now().UTC()
	return &Connection{
		sid:             id.MustGenerateWithPrefix(id.PrefixConnection, id.DefaultLength),
		uuidStr:         uuid.NewString(),
		tenantID:        tenantID,
		platform:        platform,
		tokenCiphertext: tokenCiphertext,
		tokenPlaintext:  tokenPlaintext,
		scopes:          scopes,
		status:          StatusPending,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID              uint
	SID             string
	UUID            string
	TenantID        uint
	Platform        string
	TokenCiphertext string
	TokenPlaintext  bool
	LongLived       bool
	TokenExpiresAt  *time.Time
	Scopes          []string
	Status          Status
	LastValidatedAt *time.Time
	IsDefault       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reconstruct rebuilds a connection from persistence.
func Reconstruct(p ReconstructParams) (*Connection, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("connection ID cannot be zero")
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("invalid connection status: %s", p.Status)
	}
	return &Connection{
		internalID:      p.ID,
		sid:             p.SID,
		uuidStr:         p.UUID,
		tenantID:        p.TenantID,
		platform:        p.Platform,
		tokenCiphertext: p.TokenCiphertext,
		tokenPlaintext:  p.TokenPlaintext,
		longLived:       p.LongLived,
		tokenExpiresAt:  p.TokenExpiresAt,
		scopes:          p.Scopes,
		status:          p.Status,
		lastValidatedAt: p.LastValidatedAt,
		isDefault:       p.IsDefault,
		createdAt:       p.CreatedAt,
		updatedAt:       p.UpdatedAt,
	}, nil
}

func (c *Connection) ID() uint                    { return c.internalID }
func (c *Connection) SID() string                 { return c.sid }
func (c *Connection) UUID() string                { return c.uuidStr }
func (c *Connection) TenantID() uint              { return c.tenantID }
func (c *Connection) Platform() string            { return c.platform }
func (c *Connection) TokenCiphertext() string     { return c.tokenCiphertext }
func (c *Connection) TokenIsPlaintext() bool      { return c.tokenPlaintext }
func (c *Connection) LongLived() bool             { return c.longLived }
func (c *Connection) TokenExpiresAt() *time.Time  { return c.tokenExpiresAt }
func (c *Connection) Scopes() []string            { return c.scopes }
func (c *Connection) Status() Status              { return c.status }
func (c *Connection) LastValidatedAt() *time.Time { return c.lastValidatedAt }
func (c *Connection) IsDefault() bool             { return c.isDefault }
func (c *Connection) CreatedAt() time.Time        { return c.createdAt }
func (c *Connection) UpdatedAt() time.Time        { return c.updatedAt }

// SetID records the persistence-assigned ID after Create.
func (c *Connection) SetID(dbID uint) error {
	if c.internalID != 0 {
		return fmt.Errorf("connection ID already set")
	}
	c.internalID = dbID
	return nil
}

// MarkConnected records a successful token validation.
func (c *Connection) MarkConnected() error {
	if c.status == StatusRevoked {
		return fmt.Errorf("cannot reconnect a revoked connection")
	}
	now := time.Now().UTC()
	c.status = StatusConnected
	c.lastValidatedAt = &now
	c.updatedAt = now
	return nil
}

// MarkError flags the connection after repeated auth failures. Syncs against
// accounts bound to this connection stop until it is re-validated.
func (c *Connection) MarkError() {
	now := time.Now().UTC()
	c.status = StatusError
	c.updatedAt = now
}

// Revoke terminates the connection.
func (c *Connection) Revoke() {
	now := time.Now().UTC()
	c.status = StatusRevoked
	c.isDefault = false
	c.updatedAt = now
}

// SetDefault marks the connection as the tenant's default for its platform.
// The repository enforces the at-most-one-default invariant transactionally.
func (c *Connection) SetDefault(isDefault bool) {
	c.isDefault = isDefault
	c.updatedAt = time.Now().UTC()
}

// RotateToken swaps in a new sealed token, e.g. after a long-lived exchange.
func (c *Connection) RotateToken(ciphertext string, plaintext, longLived bool, expiresAt *time.Time) error {
	if ciphertext == "" {
		return fmt.Errorf("token ciphertext is required")
	}
	c.tokenCiphertext = ciphertext
	c.tokenPlaintext = plaintext
	c.longLived = longLived
	c.tokenExpiresAt = expiresAt
	c.updatedAt = time.Now().UTC()
	return nil
}

// Usable reports whether the connection can currently authorize API calls.
func (c *Connection) Usable() bool {
	if c.status != StatusConnected {
		return false
	}
	if c.tokenExpiresAt != nil && time.Now().UTC().After(*c.tokenExpiresAt) {
		return false
	}
	return true
}
