// Package account models external ad accounts owned by a tenant.
package account

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"

	"github.com/meridian-ads/meridian/internal/shared/id"
)

// AdAccount is one external ad account. Multiple connections may read it, but
// exactly one connection is the primary writer of record at any time.
type AdAccount struct {
	internalID          uint
	sid                 string
	tenantID            uint
	externalID          string
	name                string
	currencyCode        string
	status              string
	primaryConnectionID uint
	createdAt           time.Time
	updatedAt           time.Time
}

// NewAdAccount creates an account discovered from the platform catalog.
func NewAdAccount(tenantID uint, externalID, name, currencyCode, status string, primaryConnectionID uint) (*AdAccount, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if externalID == "" {
		return nil, fmt.Errorf("external account ID is required")
	}
	if primaryConnectionID == 0 {
		return nil, fmt.Errorf("primary connection is required")
	}
	code, err := normalizeCurrency(currencyCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &AdAccount{
		sid:                 id.MustGenerateWithPrefix(id.PrefixAdAccount, id.DefaultLength),
		tenantID:            tenantID,
		externalID:          externalID,
		name:                name,
		currencyCode:        code,
		status:              status,
		primaryConnectionID: primaryConnectionID,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID                  uint
	SID                 string
	TenantID            uint
	ExternalID          string
	Name                string
	Currency            string
	Status              string
	PrimaryConnectionID uint
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Reconstruct rebuilds an account from persistence.
func Reconstruct(p ReconstructParams) (*AdAccount, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("account ID cannot be zero")
	}
	return &AdAccount{
		internalID:          p.ID,
		sid:                 p.SID,
		tenantID:            p.TenantID,
		externalID:          p.ExternalID,
		name:                p.Name,
		currencyCode:        p.Currency,
		status:              p.Status,
		primaryConnectionID: p.PrimaryConnectionID,
		createdAt:           p.CreatedAt,
		updatedAt:           p.UpdatedAt,
	}, nil
}

func (a *AdAccount) ID() uint                   { return a.internalID }
func (a *AdAccount) SID() string                { return a.sid }
func (a *AdAccount) TenantID() uint             { return a.tenantID }
func (a *AdAccount) ExternalID() string         { return a.externalID }
func (a *AdAccount) Name() string               { return a.name }
func (a *AdAccount) Currency() string           { return a.currencyCode }
func (a *AdAccount) Status() string             { return a.status }
func (a *AdAccount) PrimaryConnectionID() uint  { return a.primaryConnectionID }
func (a *AdAccount) CreatedAt() time.Time       { return a.createdAt }
func (a *AdAccount) UpdatedAt() time.Time       { return a.updatedAt }

// SetID records the persistence-assigned ID after Create.
func (a *AdAccount) SetID(dbID uint) error {
	if a.internalID != 0 {
		return fmt.Errorf("account ID already set")
	}
	a.internalID = dbID
	return nil
}

// RefreshCatalog updates display fields from a fresh catalog fetch. The
// primary connection pointer is deliberately left untouched: re-syncs never
// rebind the writer of record.
func (a *AdAccount) RefreshCatalog(name, currencyCode, status string) error {
	code, err := normalizeCurrency(currencyCode)
	if err != nil {
		return err
	}
	a.name = name
	a.currencyCode = code
	a.status = status
	a.updatedAt = time.Now().UTC()
	return nil
}

// RebindPrimary explicitly moves the primary writer to another connection.
func (a *AdAccount) RebindPrimary(connectionID uint) error {
	if connectionID == 0 {
		return fmt.Errorf("connection ID is required")
	}
	a.primaryConnectionID = connectionID
	a.updatedAt = time.Now().UTC()
	return nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("currency code is required")
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return unit.String(), nil
}
