package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

type fakeConnRepo struct {
	conns    map[string]*connection.Connection
	defaults map[string]*connection.Connection
	nextID   uint
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{
		conns:    map[string]*connection.Connection{},
		defaults: map[string]*connection.Connection{},
		nextID:   1,
	}
}

func (r *fakeConnRepo) Create(_ context.Context, conn *connection.Connection) error {
	if err := conn.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.conns[conn.SID()] = conn
	return nil
}

func (r *fakeConnRepo) GetByID(_ context.Context, dbID uint) (*connection.Connection, error) {
	for _, c := range r.conns {
		if c.ID() == dbID {
			return c, nil
		}
	}
	return nil, apperrors.NewNotFoundError("connection not found")
}

func (r *fakeConnRepo) GetBySID(_ context.Context, tenantID uint, sid string) (*connection.Connection, error) {
	c, ok := r.conns[sid]
	if !ok || c.TenantID() != tenantID {
		return nil, apperrors.NewNotFoundError("connection not found")
	}
	return c, nil
}

func (r *fakeConnRepo) GetDefault(_ context.Context, tenantID uint, platform string) (*connection.Connection, error) {
	c, ok := r.defaults[fmt.Sprintf("%d:%s", tenantID, platform)]
	if !ok {
		return nil, apperrors.NewNotFoundError("no default connection")
	}
	return c, nil
}

func (r *fakeConnRepo) ListByTenant(_ context.Context, tenantID uint) ([]*connection.Connection, error) {
	var out []*connection.Connection
	for _, c := range r.conns {
		if c.TenantID() == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeConnRepo) Update(_ context.Context, conn *connection.Connection) error {
	r.conns[conn.SID()] = conn
	return nil
}

func (r *fakeConnRepo) SetDefault(_ context.Context, conn *connection.Connection) error {
	key := fmt.Sprintf("%d:%s", conn.TenantID(), conn.Platform())
	if prev, ok := r.defaults[key]; ok {
		prev.SetDefault(false)
	}
	conn.SetDefault(true)
	r.defaults[key] = conn
	return nil
}

func (r *fakeConnRepo) Delete(_ context.Context, tenantID uint, sid string) error {
	delete(r.conns, sid)
	return nil
}

type fakeAcctRepo struct {
	accts  map[string]*account.AdAccount
	grants map[string]bool
	nextID uint
}

func newFakeAcctRepo() *fakeAcctRepo {
	return &fakeAcctRepo{
		accts:  map[string]*account.AdAccount{},
		grants: map[string]bool{},
		nextID: 100,
	}
}

func (r *fakeAcctRepo) Create(_ context.Context, acct *account.AdAccount) error {
	if err := acct.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.accts[acct.ExternalID()] = acct
	return nil
}

func (r *fakeAcctRepo) GetByID(_ context.Context, dbID uint) (*account.AdAccount, error) {
	for _, a := range r.accts {
		if a.ID() == dbID {
			return a, nil
		}
	}
	return nil, apperrors.NewNotFoundError("account not found")
}

func (r *fakeAcctRepo) GetBySID(_ context.Context, tenantID uint, sid string) (*account.AdAccount, error) {
	for _, a := range r.accts {
		if a.SID() == sid && a.TenantID() == tenantID {
			return a, nil
		}
	}
	return nil, apperrors.NewNotFoundError("account not found")
}

func (r *fakeAcctRepo) GetByExternalID(_ context.Context, tenantID uint, externalID string) (*account.AdAccount, error) {
	a, ok := r.accts[externalID]
	if !ok || a.TenantID() != tenantID {
		return nil, apperrors.NewNotFoundError("account not found")
	}
	return a, nil
}

func (r *fakeAcctRepo) ListByTenant(_ context.Context, tenantID uint) ([]*account.AdAccount, error) {
	var out []*account.AdAccount
	for _, a := range r.accts {
		if a.TenantID() == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAcctRepo) Update(_ context.Context, acct *account.AdAccount) error {
	r.accts[acct.ExternalID()] = acct
	return nil
}

func (r *fakeAcctRepo) GrantAccess(_ context.Context, accountID, connectionID uint) error {
	r.grants[fmt.Sprintf("%d:%d", accountID, connectionID)] = true
	return nil
}

func (r *fakeAcctRepo) RevokeAccess(_ context.Context, accountID, connectionID uint) error {
	delete(r.grants, fmt.Sprintf("%d:%d", accountID, connectionID))
	return nil
}

func (r *fakeAcctRepo) CountAccountsBoundTo(_ context.Context, connectionID uint) (int64, error) {
	var n int64
	for _, a := range r.accts {
		if a.PrimaryConnectionID() == connectionID {
			n++
		}
	}
	return n, nil
}

type fakePlatformAuth struct {
	exchangeErr error
	validateErr error
	longLived   bool
}

func (a *fakePlatformAuth) ExchangeCode(_ context.Context, code string) (*oauth2.Token, error) {
	if a.exchangeErr != nil {
		return nil, a.exchangeErr
	}
	return &oauth2.Token{AccessToken: "short-" + code}, nil
}

func (a *fakePlatformAuth) ExchangeLongLived(_ context.Context, shortToken string) (string, time.Time, bool, error) {
	return "long-" + shortToken, time.Now().UTC().Add(60 * 24 * time.Hour), a.longLived, nil
}

func (a *fakePlatformAuth) Validate(_ context.Context, token string) error {
	return a.validateErr
}

type fakeCatalog struct {
	infos []metaapi.AdAccountInfo
	err   error
}

func (c *fakeCatalog) FetchAdAccounts(_ context.Context, token string) ([]metaapi.AdAccountInfo, error) {
	return c.infos, c.err
}

type fakeSealer struct{}

func (fakeSealer) Store(rawToken string) (string, bool, error) {
	return "sealed:" + rawToken, false, nil
}

func newConnectUC(connRepo *fakeConnRepo, acctRepo *fakeAcctRepo, auth *fakePlatformAuth, catalog *fakeCatalog) *ConnectAccountUseCase {
	return NewConnectAccountUseCase(connRepo, acctRepo, auth, catalog, fakeSealer{}, logger.NewLogger())
}

func TestConnectAccount_CodeFlowDiscoversAccounts(t *testing.T) {
	connRepo := newFakeConnRepo()
	acctRepo := newFakeAcctRepo()
	catalog := &fakeCatalog{infos: []metaapi.AdAccountInfo{
		{ID: "act_111", Name: "Brand One", Currency: "USD", AccountStatus: 1},
		{ID: "act_222", Name: "Brand Two", Currency: "EUR", AccountStatus: 2},
	}}
	uc := newConnectUC(connRepo, acctRepo, &fakePlatformAuth{longLived: true}, catalog)

	result, err := uc.Execute(context.Background(), ConnectAccountCommand{
		TenantID: 1,
		Code:     "authcode",
		Scopes:   []string{"ads_read"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.AccountsDiscovered)
	assert.Equal(t, connection.StatusConnected, result.Connection.Status())
	assert.True(t, result.Connection.LongLived())
	assert.Equal(t, "sealed:long-short-authcode", result.Connection.TokenCiphertext())

	// First connection for the tenant becomes the default without asking.
	assert.True(t, result.Connection.IsDefault())

	acct, err := acctRepo.GetByExternalID(context.Background(), 1, "act_111")
	require.NoError(t, err)
	assert.Equal(t, "Brand One", acct.Name())
	assert.True(t, acctRepo.grants[fmt.Sprintf("%d:%d", acct.ID(), result.Connection.ID())])
}

func TestConnectAccount_ShortTokenFlow(t *testing.T) {
	uc := newConnectUC(newFakeConnRepo(), newFakeAcctRepo(), &fakePlatformAuth{longLived: true}, &fakeCatalog{})

	result, err := uc.Execute(context.Background(), ConnectAccountCommand{
		TenantID:   1,
		ShortToken: "usertoken",
	})
	require.NoError(t, err)
	assert.Equal(t, "sealed:long-usertoken", result.Connection.TokenCiphertext())
	assert.Zero(t, result.AccountsDiscovered)
}

func TestConnectAccount_RejectsMissingCredentials(t *testing.T) {
	uc := newConnectUC(newFakeConnRepo(), newFakeAcctRepo(), &fakePlatformAuth{}, &fakeCatalog{})

	_, err := uc.Execute(context.Background(), ConnectAccountCommand{TenantID: 1})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = uc.Execute(context.Background(), ConnectAccountCommand{ShortToken: "t"})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestConnectAccount_ValidationFailureIsAuthError(t *testing.T) {
	auth := &fakePlatformAuth{longLived: true, validateErr: fmt.Errorf("expired")}
	uc := newConnectUC(newFakeConnRepo(), newFakeAcctRepo(), auth, &fakeCatalog{})

	_, err := uc.Execute(context.Background(), ConnectAccountCommand{TenantID: 1, ShortToken: "t"})
	assert.True(t, apperrors.IsAuthError(err))
}

func TestConnectAccount_DiscoveryFailureKeepsConnection(t *testing.T) {
	connRepo := newFakeConnRepo()
	catalog := &fakeCatalog{err: fmt.Errorf("listing unavailable")}
	uc := newConnectUC(connRepo, newFakeAcctRepo(), &fakePlatformAuth{longLived: true}, catalog)

	result, err := uc.Execute(context.Background(), ConnectAccountCommand{TenantID: 1, ShortToken: "t"})
	require.NoError(t, err)
	assert.Zero(t, result.AccountsDiscovered)
	assert.Len(t, connRepo.conns, 1)
}

func TestConnectAccount_ExistingAccountIsRefreshedNotRebound(t *testing.T) {
	connRepo := newFakeConnRepo()
	acctRepo := newFakeAcctRepo()

	existing, err := account.NewAdAccount(1, "act_111", "Old Name", "USD", "active", 7)
	require.NoError(t, err)
	require.NoError(t, acctRepo.Create(context.Background(), existing))

	catalog := &fakeCatalog{infos: []metaapi.AdAccountInfo{
		{ID: "act_111", Name: "New Name", Currency: "USD", AccountStatus: 1},
	}}
	uc := newConnectUC(connRepo, acctRepo, &fakePlatformAuth{longLived: true}, catalog)

	result, err := uc.Execute(context.Background(), ConnectAccountCommand{TenantID: 1, ShortToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.AccountsDiscovered)

	acct, err := acctRepo.GetByExternalID(context.Background(), 1, "act_111")
	require.NoError(t, err)
	assert.Equal(t, "New Name", acct.Name())
	assert.Equal(t, uint(7), acct.PrimaryConnectionID())
}
