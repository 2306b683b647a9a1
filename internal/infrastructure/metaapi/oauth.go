package metaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/meridian-ads/meridian/internal/shared/config"
)

// defaultLongLivedTTL is the platform default when the exchange response
// omits expires_in (long-lived user tokens last about 60 days).
const defaultLongLivedTTL = 60 * 24 * time.Hour

// OAuth handles the platform's token endpoints: authorization-code exchange
// and short-lived to long-lived upgrades.
type OAuth struct {
	client *Client
	conf   *oauth2.Config
	appID  string
	secret string
}

// NewOAuth builds the OAuth helper on top of an existing client.
func NewOAuth(client *Client, cfg *config.MetaConfig) *OAuth {
	return &OAuth{
		client: client,
		appID:  cfg.AppID,
		secret: cfg.AppSecret,
		conf: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"ads_read", "ads_management", "business_management"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("https://www.facebook.com/%s/dialog/oauth", client.version),
				TokenURL: client.endpoint("oauth/access_token"),
			},
		},
	}
}

// AuthCodeURL returns the user consent URL for the connect flow.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.conf.AuthCodeURL(state)
}

// ExchangeCode swaps an authorization code for a short-lived access token.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, &APIError{Kind: KindAuth, Message: fmt.Sprintf("code exchange failed: %v", err)}
	}
	return tok, nil
}

// ExchangeLongLived upgrades a short-lived token. On upstream failure the
// short-lived token is returned with longLived=false so the caller can flag
// the reduced validity instead of losing the connection entirely.
func (o *OAuth) ExchangeLongLived(ctx context.Context, shortToken string) (token string, expiresAt time.Time, longLived bool, err error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", o.appID)
	params.Set("client_secret", o.secret)
	params.Set("fb_exchange_token", shortToken)

	raw, err := o.client.get(ctx, o.client.endpoint("oauth/access_token"), params, "")
	if err != nil {
		// Fall back to the short-lived token; callers mark it accordingly.
		return shortToken, time.Now().UTC().Add(2 * time.Hour), false, nil
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", time.Time{}, false, fmt.Errorf("decode token exchange response: %w", err)
	}
	if resp.AccessToken == "" {
		return shortToken, time.Now().UTC().Add(2 * time.Hour), false, nil
	}

	ttl := defaultLongLivedTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	return resp.AccessToken, time.Now().UTC().Add(ttl), true, nil
}

// Validate confirms a token works by fetching the token owner.
func (o *OAuth) Validate(ctx context.Context, token string) error {
	var me struct {
		ID string `json:"id"`
	}
	if err := o.client.GetObject(ctx, token, "me", url.Values{"fields": {"id"}}, &me); err != nil {
		return err
	}
	if me.ID == "" {
		return &APIError{Kind: KindAuth, Message: "token introspection returned no identity"}
	}
	return nil
}
