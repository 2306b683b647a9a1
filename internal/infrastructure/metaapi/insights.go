package metaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/meridian-ads/meridian/internal/shared/biztime"
)

// insightsFields is the field set requested per level; identifier fields that
// do not apply to a level are simply absent from the response.
const insightsFields = "date_start,date_stop,campaign_id,campaign_name,adset_id,adset_name,ad_id,ad_name,spend,impressions,clicks,actions,action_values"

// FetchInsights streams every insight row for an account, level, and date
// range, following pagination to the end. Rows are reported per calendar day
// (time_increment=1).
func (c *Client) FetchInsights(ctx context.Context, token, accountExternalID, level string, since, until time.Time, visit func(row InsightRow, raw json.RawMessage) error) error {
	timeRange, err := json.Marshal(map[string]string{
		"since": biztime.FormatDate(since),
		"until": biztime.FormatDate(until),
	})
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("level", level)
	params.Set("fields", insightsFields)
	params.Set("time_range", string(timeRange))
	params.Set("time_increment", "1")
	params.Set("limit", "500")

	// Discovered accounts carry the platform's act_ prefix already.
	path := fmt.Sprintf("act_%s/insights", strings.TrimPrefix(accountExternalID, "act_"))
	return c.FetchAll(ctx, token, path, params, func(raw json.RawMessage) error {
		var row InsightRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("decode insight row: %w", err)
		}
		return visit(row, raw)
	})
}

// FetchAdAccounts lists the ad accounts readable by the token.
func (c *Client) FetchAdAccounts(ctx context.Context, token string) ([]AdAccountInfo, error) {
	params := url.Values{}
	params.Set("fields", "id,account_id,name,currency,account_status")
	params.Set("limit", "100")

	var accounts []AdAccountInfo
	err := c.FetchAll(ctx, token, "me/adaccounts", params, func(raw json.RawMessage) error {
		var info AdAccountInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return fmt.Errorf("decode ad account: %w", err)
		}
		accounts = append(accounts, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// EntityID returns the identifier for the requested level from a row.
func (r InsightRow) EntityID(level string) string {
	switch level {
	case "campaign":
		return r.CampaignID
	case "adset":
		return r.AdsetID
	default:
		return r.AdID
	}
}

// EntityName returns the display name for the requested level from a row.
func (r InsightRow) EntityName(level string) string {
	switch level {
	case "campaign":
		return r.CampaignName
	case "adset":
		return r.AdsetName
	default:
		return r.AdName
	}
}
