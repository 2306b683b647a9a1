package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-ads/meridian/internal/domain/metrics"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	"github.com/meridian-ads/meridian/internal/shared/biztime"
)

// isConversionAction reports whether an action aggregate counts as a
// conversion. Purchase variants are counted; click and view aggregates that
// merely restate impressions are not.
func isConversionAction(actionType string) bool {
	switch actionType {
	case "purchase", "omni_purchase", "offsite_conversion":
		return true
	}
	return strings.HasSuffix(actionType, ".fb_pixel_purchase")
}

func sumConversionValues(values []metaapi.InsightValue) float64 {
	var total float64
	for _, v := range values {
		if !isConversionAction(v.ActionType) {
			continue
		}
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			total += f
		}
	}
	return total
}

// normalizeRow converts one wire insight row into a metric fact. Numeric
// facts arrive as strings and absent facts as empty strings, which parse
// to zero.
func normalizeRow(tenantID, accountID uint, level metrics.Level, in metaapi.InsightRow) (*metrics.Row, error) {
	date, err := biztime.ParseDate(in.DateStart)
	if err != nil {
		return nil, fmt.Errorf("parse row date %q: %w", in.DateStart, err)
	}

	entityID := in.EntityID(string(level))
	if entityID == "" {
		return nil, fmt.Errorf("insight row has no %s identifier", level)
	}

	spend, _ := strconv.ParseFloat(in.Spend, 64)
	impressions, _ := strconv.ParseInt(in.Impressions, 10, 64)
	clicks, _ := strconv.ParseInt(in.Clicks, 10, 64)

	row := &metrics.Row{
		TenantID:        tenantID,
		AccountID:       accountID,
		Level:           level,
		EntityID:        entityID,
		EntityName:      in.EntityName(string(level)),
		Date:            date,
		Spend:           spend,
		Impressions:     impressions,
		Clicks:          clicks,
		Conversions:     sumConversionValues(in.Actions),
		ConversionValue: sumConversionValues(in.ActionVals),
	}
	row.ComputeRates()
	if err := row.Validate(); err != nil {
		return nil, err
	}
	return row, nil
}
