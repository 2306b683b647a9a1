package mappers

import (
	"github.com/meridian-ads/meridian/internal/domain/metrics"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
)

// MetricMapper converts metric rows and snapshots. Both sides carry plain
// values so the mapping cannot fail.
type MetricMapper struct{}

func NewMetricMapper() *MetricMapper {
	return &MetricMapper{}
}

func (m *MetricMapper) RowToModel(row *metrics.Row) *models.MetricRowModel {
	if row == nil {
		return nil
	}
	return &models.MetricRowModel{
		TenantID:        row.TenantID,
		AccountID:       row.AccountID,
		Level:           string(row.Level),
		EntityID:        row.EntityID,
		EntityName:      row.EntityName,
		Date:            row.Date,
		Spend:           row.Spend,
		Impressions:     row.Impressions,
		Clicks:          row.Clicks,
		CTR:             row.CTR,
		CPC:             row.CPC,
		CPM:             row.CPM,
		Conversions:     row.Conversions,
		ConversionValue: row.ConversionValue,
	}
}

func (m *MetricMapper) RowToEntity(model *models.MetricRowModel) *metrics.Row {
	if model == nil {
		return nil
	}
	return &metrics.Row{
		TenantID:        model.TenantID,
		AccountID:       model.AccountID,
		Level:           metrics.Level(model.Level),
		EntityID:        model.EntityID,
		EntityName:      model.EntityName,
		Date:            model.Date,
		Spend:           model.Spend,
		Impressions:     model.Impressions,
		Clicks:          model.Clicks,
		CTR:             model.CTR,
		CPC:             model.CPC,
		CPM:             model.CPM,
		Conversions:     model.Conversions,
		ConversionValue: model.ConversionValue,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func (m *MetricMapper) SnapshotToModel(snap *metrics.Snapshot) *models.MetricSnapshotModel {
	if snap == nil {
		return nil
	}
	return &models.MetricSnapshotModel{
		TenantID:  snap.TenantID,
		AccountID: snap.AccountID,
		Level:     string(snap.Level),
		JobID:     snap.JobID,
		Payload:   snap.Payload,
	}
}
