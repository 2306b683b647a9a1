package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/meridian-ads/meridian/internal/domain/sync"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
)

type SyncJobMapper interface {
	ToEntity(model *models.SyncJobModel) (*sync.Job, error)
	ToModel(entity *sync.Job) (*models.SyncJobModel, error)
	ToEntities(models []*models.SyncJobModel) ([]*sync.Job, error)
}

type SyncJobMapperImpl struct{}

func NewSyncJobMapper() SyncJobMapper {
	return &SyncJobMapperImpl{}
}

func (m *SyncJobMapperImpl) ToEntity(model *models.SyncJobModel) (*sync.Job, error) {
	if model == nil {
		return nil, nil
	}

	var rowsByLevel map[string]int
	if model.RowsByLevel != nil {
		if err := json.Unmarshal(model.RowsByLevel, &rowsByLevel); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row counts: %w", err)
		}
	}

	entity, err := sync.ReconstructJob(sync.ReconstructJobParams{
		ID:          model.ID,
		JobID:       model.JobID,
		TenantID:    model.TenantID,
		AccountID:   model.AccountID,
		Kind:        sync.JobKind(model.Kind),
		Since:       model.SinceDate,
		Until:       model.UntilDate,
		Status:      sync.JobStatus(model.Status),
		RowsByLevel: rowsByLevel,
		CreativesOK: model.CreativesResolved,
		CreativesKO: model.CreativesFailed,
		ErrorText:   model.ErrorText,
		StartedAt:   model.StartedAt,
		FinishedAt:  model.FinishedAt,
		DurationMS:  model.DurationMS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct sync job entity: %w", err)
	}

	return entity, nil
}

func (m *SyncJobMapperImpl) ToModel(entity *sync.Job) (*models.SyncJobModel, error) {
	if entity == nil {
		return nil, nil
	}

	var rowsJSON datatypes.JSON
	if rows := entity.RowsByLevel(); len(rows) > 0 {
		data, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal row counts: %w", err)
		}
		rowsJSON = data
	}

	return &models.SyncJobModel{
		ID:                entity.ID(),
		JobID:             entity.JobID(),
		TenantID:          entity.TenantID(),
		AccountID:         entity.AccountID(),
		Kind:              string(entity.Kind()),
		SinceDate:         entity.Since(),
		UntilDate:         entity.Until(),
		Status:            string(entity.Status()),
		RowsByLevel:       rowsJSON,
		CreativesResolved: entity.CreativesResolved(),
		CreativesFailed:   entity.CreativesFailed(),
		ErrorText:         entity.ErrorText(),
		StartedAt:         entity.StartedAt(),
		FinishedAt:        entity.FinishedAt(),
		DurationMS:        entity.DurationMS(),
	}, nil
}

func (m *SyncJobMapperImpl) ToEntities(ms []*models.SyncJobModel) ([]*sync.Job, error) {
	entities := make([]*sync.Job, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

type SyncWatermarkMapper interface {
	ToEntity(model *models.SyncWatermarkModel) (*sync.Watermark, error)
	ToModel(entity *sync.Watermark) (*models.SyncWatermarkModel, error)
	ToEntities(models []*models.SyncWatermarkModel) ([]*sync.Watermark, error)
}

type SyncWatermarkMapperImpl struct{}

func NewSyncWatermarkMapper() SyncWatermarkMapper {
	return &SyncWatermarkMapperImpl{}
}

func (m *SyncWatermarkMapperImpl) ToEntity(model *models.SyncWatermarkModel) (*sync.Watermark, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := sync.ReconstructWatermark(sync.ReconstructWatermarkParams{
		ID:             model.ID,
		TenantID:       model.TenantID,
		AccountID:      model.AccountID,
		LastDailyDate:  model.LastDailyDate,
		LastIntradayAt: model.LastIntradayAt,
		LastSuccessAt:  model.LastSuccessAt,
		LastError:      model.LastError,
		Enabled:        model.Enabled,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct watermark entity: %w", err)
	}

	return entity, nil
}

func (m *SyncWatermarkMapperImpl) ToModel(entity *sync.Watermark) (*models.SyncWatermarkModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SyncWatermarkModel{
		ID:             entity.ID(),
		TenantID:       entity.TenantID(),
		AccountID:      entity.AccountID(),
		LastDailyDate:  entity.LastDailyDate(),
		LastIntradayAt: entity.LastIntradayAt(),
		LastSuccessAt:  entity.LastSuccessAt(),
		LastError:      entity.LastError(),
		Enabled:        entity.Enabled(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}, nil
}

func (m *SyncWatermarkMapperImpl) ToEntities(ms []*models.SyncWatermarkModel) ([]*sync.Watermark, error) {
	entities := make([]*sync.Watermark, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
