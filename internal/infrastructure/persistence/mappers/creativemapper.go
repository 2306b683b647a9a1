package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/meridian-ads/meridian/internal/domain/creative"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
)

type CreativeMapper interface {
	ToEntity(model *models.CreativeRecordModel) (*creative.Record, error)
	ToModel(entity *creative.Record) (*models.CreativeRecordModel, error)
	ToEntities(models []*models.CreativeRecordModel) ([]*creative.Record, error)
}

type CreativeMapperImpl struct{}

func NewCreativeMapper() CreativeMapper {
	return &CreativeMapperImpl{}
}

func (m *CreativeMapperImpl) ToEntity(model *models.CreativeRecordModel) (*creative.Record, error) {
	if model == nil {
		return nil, nil
	}

	var texts creative.Texts
	if model.Texts != nil {
		if err := json.Unmarshal(model.Texts, &texts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal creative texts: %w", err)
		}
	}

	return &creative.Record{
		TenantID:       model.TenantID,
		AccountID:      model.AccountID,
		AdID:           model.AdID,
		CreativeType:   creative.Type(model.CreativeType),
		MediaURL:       model.MediaURL,
		MediaURLHD:     model.MediaURLHD,
		Width:          model.Width,
		Height:         model.Height,
		Quality:        creative.Quality(model.Quality),
		Texts:          texts,
		Status:         creative.FetchStatus(model.FetchStatus),
		VideoID:        model.VideoID,
		ImageHash:      model.ImageHash,
		PostID:         model.PostID,
		CachedMediaURL: model.CachedMediaURL,
		CachedBytes:    model.CachedBytes,
		RawSource:      model.RawSource,
		ResolvedAt:     model.ResolvedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}

func (m *CreativeMapperImpl) ToModel(entity *creative.Record) (*models.CreativeRecordModel, error) {
	if entity == nil {
		return nil, nil
	}

	var textsJSON datatypes.JSON
	if !entity.Texts.Empty() {
		data, err := json.Marshal(entity.Texts)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal creative texts: %w", err)
		}
		textsJSON = data
	}

	return &models.CreativeRecordModel{
		TenantID:       entity.TenantID,
		AccountID:      entity.AccountID,
		AdID:           entity.AdID,
		CreativeType:   string(entity.CreativeType),
		MediaURL:       entity.MediaURL,
		MediaURLHD:     entity.MediaURLHD,
		Width:          entity.Width,
		Height:         entity.Height,
		Quality:        string(entity.Quality),
		Texts:          textsJSON,
		FetchStatus:    string(entity.Status),
		VideoID:        entity.VideoID,
		ImageHash:      entity.ImageHash,
		PostID:         entity.PostID,
		CachedMediaURL: entity.CachedMediaURL,
		CachedBytes:    entity.CachedBytes,
		RawSource:      entity.RawSource,
		ResolvedAt:     entity.ResolvedAt,
	}, nil
}

func (m *CreativeMapperImpl) ToEntities(ms []*models.CreativeRecordModel) ([]*creative.Record, error) {
	entities := make([]*creative.Record, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
