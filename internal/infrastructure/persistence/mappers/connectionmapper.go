package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
)

type ConnectionMapper interface {
	ToEntity(model *models.ConnectionModel) (*connection.Connection, error)
	ToModel(entity *connection.Connection) (*models.ConnectionModel, error)
	ToEntities(models []*models.ConnectionModel) ([]*connection.Connection, error)
}

type ConnectionMapperImpl struct{}

func NewConnectionMapper() ConnectionMapper {
	return &ConnectionMapperImpl{}
}

func (m *ConnectionMapperImpl) ToEntity(model *models.ConnectionModel) (*connection.Connection, error) {
	if model == nil {
		return nil, nil
	}

	var scopes []string
	if model.Scopes != nil {
		if err := json.Unmarshal(model.Scopes, &scopes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scopes: %w", err)
		}
	}

	entity, err := connection.Reconstruct(connection.ReconstructParams{
		ID:              model.ID,
		SID:             model.SID,
		UUID:            model.UUID,
		TenantID:        model.TenantID,
		Platform:        model.Platform,
		TokenCiphertext: model.TokenCiphertext,
		TokenPlaintext:  model.TokenPlaintext,
		LongLived:       model.LongLived,
		TokenExpiresAt:  model.TokenExpiresAt,
		Scopes:          scopes,
		Status:          connection.Status(model.Status),
		LastValidatedAt: model.LastValidatedAt,
		IsDefault:       model.IsDefault,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct connection entity: %w", err)
	}

	return entity, nil
}

func (m *ConnectionMapperImpl) ToModel(entity *connection.Connection) (*models.ConnectionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var scopesJSON datatypes.JSON
	if scopes := entity.Scopes(); len(scopes) > 0 {
		data, err := json.Marshal(scopes)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal scopes: %w", err)
		}
		scopesJSON = data
	}

	return &models.ConnectionModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		UUID:            entity.UUID(),
		TenantID:        entity.TenantID(),
		Platform:        entity.Platform(),
		TokenCiphertext: entity.TokenCiphertext(),
		TokenPlaintext:  entity.TokenIsPlaintext(),
		LongLived:       entity.LongLived(),
		TokenExpiresAt:  entity.TokenExpiresAt(),
		Scopes:          scopesJSON,
		Status:          entity.Status().String(),
		LastValidatedAt: entity.LastValidatedAt(),
		IsDefault:       entity.IsDefault(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}

func (m *ConnectionMapperImpl) ToEntities(ms []*models.ConnectionModel) ([]*connection.Connection, error) {
	entities := make([]*connection.Connection, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
