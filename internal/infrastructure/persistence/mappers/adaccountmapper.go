package mappers

import (
	"fmt"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
)

type AdAccountMapper interface {
	ToEntity(model *models.AdAccountModel) (*account.AdAccount, error)
	ToModel(entity *account.AdAccount) (*models.AdAccountModel, error)
	ToEntities(models []*models.AdAccountModel) ([]*account.AdAccount, error)
}

type AdAccountMapperImpl struct{}

func NewAdAccountMapper() AdAccountMapper {
	return &AdAccountMapperImpl{}
}

func (m *AdAccountMapperImpl) ToEntity(model *models.AdAccountModel) (*account.AdAccount, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := account.Reconstruct(account.ReconstructParams{
		ID:                  model.ID,
		SID:                 model.SID,
		TenantID:            model.TenantID,
		ExternalID:          model.ExternalID,
		Name:                model.Name,
		Currency:            model.Currency,
		Status:              model.Status,
		PrimaryConnectionID: model.PrimaryConnectionID,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct ad account entity: %w", err)
	}

	return entity, nil
}

func (m *AdAccountMapperImpl) ToModel(entity *account.AdAccount) (*models.AdAccountModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.AdAccountModel{
		ID:                  entity.ID(),
		SID:                 entity.SID(),
		TenantID:            entity.TenantID(),
		ExternalID:          entity.ExternalID(),
		Name:                entity.Name(),
		Currency:            entity.Currency(),
		Status:              entity.Status(),
		PrimaryConnectionID: entity.PrimaryConnectionID(),
		CreatedAt:           entity.CreatedAt(),
		UpdatedAt:           entity.UpdatedAt(),
	}, nil
}

func (m *AdAccountMapperImpl) ToEntities(ms []*models.AdAccountModel) ([]*account.AdAccount, error) {
	entities := make([]*account.AdAccount, 0, len(ms))
	for _, model := range ms {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
