package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meridian-ads/meridian/internal/domain/account"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/mappers"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
	"github.com/meridian-ads/meridian/internal/shared/db"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

// AdAccountRepository implements the account.Repository interface using GORM
// with Model/Mapper separation.
type AdAccountRepository struct {
	db     *gorm.DB
	mapper mappers.AdAccountMapper
}

// NewAdAccountRepository creates a new AdAccountRepository.
func NewAdAccountRepository(gdb *gorm.DB) account.Repository {
	return &AdAccountRepository{
		db:     gdb,
		mapper: mappers.NewAdAccountMapper(),
	}
}

func (r *AdAccountRepository) Create(ctx context.Context, acct *account.AdAccount) error {
	model, err := r.mapper.ToModel(acct)
	if err != nil {
		return fmt.Errorf("failed to map ad account: %w", err)
	}
	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create ad account: %w", err)
	}
	return acct.SetID(model.ID)
}

func (r *AdAccountRepository) GetByID(ctx context.Context, dbID uint) (*account.AdAccount, error) {
	var model models.AdAccountModel
	err := db.FromContext(ctx, r.db).First(&model, dbID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("ad account not found")
		}
		return nil, fmt.Errorf("failed to get ad account by ID: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *AdAccountRepository) GetBySID(ctx context.Context, tenantID uint, sid string) (*account.AdAccount, error) {
	var model models.AdAccountModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND sid = ?", tenantID, sid).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("ad account not found")
		}
		return nil, fmt.Errorf("failed to get ad account by SID: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *AdAccountRepository) GetByExternalID(ctx context.Context, tenantID uint, externalID string) (*account.AdAccount, error) {
	var model models.AdAccountModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("ad account not found")
		}
		return nil, fmt.Errorf("failed to get ad account by external ID: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *AdAccountRepository) ListByTenant(ctx context.Context, tenantID uint) ([]*account.AdAccount, error) {
	var acctModels []*models.AdAccountModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&acctModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}
	return r.mapper.ToEntities(acctModels)
}

func (r *AdAccountRepository) Update(ctx context.Context, acct *account.AdAccount) error {
	model, err := r.mapper.ToModel(acct)
	if err != nil {
		return fmt.Errorf("failed to map ad account: %w", err)
	}
	result := db.FromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update ad account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("ad account not found")
	}
	return nil
}

// GrantAccess records that a connection can read an account. Granting the
// same pair twice is a no-op thanks to the unique index and DoNothing.
func (r *AdAccountRepository) GrantAccess(ctx context.Context, accountID, connectionID uint) error {
	grant := &models.AccountAccessModel{
		AccountID:    accountID,
		ConnectionID: connectionID,
	}
	err := db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant).Error
	if err != nil {
		return fmt.Errorf("failed to grant account access: %w", err)
	}
	return nil
}

func (r *AdAccountRepository) RevokeAccess(ctx context.Context, accountID, connectionID uint) error {
	err := db.FromContext(ctx, r.db).
		Where("account_id = ? AND connection_id = ?", accountID, connectionID).
		Delete(&models.AccountAccessModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke account access: %w", err)
	}
	return nil
}

func (r *AdAccountRepository) CountAccountsBoundTo(ctx context.Context, connectionID uint) (int64, error) {
	var count int64
	err := db.FromContext(ctx, r.db).
		Model(&models.AdAccountModel{}).
		Where("primary_connection_id = ?", connectionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bound accounts: %w", err)
	}
	return count, nil
}
