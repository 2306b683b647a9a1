package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/meridian-ads/meridian/internal/domain/connection"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/mappers"
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
	"github.com/meridian-ads/meridian/internal/shared/db"
	apperrors "github.com/meridian-ads/meridian/internal/shared/errors"
)

// ConnectionRepository implements the connection.Repository interface using
// GORM with Model/Mapper separation.
type ConnectionRepository struct {
	db     *gorm.DB
	mapper mappers.ConnectionMapper
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(gdb *gorm.DB) connection.Repository {
	return &ConnectionRepository{
		db:     gdb,
		mapper: mappers.NewConnectionMapper(),
	}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn *connection.Connection) error {
	model, err := r.mapper.ToModel(conn)
	if err != nil {
		return fmt.Errorf("failed to map connection: %w", err)
	}
	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	// Sync auto-generated ID back to the domain entity
	return conn.SetID(model.ID)
}

func (r *ConnectionRepository) GetByID(ctx context.Context, dbID uint) (*connection.Connection, error) {
	var model models.ConnectionModel
	err := db.FromContext(ctx, r.db).First(&model, dbID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("connection not found")
		}
		return nil, fmt.Errorf("failed to get connection by ID: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *ConnectionRepository) GetBySID(ctx context.Context, tenantID uint, sid string) (*connection.Connection, error) {
	var model models.ConnectionModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND sid = ?", tenantID, sid).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("connection not found")
		}
		return nil, fmt.Errorf("failed to get connection by SID: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *ConnectionRepository) GetDefault(ctx context.Context, tenantID uint, platform string) (*connection.Connection, error) {
	var model models.ConnectionModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ? AND platform = ? AND is_default = ?", tenantID, platform, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("no default connection for platform")
		}
		return nil, fmt.Errorf("failed to get default connection: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *ConnectionRepository) ListByTenant(ctx context.Context, tenantID uint) ([]*connection.Connection, error) {
	var connModels []*models.ConnectionModel
	err := db.FromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&connModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return r.mapper.ToEntities(connModels)
}

func (r *ConnectionRepository) Update(ctx context.Context, conn *connection.Connection) error {
	model, err := r.mapper.ToModel(conn)
	if err != nil {
		return fmt.Errorf("failed to map connection: %w", err)
	}
	result := db.FromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("connection not found")
	}
	return nil
}

// SetDefault clears the previous default for the (tenant, platform) pair and
// marks conn as default, all within one transaction.
func (r *ConnectionRepository) SetDefault(ctx context.Context, conn *connection.Connection) error {
	return db.FromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ConnectionModel{}).
			Where("tenant_id = ? AND platform = ? AND is_default = ?", conn.TenantID(), conn.Platform(), true).
			Update("is_default", false).Error
		if err != nil {
			return fmt.Errorf("failed to clear previous default: %w", err)
		}

		result := tx.Model(&models.ConnectionModel{}).
			Where("id = ?", conn.ID()).
			Update("is_default", true)
		if result.Error != nil {
			return fmt.Errorf("failed to set default connection: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError("connection not found")
		}
		conn.SetDefault(true)
		return nil
	})
}

// Delete removes a connection unless it is still the primary writer for any
// account.
func (r *ConnectionRepository) Delete(ctx context.Context, tenantID uint, sid string) error {
	return db.FromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model models.ConnectionModel
		err := tx.Where("tenant_id = ? AND sid = ?", tenantID, sid).First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError("connection not found")
			}
			return fmt.Errorf("failed to load connection: %w", err)
		}

		var bound int64
		err = tx.Model(&models.AdAccountModel{}).
			Where("primary_connection_id = ?", model.ID).
			Count(&bound).Error
		if err != nil {
			return fmt.Errorf("failed to count bound accounts: %w", err)
		}
		if bound > 0 {
			return apperrors.NewConflictError(
				fmt.Sprintf("connection is the primary writer for %d account(s)", bound))
		}

		if err := tx.Where("connection_id = ?", model.ID).
			Delete(&models.AccountAccessModel{}).Error; err != nil {
			return fmt.Errorf("failed to remove access grants: %w", err)
		}
		if err := tx.Delete(&model).Error; err != nil {
			return fmt.Errorf("failed to delete connection: %w", err)
		}
		return nil
	})
}
