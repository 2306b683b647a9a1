package migration

import (
	"github.com/meridian-ads/meridian/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ConnectionModel{},
		&models.AdAccountModel{},
		&models.AccountAccessModel{},
		&models.SyncJobModel{},
		&models.SyncWatermarkModel{},
		&models.MetricRowModel{},
		&models.MetricSnapshotModel{},
		&models.CreativeRecordModel{},
	}
}
