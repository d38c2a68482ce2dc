package persistence

import (
	"testing"
	"time"

	"github.com/erp/reportdispatch/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with every report table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.ScheduledReportBatchModel{},
		&models.ScheduledReportItemModel{},
		&models.CategoryModel{},
		&models.SubcategoryModel{},
		&models.BrandModel{},
		&models.VendorModel{},
		&models.ProductModel{},
		&models.InventoryItemModel{},
		&models.CustomerModel{},
		&models.SalesOrderModel{},
		&models.SalesOrderItemModel{},
	))
	return db
}

func newBase(createdAt time.Time) models.BaseModel {
	return models.BaseModel{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt}
}
