package seeders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services"
)

func TestSeedAll_IsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	seeder := NewMainSeeder(db)
	require.NoError(t, seeder.SeedAll(12))
	require.NoError(t, seeder.SeedAll(12))

	var orders []model.Order
	require.NoError(t, db.Find(&orders).Error)
	assert.Len(t, orders, 12)

	for _, o := range orders {
		assert.Equal(t, services.TotalPrice(o.UnitPrice, o.Quantity), o.TotalPrice)
		assert.Equal(t, services.DiscountPercent(o.Quantity), o.DiscountPercent)
	}
}
