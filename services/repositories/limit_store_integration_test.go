//go:build integration

package repositories

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crystal-dz/storefront_api/model"
)

func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()
	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.IPTracking{}, &model.BlockedIP{}))
	require.NoError(t, InstallLimitProcedures(db, 3, 24*time.Hour))
	return db
}

func TestPostgresLimitStore(t *testing.T) {
	db := newPostgresDB(t)
	store := NewPostgresLimitStore(db, 3, 24*time.Hour)
	ctx := context.Background()

	t.Run("three allowed then denied", func(t *testing.T) {
		for _, want := range []int{2, 1, 0} {
			d, err := store.Check(ctx, "41.1.1.1")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, want, d.Remaining)
		}

		d, err := store.Check(ctx, "41.1.1.1")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), d.ResetTime, time.Minute)

		tracked, limited, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), tracked)
		assert.Equal(t, int64(1), limited)
	})

	t.Run("reset allows again", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx, "41.1.1.1"))

		d, err := store.Check(ctx, "41.1.1.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2, d.Remaining)
	})

	t.Run("expired window starts fresh", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := store.Check(ctx, "41.3.3.3")
			require.NoError(t, err)
		}
		require.NoError(t, db.Model(&model.IPTracking{}).
			Where("ip_address = ?", "41.3.3.3").
			Update("window_start", time.Now().Add(-25*time.Hour)).Error)

		d, err := store.Check(ctx, "41.3.3.3")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2, d.Remaining)
	})

	t.Run("concurrent checks never exceed the cap", func(t *testing.T) {
		var allowed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := store.Check(ctx, "41.4.4.4")
				if assert.NoError(t, err) && d.Allowed {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(3), allowed.Load())
	})
}
