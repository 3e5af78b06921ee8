package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Order{},
		&model.IPTracking{},
		&model.BlockedIP{},
		&model.VisitorSession{},
		&model.PageView{},
		&model.ClickEvent{},
		&model.ActivityEvent{},
	))
	return db
}

func sampleOrder(name string) *model.Order {
	return &model.Order{
		Name:        name,
		Phone:       "0551234567",
		Wilaya:      "Alger",
		Baladia:     "Bab Ezzouar",
		ChildName:   "Yasmine",
		ProductName: "Crystal Ball",
		Quantity:    1,
		UnitPrice:   5500,
		TotalPrice:  5500,
		Currency:    "DZD",
		Status:      "pending_cod",
		ClientIP:    "41.1.1.1",
	}
}

func TestOrderRepository_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	first := sampleOrder("Amine")
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	time.Sleep(2 * time.Millisecond)
	second := sampleOrder("Sara")
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amine", got.Name)

	orders, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID, "newest first")

	orders, total, err = repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_UpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	order := sampleOrder("Amine")
	require.NoError(t, repo.Create(ctx, order))

	ok, err := repo.UpdateStatus(ctx, order.ID, "pending_cod", "confirmed")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, order.ID, "pending_cod", "cancelled")
	require.NoError(t, err)
	assert.False(t, ok, "status already moved on")

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
}

func TestBlockedIPRepository_OneActiveBlockPerIP(t *testing.T) {
	ctx := context.Background()
	repo := NewBlockedIPRepository(newTestDB(t))

	now := time.Now()
	block := &model.BlockedIP{IPAddress: "41.1.1.1", Reason: "Rate limit exceeded", BlockedAt: now, IsActive: true}
	require.NoError(t, repo.Create(ctx, block))

	dup := &model.BlockedIP{IPAddress: "41.1.1.1", Reason: "again", BlockedAt: now, IsActive: true}
	assert.Error(t, repo.Create(ctx, dup))

	found, err := repo.FindActive(ctx, "41.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, block.ID, found.ID)

	require.NoError(t, repo.Deactivate(ctx, block.ID, now))
	_, err = repo.FindActive(ctx, "41.1.1.1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	again := &model.BlockedIP{IPAddress: "41.1.1.1", Reason: "again", BlockedAt: now, IsActive: true}
	require.NoError(t, repo.Create(ctx, again))

	active, total, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
	assert.Equal(t, int64(2), total)

	rows, count, err := repo.List(ctx, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, rows, 1)
	assert.Equal(t, again.ID, rows[0].ID)

	rows, count, err = repo.List(ctx, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, rows, 2)
}

func TestIPTrackingRepository_Counts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewIPTrackingRepository(db)

	now := time.Now()
	rows := []model.IPTracking{
		{IPAddress: "41.1.1.1", OrderCount: 3, WindowStart: now.Add(-time.Hour)},
		{IPAddress: "41.1.1.2", OrderCount: 1, WindowStart: now.Add(-time.Hour)},
		{IPAddress: "41.1.1.3", OrderCount: 3, WindowStart: now.Add(-25 * time.Hour)},
	}
	require.NoError(t, db.Create(&rows).Error)

	tracked, limited, err := repo.Counts(ctx, 3, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tracked)
	assert.Equal(t, int64(1), limited, "expired windows do not count")

	list, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)
}

func TestVisitorRepository_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewVisitorRepository(newTestDB(t))

	now := time.Now()
	session := &model.VisitorSession{ID: "session-0001", IPAddress: "41.1.1.1", StartedAt: now, LastSeenAt: now}
	require.NoError(t, repo.CreateSession(ctx, session))
	require.NoError(t, repo.CreateSession(ctx, &model.VisitorSession{ID: "session-0001", IPAddress: "10.0.0.1", StartedAt: now, LastSeenAt: now}))

	require.NoError(t, repo.UpdateSession(ctx, "session-0001", map[string]interface{}{
		"page_views": gorm.Expr("page_views + ?", 1),
	}))
	require.NoError(t, repo.CreatePageView(ctx, &model.PageView{SessionID: "session-0001", Path: "/", CreatedAt: now}))

	got, err := repo.GetSession(ctx, "session-0001")
	require.NoError(t, err)
	assert.Equal(t, "41.1.1.1", got.IPAddress, "second create is ignored")
	assert.Equal(t, 1, got.PageViews)
}
