package repositories

import (
	"context"
	"time"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IPTrackingRepository reads the counters maintained by the limit store.
type IPTrackingRepository struct {
	BaseRepository
}

func NewIPTrackingRepository(db *gorm.DB) *IPTrackingRepository {
	return &IPTrackingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *IPTrackingRepository) List(ctx context.Context, limit, offset int) ([]model.IPTracking, int64, error) {
	var (
		rows  []model.IPTracking
		total int64
	)

	db := r.db.WithContext(ctx)
	if err := db.Model(&model.IPTracking{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Counts returns the number of tracked IPs and of IPs that reached maxOrders
// inside a window that has not expired yet.
func (r *IPTrackingRepository) Counts(ctx context.Context, maxOrders int, window time.Duration) (tracked, limited int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&model.IPTracking{}).Count(&tracked).Error; err != nil {
		return 0, 0, err
	}
	err = db.Model(&model.IPTracking{}).
		Where("order_count >= ? AND window_start > ?", maxOrders, time.Now().Add(-window)).
		Count(&limited).Error
	return tracked, limited, err
}

type BlockedIPRepository struct {
	BaseRepository
}

func NewBlockedIPRepository(db *gorm.DB) *BlockedIPRepository {
	return &BlockedIPRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *BlockedIPRepository) FindActive(ctx context.Context, ip string) (*model.BlockedIP, error) {
	var block model.BlockedIP
	err := r.db.WithContext(ctx).
		Where("ip_address = ? AND is_active = ?", ip, true).
		First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *BlockedIPRepository) Create(ctx context.Context, block *model.BlockedIP) error {
	if block.ID == "" {
		id, _ := uuid.NewV7()
		block.ID = id.String()
	}
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *BlockedIPRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.BlockedIP{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":    false,
			"unblocked_at": at,
		}).Error
}

func (r *BlockedIPRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.BlockedIP, int64, error) {
	var (
		rows  []model.BlockedIP
		total int64
	)

	query := r.db.WithContext(ctx).Model(&model.BlockedIP{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("blocked_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *BlockedIPRepository) Counts(ctx context.Context) (active, total int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&model.BlockedIP{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = db.Model(&model.BlockedIP{}).Where("is_active = ?", true).Count(&active).Error
	return active, total, err
}
