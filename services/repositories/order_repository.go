package repositories

import (
	"context"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository struct {
	BaseRepository
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		id, _ := uuid.NewV7()
		order.ID = id.String()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a page of orders, newest first, and the total count.
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]model.Order, int64, error) {
	var (
		orders []model.Order
		total  int64
	)

	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves an order from one status to another. It reports false
// when the order was not in the expected status anymore.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
