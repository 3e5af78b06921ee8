package handlers

import (
	"context"
	"mime/multipart"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/cache"
)

type OrderServiceInterface interface {
	Product() dto.ProductResponse
	PlaceOrder(ctx context.Context, req dto.CreateOrderRequest, client dto.ClientInfo) (*dto.CreateOrderResponse, error)
	ListOrders(ctx context.Context, limit, offset int) (*dto.OrderListResponse, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Order, error)
}

type AdminAuthServiceInterface interface {
	Login(req dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
}

type IPAdminServiceInterface interface {
	Stats(ctx context.Context) (*dto.IPStats, error)
	Blocked(ctx context.Context, activeOnly bool, limit, offset int) (*dto.PageResponse, error)
	Tracking(ctx context.Context, limit, offset int) (*dto.PageResponse, error)
	Apply(ctx context.Context, req dto.IPActionRequest) (*dto.IPActionResponse, error)
}

type TrackingServiceInterface interface {
	Track(ctx context.Context, req dto.TrackingRequest, client dto.ClientInfo) error
}

type UploadServiceInterface interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader) (*dto.UploadResponse, error)
}

type CacheAdminInterface interface {
	Stats() cache.Stats
	InvalidatePattern(ctx context.Context, prefix string) int
}
