package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/repositories"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	ORDER_SVC = "order_svc"

	MaxOrderQuantity = 10

	orderListTTL = time.Minute
	orderItemTTL = 5 * time.Minute
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// orderTransitions lists the statuses an order may move to. Delivered,
// returned and cancelled orders are final.
var orderTransitions = map[string][]string{
	shared.OrderStatusPending:    {shared.OrderStatusPendingCOD, shared.OrderStatusConfirmed, shared.OrderStatusCancelled},
	shared.OrderStatusPendingCOD: {shared.OrderStatusConfirmed, shared.OrderStatusCancelled},
	shared.OrderStatusConfirmed:  {shared.OrderStatusShipped, shared.OrderStatusCancelled},
	shared.OrderStatusShipped:    {shared.OrderStatusDelivered, shared.OrderStatusReturned},
}

type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, limit, offset int) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, id, from, to string) (bool, error)
}

type OrderLimiter interface {
	CheckLimit(ctx context.Context, ip string) dto.RateLimitInfo
}

type IPBlocker interface {
	BlockIP(ctx context.Context, ip, reason string) bool
}

type OrderNotifier interface {
	NotifyNewOrder(order *model.Order) error
}

type Product struct {
	Name      string
	UnitPrice int64
	Currency  string
}

func DefaultProduct() Product {
	return Product{Name: "Crystal Ball", UnitPrice: 5500, Currency: dto.DefaultCurrency}
}

type OrderService struct {
	appContext.DefaultService

	product  Product
	orders   OrderStore
	limiter  OrderLimiter
	blocker  IPBlocker
	cache    Cache
	notifier OrderNotifier
}

func NewOrderService(product Product, orders OrderStore, limiter OrderLimiter, blocker IPBlocker, cache Cache, notifier OrderNotifier) *OrderService {
	return &OrderService{
		product:  product,
		orders:   orders,
		limiter:  limiter,
		blocker:  blocker,
		cache:    cache,
		notifier: notifier,
	}
}

func (svc OrderService) Id() string {
	return ORDER_SVC
}

func (svc *OrderService) Configure(ctx *appContext.Context) error {
	svc.product = DefaultProduct()
	if name := os.Getenv("PRODUCT_NAME"); name != "" {
		svc.product.Name = name
	}
	if raw := os.Getenv("PRODUCT_UNIT_PRICE"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || price <= 0 {
			return fmt.Errorf("invalid PRODUCT_UNIT_PRICE %q", raw)
		}
		svc.product.UnitPrice = price
	}
	if currency := os.Getenv("PRODUCT_CURRENCY"); currency != "" {
		svc.product.Currency = currency
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *OrderService) Start() error {
	pgSvc := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.orders = repositories.NewOrderRepository(pgSvc.Db())
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.blocker = svc.Service(FIREWALL_SVC).(*FirewallService)
	svc.cache = svc.Service(CACHE_SVC).(*CacheService).Cache()

	if emailSvc, ok := svc.Service(EMAIL_SVC).(*EmailService); ok && emailSvc.Enabled() {
		svc.notifier = emailSvc
	}
	return nil
}

// DiscountPercent is 0 for one item, 10 for two and 15 for three or more.
func DiscountPercent(quantity int) int {
	switch {
	case quantity >= 3:
		return 15
	case quantity == 2:
		return 10
	default:
		return 0
	}
}

// TotalPrice returns unitPrice × quantity minus the quantity discount,
// rounded half up to a whole currency unit.
func TotalPrice(unitPrice int64, quantity int) int64 {
	gross := unitPrice * int64(quantity) * int64(100-DiscountPercent(quantity))
	return (gross + 50) / 100
}

func (svc *OrderService) Quote(quantity int) dto.PriceTier {
	return dto.PriceTier{
		Quantity:        quantity,
		DiscountPercent: DiscountPercent(quantity),
		TotalPrice:      TotalPrice(svc.product.UnitPrice, quantity),
	}
}

func (svc *OrderService) Product() dto.ProductResponse {
	return dto.ProductResponse{
		Name:        svc.product.Name,
		UnitPrice:   svc.product.UnitPrice,
		Currency:    svc.product.Currency,
		MaxPerOrder: MaxOrderQuantity,
		Tiers:       []dto.PriceTier{svc.Quote(1), svc.Quote(2), svc.Quote(3)},
	}
}

// PlaceOrder runs checkout: validation, the per-IP limit, then persistence.
// A request over the limit gets the caller's IP blocked at the edge. The
// limit check and the insert are not one transaction.
func (svc *OrderService) PlaceOrder(ctx context.Context, req dto.CreateOrderRequest, client dto.ClientInfo) (*dto.CreateOrderResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	limit := svc.limiter.CheckLimit(ctx, client.IP)
	if !limit.Allowed {
		if limit.Reason == shared.ReasonRateLimitExceeded {
			// the block must finish even if the client hangs up
			blocked := svc.blocker.BlockIP(context.WithoutCancel(ctx), client.IP, limit.Reason)
			log.WithFields(log.Fields{
				"ip":      client.IP,
				"blocked": blocked,
			}).Warn("Order rejected by rate limit")

			return nil, shared.NewTooManyRequestsError(ErrRateLimited, limit.Reason, dto.RateLimitErrorData{
				Reason:    limit.Reason,
				Remaining: limit.Remaining,
				ResetTime: limit.ResetTime,
			})
		}
		return nil, shared.NewInternalError(ErrLimiterUnavailable, limit.Reason)
	}

	order, err := svc.CreateOrder(ctx, req, client)
	if err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		Success:   true,
		Order:     order,
		RateLimit: limit,
	}, nil
}

// CreateOrder validates and stores an order. The total is always computed
// here; any client-supplied price is ignored.
func (svc *OrderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest, client dto.ClientInfo) (*model.Order, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	productName := req.ProductName
	if productName == "" {
		productName = svc.product.Name
	}

	order := &model.Order{
		Name:            req.Name,
		Phone:           req.Phone,
		Wilaya:          req.Wilaya,
		Baladia:         req.Baladia,
		Address:         req.Address,
		ChildName:       req.ChildName,
		ProductName:     productName,
		ImageURL:        req.ImageURL,
		Quantity:        req.Quantity,
		UnitPrice:       svc.product.UnitPrice,
		DiscountPercent: DiscountPercent(req.Quantity),
		TotalPrice:      TotalPrice(svc.product.UnitPrice, req.Quantity),
		Currency:        req.Currency,
		Status:          shared.OrderStatusPendingCOD,
		ClientIP:        client.IP,
		UserAgent:       client.UserAgent,
		Country:         client.Country,
	}

	if err := svc.orders.Create(ctx, order); err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}
	recordOrderCreated()

	svc.cache.InvalidatePattern(ctx, shared.CacheKeyOrderList)
	_ = svc.cache.Delete(ctx, shared.CacheKeyOrderItem+order.ID)

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"ip":       client.IP,
		"quantity": order.Quantity,
		"total":    order.TotalPrice,
	}).Info("Order created")

	if svc.notifier != nil {
		notified := *order
		go func() {
			if err := svc.notifier.NotifyNewOrder(&notified); err != nil {
				log.WithField("order_id", notified.ID).WithError(err).Warn("Failed to send order notification")
			}
		}()
	}

	return order, nil
}

func (svc *OrderService) ListOrders(ctx context.Context, limit, offset int) (*dto.OrderListResponse, error) {
	key := fmt.Sprintf("%s%d:%d", shared.CacheKeyOrderList, limit, offset)

	var cached dto.OrderListResponse
	if found, err := svc.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	orders, total, err := svc.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}

	resp := &dto.OrderListResponse{Orders: orders, Total: total, Limit: limit, Offset: offset}
	if resp.Orders == nil {
		resp.Orders = []model.Order{}
	}
	_ = svc.cache.Set(ctx, key, resp, orderListTTL)
	return resp, nil
}

func (svc *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	key := shared.CacheKeyOrderItem + id

	var cached model.Order
	if found, err := svc.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	order, err := svc.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Order not found")
		}
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}

	_ = svc.cache.Set(ctx, key, order, orderItemTTL)
	return order, nil
}

// UpdateStatus applies an admin status change if the transition is allowed.
func (svc *OrderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	order, err := svc.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Order not found")
		}
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}

	if !CanTransition(order.Status, status) {
		return nil, shared.NewConflictError(ErrInvalidTransition,
			fmt.Sprintf("Cannot change order status from %s to %s", order.Status, status))
	}

	updated, err := svc.orders.UpdateStatus(ctx, id, order.Status, status)
	if err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}
	if !updated {
		return nil, shared.NewConflictError(ErrInvalidTransition, "Order status changed concurrently, reload and retry")
	}

	svc.cache.InvalidatePattern(ctx, shared.CacheKeyOrderList)
	_ = svc.cache.Delete(ctx, shared.CacheKeyOrderItem+id)

	order.Status = status
	log.WithFields(log.Fields{"order_id": id, "status": status}).Info("Order status updated")
	return order, nil
}

func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
