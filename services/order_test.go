package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/repositories"
	"github.com/crystal-dz/storefront_api/shared"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBlocker struct {
	mu     sync.Mutex
	calls  []string
	result bool
}

func (b *recordingBlocker) BlockIP(_ context.Context, ip, reason string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, ip+"|"+reason)
	return b.result
}

type recordingNotifier struct {
	done chan *model.Order
}

func (n *recordingNotifier) NotifyNewOrder(order *model.Order) error {
	n.done <- order
	return nil
}

func validOrderRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Name:      "Amine Benali",
		Phone:     "0551234567",
		Wilaya:    "Alger",
		Baladia:   "Bab Ezzouar",
		ChildName: "Yasmine",
		Quantity:  1,
	}
}

func newTestOrderService(t *testing.T, limiter OrderLimiter, blocker IPBlocker) (*OrderService, *repositories.OrderRepository) {
	t.Helper()
	repo := repositories.NewOrderRepository(newTestDB(t))
	return NewOrderService(DefaultProduct(), repo, limiter, blocker, newTestCache(), nil), repo
}

func TestPricing(t *testing.T) {
	tests := []struct {
		quantity int
		discount int
		total    int64
	}{
		{1, 0, 5500},
		{2, 10, 9900},
		{3, 15, 14025},
		{4, 15, 18700},
		{10, 15, 46750},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.discount, DiscountPercent(tt.quantity), "quantity %d", tt.quantity)
		assert.Equal(t, tt.total, TotalPrice(5500, tt.quantity), "quantity %d", tt.quantity)
	}

	// 999 × 3 × 0.85 = 2547.45
	assert.Equal(t, int64(2547), TotalPrice(999, 3))
	// 1001 × 2 × 0.9 = 1801.8
	assert.Equal(t, int64(1802), TotalPrice(1001, 2))
}

func TestCreateOrder_ComputesTotalAndIgnoresClientPrice(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestOrderService(t, nil, nil)

	req := validOrderRequest()
	req.Quantity = 2
	clientPrice := 1.0
	req.TotalPrice = &clientPrice

	order, err := svc.CreateOrder(ctx, req, dto.ClientInfo{IP: "41.1.1.1", UserAgent: "ua", Country: "DZ"})
	require.NoError(t, err)

	assert.Equal(t, int64(9900), order.TotalPrice)
	assert.Equal(t, 10, order.DiscountPercent)
	assert.Equal(t, int64(5500), order.UnitPrice)
	assert.Equal(t, shared.OrderStatusPendingCOD, order.Status)
	assert.Equal(t, "DZD", order.Currency)
	assert.Equal(t, "Crystal Ball", order.ProductName)
	assert.Equal(t, "41.1.1.1", order.ClientIP)
	assert.Equal(t, "DZ", order.Country)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9900), stored.TotalPrice)
}

func TestCreateOrder_ValidationListsEveryField(t *testing.T) {
	svc, _ := newTestOrderService(t, nil, nil)

	req := dto.CreateOrderRequest{Name: "A", Phone: "12345", Quantity: 11}
	_, err := svc.CreateOrder(context.Background(), req, dto.ClientInfo{IP: "41.1.1.1"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := map[string]bool{}
	for _, e := range dto.FormatValidationErrors(err) {
		fields[e.Field] = true
	}
	for _, f := range []string{"name", "phone", "wilaya", "baladia", "child_name", "quantity"} {
		assert.True(t, fields[f], "missing %s", f)
	}
}

func TestCreateOrder_InvalidatesListCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrderService(t, nil, nil)

	list, err := svc.ListOrders(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)

	_, err = svc.CreateOrder(ctx, validOrderRequest(), dto.ClientInfo{IP: "41.1.1.1"})
	require.NoError(t, err)

	list, err = svc.ListOrders(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestCreateOrder_NotifiesAsynchronously(t *testing.T) {
	repo := repositories.NewOrderRepository(newTestDB(t))
	notifier := &recordingNotifier{done: make(chan *model.Order, 1)}
	svc := NewOrderService(DefaultProduct(), repo, nil, nil, newTestCache(), notifier)

	order, err := svc.CreateOrder(context.Background(), validOrderRequest(), dto.ClientInfo{IP: "41.1.1.1"})
	require.NoError(t, err)

	select {
	case got := <-notifier.done:
		assert.Equal(t, order.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("notification not sent")
	}
}

func TestPlaceOrder_FourthOrderFromSameIPIsBlocked(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t)
	mr.SetTime(time.Now())
	blocker := &recordingBlocker{result: true}
	svc, repo := newTestOrderService(t, limiter, blocker)

	client := dto.ClientInfo{IP: "41.1.1.1"}
	for i := 0; i < 3; i++ {
		resp, err := svc.PlaceOrder(ctx, validOrderRequest(), client)
		require.NoError(t, err, "order %d", i+1)
		assert.True(t, resp.Success)
		assert.Equal(t, 2-i, resp.RateLimit.Remaining)
	}
	assert.Empty(t, blocker.calls)

	_, err := svc.PlaceOrder(ctx, validOrderRequest(), client)
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, appErr.StatusCode)
	assert.Equal(t, shared.ReasonRateLimitExceeded, appErr.Message)
	assert.ErrorIs(t, err, ErrRateLimited)

	data, ok := appErr.Data.(dto.RateLimitErrorData)
	require.True(t, ok)
	assert.Equal(t, shared.ReasonRateLimitExceeded, data.Reason)
	assert.Equal(t, 0, data.Remaining)
	assert.NotNil(t, data.ResetTime)

	assert.Equal(t, []string{"41.1.1.1|Rate limit exceeded"}, blocker.calls)

	_, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "rejected order is not stored")
}

func TestPlaceOrder_LimiterFailureIsServerError(t *testing.T) {
	limiter := NewRateLimitService(&stubLimitStore{err: errors.New("down")})
	blocker := &recordingBlocker{}
	svc, _ := newTestOrderService(t, limiter, blocker)

	_, err := svc.PlaceOrder(context.Background(), validOrderRequest(), dto.ClientInfo{IP: "41.1.1.1"})
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, shared.ReasonDatabaseError, appErr.Message)
	assert.Empty(t, blocker.calls, "store failures never block")
}

func TestPlaceOrder_InvalidRequestDoesNotConsumeLimit(t *testing.T) {
	store := &stubLimitStore{decision: repositories.LimitDecision{Allowed: true, Remaining: 2}}
	svc, _ := newTestOrderService(t, NewRateLimitService(store), &recordingBlocker{})

	req := validOrderRequest()
	req.Phone = "0123"
	_, err := svc.PlaceOrder(context.Background(), req, dto.ClientInfo{IP: "41.1.1.1"})
	require.Error(t, err)
	assert.Empty(t, store.checks)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrderService(t, nil, nil)

	order, err := svc.CreateOrder(ctx, validOrderRequest(), dto.ClientInfo{IP: "41.1.1.1"})
	require.NoError(t, err)

	cached, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OrderStatusPendingCOD, cached.Status)

	for _, status := range []string{shared.OrderStatusConfirmed, shared.OrderStatusShipped, shared.OrderStatusDelivered} {
		updated, err := svc.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
	}

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OrderStatusDelivered, got.Status, "item cache invalidated on update")

	_, err = svc.UpdateStatus(ctx, order.ID, shared.OrderStatusCancelled)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, "missing", shared.OrderStatusConfirmed)
	appErr, ok = shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition("pending", "pending_cod"))
	assert.True(t, CanTransition("shipped", "returned"))
	assert.False(t, CanTransition("pending_cod", "delivered"))
	assert.False(t, CanTransition("cancelled", "confirmed"))
	assert.False(t, CanTransition("returned", "shipped"))
}

func TestProductTiers(t *testing.T) {
	svc := NewOrderService(DefaultProduct(), nil, nil, nil, newTestCache(), nil)
	p := svc.Product()

	require.Len(t, p.Tiers, 3)
	assert.Equal(t, int64(5500), p.Tiers[0].TotalPrice)
	assert.Equal(t, int64(9900), p.Tiers[1].TotalPrice)
	assert.Equal(t, 15, p.Tiers[2].DiscountPercent)
	assert.Equal(t, MaxOrderQuantity, p.MaxPerOrder)
}
