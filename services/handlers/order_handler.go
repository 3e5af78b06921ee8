package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
)

type OrderHandler struct {
	orderSvc OrderServiceInterface
}

func NewOrderHandler(orderSvc OrderServiceInterface) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// @Summary Product
// @Description Product details with the quantity price tiers
// @Tags orders
// @Produce json
// @Success 200 {object} shared.Response{data=dto.ProductResponse}
// @Router /api/v1/product [get]
func (h *OrderHandler) Product(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return shared.ResponseJSON(c, http.StatusOK, "Success", h.orderSvc.Product())
}

// @Summary Create order
// @Description Place a cash-on-delivery order. Limited to 3 orders per IP per 24 hours.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body dto.CreateOrderRequest true "Order details"
// @Success 200 {object} dto.CreateOrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 429 {object} shared.Response{data=dto.RateLimitErrorData}
// @Router /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.orderSvc.PlaceOrder(c.UserContext(), req, clientInfo(c))
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == http.StatusTooManyRequests {
			if data, ok := appErr.Data.(dto.RateLimitErrorData); ok {
				AddRateLimitHeaders(c, &dto.RateLimitInfo{
					Allowed:   false,
					Remaining: data.Remaining,
					ResetTime: data.ResetTime,
				})
			}
		}
		return err
	}

	AddRateLimitHeaders(c, &resp.RateLimit)
	return c.Status(http.StatusOK).JSON(resp)
}
