package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
)

type AdminHandler struct {
	authSvc  AdminAuthServiceInterface
	orderSvc OrderServiceInterface
}

func NewAdminHandler(authSvc AdminAuthServiceInterface, orderSvc OrderServiceInterface) *AdminHandler {
	return &AdminHandler{
		authSvc:  authSvc,
		orderSvc: orderSvc,
	}
}

// @Summary Admin login
// @Description Exchange the admin password for a bearer token
// @Tags admin
// @Accept json
// @Produce json
// @Param login body dto.AdminLoginRequest true "Admin password"
// @Success 200 {object} shared.Response{data=dto.AdminLoginResponse}
// @Failure 401 {object} shared.Response
// @Router /api/v1/admin/auth [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.authSvc.Login(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", resp)
}

// @Summary List orders (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param limit query int false "Items per page" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} shared.Response{data=dto.OrderListResponse}
// @Router /api/v1/admin/orders [get]
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	orders, err := h.orderSvc.ListOrders(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", orders)
}

// @Summary Get order (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} shared.Response{data=model.Order}
// @Router /api/v1/admin/orders/{id} [get]
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orderSvc.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", order)
}

// @Summary Update order status (Admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Param status body dto.UpdateOrderStatusRequest true "New status"
// @Success 200 {object} shared.Response{data=model.Order}
// @Failure 409 {object} shared.Response
// @Router /api/v1/admin/orders/{id}/status [patch]
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	order, err := h.orderSvc.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Order status updated", order)
}
