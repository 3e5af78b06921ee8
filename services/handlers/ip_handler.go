package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
)

type IPHandler struct {
	ipSvc IPAdminServiceInterface
}

func NewIPHandler(ipSvc IPAdminServiceInterface) *IPHandler {
	return &IPHandler{ipSvc: ipSvc}
}

// @Summary IP management (Admin)
// @Description Limiter and block counters, the block list, or the per-IP order tracking list
// @Tags admin
// @Produce json
// @Security Bearer
// @Param action query string false "stats, blocked or tracking" default(stats)
// @Param active query bool false "Only active blocks" default(true)
// @Param limit query int false "Items per page" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/ip [get]
func (h *IPHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	limit, offset := pagination(c)

	var (
		data interface{}
		err  error
	)
	switch c.Query("action", "stats") {
	case "stats":
		data, err = h.ipSvc.Stats(ctx)
	case "blocked":
		data, err = h.ipSvc.Blocked(ctx, c.QueryBool("active", true), limit, offset)
	case "tracking":
		data, err = h.ipSvc.Tracking(ctx, limit, offset)
	default:
		return shared.NewBadRequestError(nil, "action must be one of: stats blocked tracking")
	}
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", data)
}

// @Summary IP action (Admin)
// @Description Reset an IP's order limit, lift its block, or block it manually
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param action body dto.IPActionRequest true "Action"
// @Success 200 {object} shared.Response{data=dto.IPActionResponse}
// @Router /api/v1/admin/ip [post]
func (h *IPHandler) Post(c *fiber.Ctx) error {
	var req dto.IPActionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.ipSvc.Apply(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
