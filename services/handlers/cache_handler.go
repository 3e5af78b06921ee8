package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
)

type CacheHandler struct {
	cache CacheAdminInterface
}

func NewCacheHandler(cache CacheAdminInterface) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// @Summary Cache stats (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=cache.Stats}
// @Router /api/v1/admin/cache/stats [get]
func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, "Success", h.cache.Stats())
}

// @Summary Invalidate cache prefix (Admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.InvalidateCacheRequest true "Key prefix"
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	var req dto.InvalidateCacheRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	removed := h.cache.InvalidatePattern(c.UserContext(), req.Prefix)
	return shared.ResponseJSON(c, http.StatusOK, "Success", fiber.Map{
		"prefix":  req.Prefix,
		"removed": removed,
	})
}
