package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
)

// ErrorHandler renders every error returned by a handler or middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(validationErrs))
	}

	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.WithFields(log.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).WithError(err).Error("Request failed")
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithField("path", c.Path()).WithError(err).Error("Unhandled error")
	return shared.ResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", nil)
}

// clientInfo returns what the client info middleware stored for this request.
func clientInfo(c *fiber.Ctx) dto.ClientInfo {
	if info, ok := c.Locals(shared.ClientInfo).(dto.ClientInfo); ok {
		return info
	}
	return dto.ClientInfo{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent), Country: "Unknown"}
}

// pagination reads limit and offset with the admin list defaults.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 50)
	offset = c.QueryInt("offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
