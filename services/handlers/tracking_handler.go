package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
)

type TrackingHandler struct {
	trackingSvc TrackingServiceInterface
}

func NewTrackingHandler(trackingSvc TrackingServiceInterface) *TrackingHandler {
	return &TrackingHandler{trackingSvc: trackingSvc}
}

// @Summary Track visitor event
// @Description Records page views, clicks and session activity. Bad payloads are acknowledged with success=false.
// @Tags tracking
// @Accept json
// @Produce json
// @Param event body dto.TrackingRequest true "Event"
// @Success 200 {object} dto.TrackingResponse
// @Failure 500 {object} dto.TrackingResponse
// @Router /api/v1/track [post]
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	var req dto.TrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusOK).JSON(dto.TrackingResponse{Success: false, Error: "Invalid request body"})
	}

	err := h.trackingSvc.Track(c.UserContext(), req, clientInfo(c))
	if err == nil {
		return c.Status(http.StatusOK).JSON(dto.TrackingResponse{Success: true})
	}

	appErr, ok := shared.GetAppError(err)
	if ok && appErr.StatusCode < http.StatusInternalServerError {
		return c.Status(http.StatusOK).JSON(dto.TrackingResponse{Success: false, Error: appErr.Message})
	}

	log.WithField("session_id", req.SessionID).WithError(err).Error("Tracking event dropped")
	return c.Status(http.StatusInternalServerError).JSON(dto.TrackingResponse{Success: false, Error: "Tracking unavailable"})
}
