package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/crystal-dz/storefront_api/shared"
)

type MediaHandler struct {
	uploadSvc UploadServiceInterface
}

func NewMediaHandler(uploadSvc UploadServiceInterface) *MediaHandler {
	return &MediaHandler{uploadSvc: uploadSvc}
}

// @Summary Upload image
// @Description Upload the personalisation image for an order (JPG, PNG, WEBP, max 5MB)
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 200 {object} shared.Response{data=dto.UploadResponse}
// @Router /api/v1/uploads/image [post]
func (h *MediaHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return shared.NewBadRequestError(err, "No image file provided")
	}

	resp, err := h.uploadSvc.UploadImage(c.UserContext(), file)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Image uploaded successfully", resp)
}
