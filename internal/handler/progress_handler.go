package handler

import (
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/middleware"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProgressHandler handles lesson progress HTTP requests
type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(service service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// CompleteLessonPart godoc
// @Summary Complete a lesson part
// @Description Marks a non-test lesson part completed and credits its award once
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param part_id path string true "Lesson part ID"
// @Success 200 {object} dto.LessonPartCompletionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /lesson-parts/{part_id}/complete [post]
func (h *ProgressHandler) CompleteLessonPart(c *fiber.Ctx) error {
	resp, err := h.service.CompleteLessonPart(c.Context(), middleware.UserID(c), c.Params("part_id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
