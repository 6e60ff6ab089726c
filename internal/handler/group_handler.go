package handler

import (
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/middleware"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type GroupHandler struct {
	service service.GroupService
}

func NewGroupHandler(service service.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// AddMember godoc
// @Summary Enroll a student into a group
// @Description Only the group's teacher may enroll. The student gets course access until the group ends.
// @Tags groups
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param group_id path string true "Group ID"
// @Param request body dto.AddGroupMemberRequest true "Student"
// @Success 201 {object} dto.GroupMemberResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /groups/{group_id}/members [post]
func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	var req dto.AddGroupMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	resp, err := h.service.AddMember(c.Context(), middleware.UserID(c), c.Params("group_id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}
