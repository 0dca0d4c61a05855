package delivery

import (
	"github.com/asaskevich/govalidator"
	"github.com/gofiber/fiber/v2"

	"schoolops/domain"
	"schoolops/middleware"
)

type batchHandler struct {
	buc domain.BatchUseCase
}

type assignSectionsRequest struct {
	ClassID        int    `json:"class_id" valid:"required~Class ID is required"`
	AcademicYearID int    `json:"academic_year_id" valid:"required~Academic year ID is required"`
	Strategy       string `json:"strategy" valid:"in(alphabetical|merit),optional"`
}

func NewBatchDelivery(app *fiber.App, buc domain.BatchUseCase) {
	handler := &batchHandler{
		buc: buc,
	}

	route := app.Group("/batch", middleware.AuthRequired)

	route.Post("/assign-sections", middleware.RoleMiddleware("admin"), handler.deliveryAssignSections)
	route.Post("/reorganize/:year_id", middleware.RoleMiddleware("admin"), handler.deliveryReorganizeAll)
	route.Get("/distribution/:class_id/:year_id", handler.deliveryDistribution)
	route.Get("/settings", handler.deliverySettings)
}

func (h *batchHandler) deliveryAssignSections(c *fiber.Ctx) error {
	var req assignSectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Invalid request body",
		})
	}

	if _, err := govalidator.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Invalid request body",
		})
	}

	assignedBy := callerID(c)
	result, err := h.buc.AssignSections(c.Context(), req.ClassID, req.AcademicYearID, req.Strategy, assignedBy)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to assign sections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Sections assigned successfully",
		"data":    result,
	})
}

func (h *batchHandler) deliveryReorganizeAll(c *fiber.Ctx) error {
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid academic year id",
			"message": "Failed to reorganize sections",
		})
	}

	result, err := h.buc.ReorganizeAll(c.Context(), yearID, callerID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to reorganize sections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Sections reorganized successfully",
		"data":    result,
	})
}

func (h *batchHandler) deliveryDistribution(c *fiber.Ctx) error {
	classID, err := c.ParamsInt("class_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid class id",
			"message": "Failed to get section distribution",
		})
	}
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid academic year id",
			"message": "Failed to get section distribution",
		})
	}

	dist, err := h.buc.Distribution(c.Context(), classID, yearID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to get section distribution",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Section distribution retrieved successfully",
		"data":    dist,
	})
}

func (h *batchHandler) deliverySettings(c *fiber.Ctx) error {
	settings, err := h.buc.Settings(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to load batch settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Batch settings retrieved successfully",
		"data":    settings,
	})
}

func callerID(c *fiber.Ctx) *int {
	if id, ok := c.Locals("user_id").(int); ok {
		return &id
	}
	return nil
}
