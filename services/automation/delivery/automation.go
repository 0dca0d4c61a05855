package delivery

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"schoolops/domain"
	"schoolops/middleware"
	"schoolops/services/automation/scheduler"
)

type automationHandler struct {
	ruc   domain.ReminderUseCase
	sched *scheduler.AutomationScheduler
}

func NewAutomationDelivery(app *fiber.App, ruc domain.ReminderUseCase, sched *scheduler.AutomationScheduler) {
	handler := &automationHandler{
		ruc:   ruc,
		sched: sched,
	}

	route := app.Group("/automation", middleware.AuthRequired)

	route.Get("/jobs", handler.deliveryJobStatus)
	route.Post("/jobs/:id/trigger", middleware.RoleMiddleware("admin"), handler.deliveryTriggerJob)
	route.Get("/reminders", handler.deliveryListReminders)
	route.Get("/reminders/stats", handler.deliveryReminderStats)
	route.Post("/reminders/payment-received/:fee_id", handler.deliveryMarkPaymentReceived)
}

func (h *automationHandler) deliveryJobStatus(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Job status retrieved successfully",
		"data":    h.sched.Status(),
	})
}

func (h *automationHandler) deliveryTriggerJob(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.sched.Trigger(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to trigger job",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Job triggered successfully",
		"data":    result,
	})
}

func (h *automationHandler) deliveryListReminders(c *fiber.Ctx) error {
	filter := domain.ReminderFilter{
		Days:   c.QueryInt("days", 30),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid student_id",
				"message": "Failed to list reminders",
			})
		}
		filter.StudentID = &id
	}
	if kind := c.Query("reminder_type"); kind != "" {
		filter.ReminderType = &kind
	}

	reminders, err := h.ruc.List(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to list reminders",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Reminders retrieved successfully",
		"data":    reminders,
	})
}

func (h *automationHandler) deliveryReminderStats(c *fiber.Ctx) error {
	stats, err := h.ruc.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to compute reminder stats",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Reminder stats retrieved successfully",
		"data":    stats,
	})
}

func (h *automationHandler) deliveryMarkPaymentReceived(c *fiber.Ctx) error {
	feeID, err := c.ParamsInt("fee_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid fee id",
			"message": "Failed to mark payment received",
		})
	}

	if err := h.ruc.MarkPaymentReceived(c.Context(), feeID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to mark payment received",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Payment follow-up recorded successfully",
	})
}
