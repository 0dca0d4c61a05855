package delivery

import (
	"github.com/gofiber/fiber/v2"

	"schoolops/domain"
	"schoolops/middleware"
)

type analyticsHandler struct {
	auc domain.AnalyticsUseCase
}

func NewAnalyticsDelivery(app *fiber.App, auc domain.AnalyticsUseCase) {
	handler := &analyticsHandler{
		auc: auc,
	}

	route := app.Group("/analytics", middleware.AuthRequired)

	route.Get("/at-risk/:year_id", handler.deliveryAtRiskStudents)
	route.Get("/forecast/:year_id", handler.deliveryForecast)
	route.Get("/trends/:year_id", handler.deliveryCollectionTrends)
	route.Get("/class-insights/:year_id", handler.deliveryClassInsights)
	route.Get("/dashboard/:year_id", handler.deliveryDashboard)
	route.Delete("/cache", middleware.RoleMiddleware("admin"), handler.deliveryClearCache)
}

func (h *analyticsHandler) deliveryAtRiskStudents(c *fiber.Ctx) error {
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return badYearID(c, "Failed to compute at-risk students")
	}

	students, err := h.auc.AtRiskStudents(c.Context(), yearID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to compute at-risk students",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "At-risk students retrieved successfully",
		"data":    students,
	})
}

func (h *analyticsHandler) deliveryForecast(c *fiber.Ctx) error {
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return badYearID(c, "Failed to compute revenue forecast")
	}

	forecast, err := h.auc.ForecastRevenue(c.Context(), yearID, c.QueryInt("months", 3))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to compute revenue forecast",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Revenue forecast retrieved successfully",
		"data":    forecast,
	})
}

func (h *analyticsHandler) deliveryCollectionTrends(c *fiber.Ctx) error {
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return badYearID(c, "Failed to compute collection trends")
	}

	trends, err := h.auc.CollectionTrends(c.Context(), yearID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to compute collection trends",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Collection trends retrieved successfully",
		"data":    trends,
	})
}

func (h *analyticsHandler) deliveryClassInsights(c *fiber.Ctx) error {
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return badYearID(c, "Failed to compute class insights")
	}

	insights, err := h.auc.ClassPerformanceInsights(c.Context(), yearID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to compute class insights",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Class insights retrieved successfully",
		"data":    insights,
	})
}

// deliveryDashboard serves the dashboard cache-first. The cached flag tells
// the caller whether this was a precomputed result.
func (h *analyticsHandler) deliveryDashboard(c *fiber.Ctx) error {
	yearID, err := c.ParamsInt("year_id")
	if err != nil {
		return badYearID(c, "Failed to build dashboard")
	}

	dashboard, cached, err := h.auc.CachedDashboard(c.Context(), yearID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to build dashboard",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Dashboard retrieved successfully",
		"cached":  cached,
		"data":    dashboard,
	})
}

func (h *analyticsHandler) deliveryClearCache(c *fiber.Ctx) error {
	removed, err := h.auc.ClearCache(c.Context(), c.Query("report_type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to clear analytics cache",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Analytics cache cleared successfully",
		"data":    fiber.Map{"removed": removed},
	})
}

func badYearID(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "invalid academic year id",
		"message": message,
	})
}
