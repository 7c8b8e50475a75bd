package adminController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	courseValidator "cyberdravida/validators/course"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	catalog   *services.CatalogService
	payments  *services.PaymentService
	coupons   *services.CouponService
	dashboard *services.DashboardService
}

func New(svc *services.Services) *Handler {
	return &Handler{
		catalog:   svc.Catalog,
		payments:  svc.Payments,
		coupons:   svc.Coupons,
		dashboard: svc.Dashboard,
	}
}

func adminID(c *fiber.Ctx) uint {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return middleware.UserID(c)
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.dashboard.Dashboard(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", stats)
}

func (h *Handler) Students(c *fiber.Ctx) error {
	reqData := c.Locals("validatedAdminList").(*courseValidator.AdminListQuery)

	students, pagination, err := h.dashboard.Students(c.UserContext(), reqData.Search, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Students fetched successfully!", fiber.Map{
		"students":   students,
		"pagination": pagination,
	})
}

func (h *Handler) Student(c *fiber.Ctx) error {
	student, err := h.dashboard.Student(c.UserContext(), c.Locals("id").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Student fetched successfully!", student)
}
