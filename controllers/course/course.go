package courseController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	courseValidator "cyberdravida/validators/course"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handler struct {
	catalog      *services.CatalogService
	enrollments  *services.EnrollmentService
	certificates *services.CertificateService
}

func New(svc *services.Services) *Handler {
	return &Handler{
		catalog:      svc.Catalog,
		enrollments:  svc.Enrollments,
		certificates: svc.Certificates,
	}
}

func optionalDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

// ListCourses returns published courses matching the filters
func (h *Handler) ListCourses(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourseList").(*courseValidator.CourseListQuery)

	courses, pagination, err := h.catalog.List(c.UserContext(), services.CourseFilter{
		Category: reqData.Category,
		Level:    reqData.Level,
		Search:   strings.TrimSpace(reqData.Search),
		Featured: reqData.Featured,
		MinPrice: optionalDecimal(reqData.MinPrice),
		MaxPrice: optionalDecimal(reqData.MaxPrice),
		Sort:     reqData.Sort,
		Page:     reqData.Page,
		Limit:    reqData.Limit,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": pagination,
	})
}

func (h *Handler) Categories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Categories fetched successfully!", categories)
}

func (h *Handler) Featured(c *fiber.Ctx) error {
	courses, err := h.catalog.Featured(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Featured courses fetched successfully!", courses)
}

// CourseDetail accepts an id or a slug. Anonymous callers see the same page
// without enrollment state.
func (h *Handler) CourseDetail(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Params("id"))
	if ref == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
	}

	detail, err := h.catalog.Detail(c.UserContext(), ref, middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", detail)
}

func (h *Handler) AddReview(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)
	reqData := c.Locals("validatedReview").(*courseValidator.ReviewRequest)

	review, err := h.catalog.AddReview(c.UserContext(), middleware.UserID(c), courseID, reqData.Rating, strings.TrimSpace(reqData.Comment))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review added successfully!", review)
}
