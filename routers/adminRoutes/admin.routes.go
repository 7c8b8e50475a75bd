package adminRoutes

import (
	adminController "cyberdravida/controllers/admin"
	"cyberdravida/middleware"
	"cyberdravida/models"
	"cyberdravida/validators"
	courseValidator "cyberdravida/validators/course"
	paymentValidator "cyberdravida/validators/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupAdminRoutes sets up the back office. Every route requires a stored
// admin role, not just an admin claim in the token.
func SetupAdminRoutes(api fiber.Router, h *adminController.Handler, db *gorm.DB, jwtKey string) {
	adminGroup := api.Group("/admin", middleware.JWTMiddleware(jwtKey), middleware.RequireRole(db, models.RoleAdmin))
	byID := validators.ParamIDs("id")

	adminGroup.Get("/dashboard", h.Dashboard)
	adminGroup.Get("/students", courseValidator.AdminList(), h.Students)
	adminGroup.Get("/students/:id", byID, h.Student)

	// Courses, modules and lessons
	adminGroup.Get("/courses", courseValidator.AdminList(), h.ListCourses)
	adminGroup.Post("/courses", courseValidator.CreateCourse(), h.CreateCourse)
	adminGroup.Get("/courses/:id", byID, h.GetCourse)
	adminGroup.Put("/courses/:id", byID, courseValidator.UpdateCourse(), h.UpdateCourse)
	adminGroup.Put("/courses/:id/publish", byID, courseValidator.Publish(), h.PublishCourse)
	adminGroup.Delete("/courses/:id", byID, h.DeleteCourse)
	adminGroup.Post("/courses/:id/modules", byID, courseValidator.Module(), h.AddModule)
	adminGroup.Put("/modules/:moduleId", courseValidator.ModuleID(), courseValidator.Module(), h.UpdateModule)
	adminGroup.Delete("/modules/:moduleId", courseValidator.ModuleID(), h.DeleteModule)
	adminGroup.Post("/modules/:moduleId/lessons", courseValidator.ModuleID(), courseValidator.CreateLesson(), h.AddLesson)
	adminGroup.Put("/lessons/:lessonId", courseValidator.LessonID(), courseValidator.UpdateLesson(), h.UpdateLesson)
	adminGroup.Delete("/lessons/:lessonId", courseValidator.LessonID(), h.DeleteLesson)

	// Payments
	adminGroup.Get("/payments", paymentValidator.ListPayments(), h.ListPayments)
	adminGroup.Get("/payments/pending", h.PendingPayments)
	adminGroup.Get("/payments/:id", byID, h.GetPayment)
	adminGroup.Post("/payments/:id/verify", byID, h.VerifyPayment)
	adminGroup.Post("/payments/:id/reject", byID, paymentValidator.Reject(), h.RejectPayment)

	// Coupons
	adminGroup.Get("/coupons", h.ListCoupons)
	adminGroup.Post("/coupons", paymentValidator.CreateCoupon(), h.CreateCoupon)
	adminGroup.Delete("/coupons/:id", byID, h.DeleteCoupon)
}
