package courseRoutes

import (
	courseController "cyberdravida/controllers/course"
	"cyberdravida/middleware"
	courseValidator "cyberdravida/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up catalog, enrollment and certificate routes
func SetupCourseRoutes(api fiber.Router, h *courseController.Handler, jwtKey string) {
	auth := middleware.JWTMiddleware(jwtKey)

	// Catalog is public; a token only adds enrollment state
	courseGroup := api.Group("/courses", middleware.OptionalJWT(jwtKey))
	courseGroup.Get("/", courseValidator.CourseList(), h.ListCourses)
	courseGroup.Get("/categories", h.Categories)
	courseGroup.Get("/featured", h.Featured)
	courseGroup.Get("/:id", h.CourseDetail)
	courseGroup.Post("/:id/reviews", auth, courseValidator.CourseID(), courseValidator.AddReview(), h.AddReview)

	enrollGroup := api.Group("/enrollments", auth)
	enrollGroup.Get("/", h.GetEnrollments)
	enrollGroup.Post("/", courseValidator.EnrollFree(), h.EnrollInCourse)
	enrollGroup.Put("/by-id/:id/progress", courseValidator.EnrollmentID(), courseValidator.SetProgress(), h.SetEnrollmentProgress)
	enrollGroup.Get("/:courseId", courseValidator.CourseRef(), h.GetEnrollment)
	enrollGroup.Put("/:courseId/progress", courseValidator.CourseIDParam(), courseValidator.LessonProgress(), h.UpdateLessonProgress)
	enrollGroup.Get("/:courseId/lesson/:lessonId", courseValidator.LessonParams(), h.GetLesson)

	certGroup := api.Group("/certificates")
	certGroup.Get("/verify/:number", h.VerifyCertificate)
	certGroup.Get("/", auth, h.GetUserCertificates)
	certGroup.Get("/:id", auth, h.GetCertificate)
}
