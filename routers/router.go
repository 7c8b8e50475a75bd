package routers

import (
	adminController "cyberdravida/controllers/admin"
	authController "cyberdravida/controllers/auth"
	cartController "cyberdravida/controllers/cart"
	courseController "cyberdravida/controllers/course"
	paymentController "cyberdravida/controllers/payment"
	"cyberdravida/routers/adminRoutes"
	"cyberdravida/routers/authRoutes"
	"cyberdravida/routers/cartRoutes"
	"cyberdravida/routers/courseRoutes"
	"cyberdravida/routers/paymentRoutes"
	"cyberdravida/services"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Settings struct {
	JWTKey    string
	JWTExpiry time.Duration
	// Webhooks is nil when card payments are off
	Webhooks paymentController.WebhookParser
}

// Setup mounts every API route under /api
func Setup(app *fiber.App, db *gorm.DB, svc *services.Services, s Settings) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	authRoutes.SetupAuthRoutes(api, authController.New(svc.Auth, s.JWTKey, s.JWTExpiry), s.JWTKey)
	courseRoutes.SetupCourseRoutes(api, courseController.New(svc), s.JWTKey)
	cartRoutes.SetupCartRoutes(api, cartController.New(svc.Cart), s.JWTKey)
	paymentRoutes.SetupPaymentRoutes(api, paymentController.New(svc, s.Webhooks), db, s.JWTKey)
	adminRoutes.SetupAdminRoutes(api, adminController.New(svc), db, s.JWTKey)
}
