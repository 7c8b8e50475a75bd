package paymentRoutes

import (
	paymentController "cyberdravida/controllers/payment"
	"cyberdravida/middleware"
	"cyberdravida/models"
	paymentValidator "cyberdravida/validators/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupPaymentRoutes(api fiber.Router, h *paymentController.Handler, db *gorm.DB, jwtKey string) {
	paymentGroup := api.Group("/payments")

	// Authenticated by the gateway signature, not a bearer token
	paymentGroup.Post("/webhook", h.Webhook)

	auth := middleware.JWTMiddleware(jwtKey)
	anyUser := middleware.RequireRole(db, models.RoleStudent, models.RoleInstructor, models.RoleAdmin)

	paymentGroup.Post("/submit-utr", auth, anyUser, paymentValidator.SubmitUTR(), h.SubmitUTR)
	paymentGroup.Post("/validate-coupon", auth, anyUser, paymentValidator.ValidateCoupon(), h.ValidateCoupon)
	paymentGroup.Post("/create-checkout", auth, anyUser, paymentValidator.CreateCheckout(), h.CreateCheckout)
	paymentGroup.Post("/mock-complete", auth, anyUser, paymentValidator.MockComplete(), h.MockComplete)
	paymentGroup.Get("/history", auth, h.History)
	paymentGroup.Get("/:id", auth, paymentValidator.PaymentID(), h.GetPayment)
}
