package authRoutes

import (
	authController "cyberdravida/controllers/auth"
	"cyberdravida/middleware"
	authValidator "cyberdravida/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(api fiber.Router, h *authController.Handler, jwtKey string) {
	authGroup := api.Group("/auth")

	authGroup.Post("/signup", authValidator.Signup(), h.Signup)
	authGroup.Post("/login", authValidator.Login(), h.Login)
	auth := middleware.JWTMiddleware(jwtKey)
	authGroup.Get("/me", auth, h.Me)
	authGroup.Put("/me", auth, authValidator.UpdateProfile(), h.UpdateProfile)
	authGroup.Put("/profile", auth, authValidator.UpdateProfile(), h.UpdateProfile)
	authGroup.Put("/password", auth, authValidator.ChangePassword(), h.ChangePassword)
}
