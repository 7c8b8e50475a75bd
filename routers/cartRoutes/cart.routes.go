package cartRoutes

import (
	cartController "cyberdravida/controllers/cart"
	"cyberdravida/middleware"
	cartValidator "cyberdravida/validators/cart"

	"github.com/gofiber/fiber/v2"
)

func SetupCartRoutes(api fiber.Router, h *cartController.Handler, jwtKey string) {
	cartGroup := api.Group("/cart", middleware.JWTMiddleware(jwtKey))
	cartGroup.Get("/", h.GetCart)
	cartGroup.Post("/", cartValidator.AddItem(), h.AddToCart)
	cartGroup.Delete("/", h.ClearCart)
	cartGroup.Delete("/:courseId", cartValidator.CourseParam(), h.RemoveFromCart)

	wishlistGroup := api.Group("/wishlist", middleware.JWTMiddleware(jwtKey))
	wishlistGroup.Get("/", h.GetWishlist)
	wishlistGroup.Post("/", cartValidator.AddItem(), h.AddToWishlist)
	wishlistGroup.Delete("/:courseId", cartValidator.CourseParam(), h.RemoveFromWishlist)
}
