package cartController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	cartValidator "cyberdravida/validators/cart"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	cart *services.CartService
}

func New(cart *services.CartService) *Handler {
	return &Handler{cart: cart}
}

func (h *Handler) GetCart(c *fiber.Ctx) error {
	cart, err := h.cart.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cart fetched successfully!", cart)
}

func (h *Handler) AddToCart(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCartItem").(*cartValidator.AddItemRequest)

	course, err := h.cart.Add(c.UserContext(), middleware.UserID(c), reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course added to cart!", course)
}

func (h *Handler) RemoveFromCart(c *fiber.Ctx) error {
	if err := h.cart.Remove(c.UserContext(), middleware.UserID(c), c.Locals("courseId").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course removed from cart!", nil)
}

func (h *Handler) ClearCart(c *fiber.Ctx) error {
	if err := h.cart.Clear(c.UserContext(), middleware.UserID(c)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cart cleared!", nil)
}

func (h *Handler) GetWishlist(c *fiber.Ctx) error {
	items, err := h.cart.Wishlist(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wishlist fetched successfully!", items)
}

func (h *Handler) AddToWishlist(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCartItem").(*cartValidator.AddItemRequest)

	course, err := h.cart.AddToWishlist(c.UserContext(), middleware.UserID(c), reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course added to wishlist!", course)
}

func (h *Handler) RemoveFromWishlist(c *fiber.Ctx) error {
	if err := h.cart.RemoveFromWishlist(c.UserContext(), middleware.UserID(c), c.Locals("courseId").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course removed from wishlist!", nil)
}
