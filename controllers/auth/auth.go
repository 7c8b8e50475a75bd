package authController

import (
	"cyberdravida/middleware"
	"cyberdravida/models"
	"cyberdravida/services"
	authValidator "cyberdravida/validators/auth"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	auth      *services.AuthService
	jwtKey    string
	jwtExpiry time.Duration
}

func New(auth *services.AuthService, jwtKey string, jwtExpiry time.Duration) *Handler {
	return &Handler{auth: auth, jwtKey: jwtKey, jwtExpiry: jwtExpiry}
}

func (h *Handler) session(c *fiber.Ctx, status int, message string, user *models.User) error {
	token, err := middleware.GenerateJWT(h.jwtKey, h.jwtExpiry, user)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}
	return middleware.JsonResponse(c, status, true, message, fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	reqData := c.Locals("validatedSignup").(*authValidator.SignupRequest)

	user, err := h.auth.Signup(c.UserContext(), services.SignupInput{
		Email:    reqData.Email,
		Password: reqData.Password,
		Name:     reqData.Name,
		Phone:    reqData.Phone,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return h.session(c, fiber.StatusCreated, "User registered successfully!", user)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidator.LoginRequest)

	user, err := h.auth.Login(c.UserContext(), reqData.Email, reqData.Password)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return h.session(c, fiber.StatusOK, "Login successful!", user)
}

// Me returns the caller's profile
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.auth.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", user)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProfile").(*authValidator.UpdateProfileRequest)

	user, err := h.auth.UpdateProfile(c.UserContext(), middleware.UserID(c), services.ProfileUpdate{
		Name:   reqData.Name,
		Phone:  reqData.Phone,
		Avatar: reqData.Avatar,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPassword").(*authValidator.ChangePasswordRequest)

	err := h.auth.ChangePassword(c.UserContext(), middleware.UserID(c), reqData.CurrentPassword, reqData.NewPassword)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password updated successfully!", nil)
}
