package middleware

import (
	"cyberdravida/models"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(secret string, expiry time.Duration, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.ID,
		"name":   user.Name,
		"role":   user.Role,
		"email":  user.Email,
		"iat":    time.Now().Unix(),             // issued at
		"exp":    time.Now().Add(expiry).Unix(), // expiry
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, authHeader string) (uint, string, error) {
	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, "", fmt.Errorf("Invalid Authorization header format")
	}
	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Check if the token method is valid
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return 0, "", fmt.Errorf("Invalid token payload")
	}
	userID, ok := claims["userId"].(float64) // JWT numbers decode as float64
	if !ok || userID <= 0 {
		return 0, "", fmt.Errorf("Invalid token payload")
	}
	role, _ := claims["role"].(string)
	return uint(userID), role, nil
}

// JWTMiddleware rejects requests without a valid bearer token
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return errorJSON(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header", nil)
		}

		userID, role, err := parseToken(secret, authHeader)
		if err != nil {
			return errorJSON(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
		}

		c.Locals("userId", userID)
		c.Locals("role", role)
		return c.Next()
	}
}

// OptionalJWT identifies the caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authHeader := c.Get("Authorization"); authHeader != "" {
			if userID, role, err := parseToken(secret, authHeader); err == nil {
				c.Locals("userId", userID)
				c.Locals("role", role)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, or 0
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userId").(uint)
	return id
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":  false,
		"message": "Validation failed!",
		"error":   "Validation failed!",
		"code":    "VALIDATION",
		"errors":  errors,
		"data":    nil,
	})
}
