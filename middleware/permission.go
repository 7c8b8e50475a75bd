package middleware

import (
	"cyberdravida/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that loads the caller and checks their role.
// The stored role is authoritative; the token claim may be stale.
func RequireRole(db *gorm.DB, roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == 0 {
			return errorJSON(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: User ID not found", nil)
		}

		var user models.User
		err := db.WithContext(c.UserContext()).Where("id = ?", userID).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errorJSON(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "User no longer exists", nil)
			}
			// Other DB error
			return err
		}

		if !allowed[user.Role] {
			return errorJSON(c, fiber.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource!", nil)
		}

		c.Locals("user", &user)
		c.Locals("role", user.Role)
		return c.Next()
	}
}

// CurrentUser returns the user loaded by RequireRole
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
