package middleware

import (
	"cyberdravida/services"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:      fiber.StatusBadRequest,
	services.KindInvalidState:    fiber.StatusBadRequest,
	services.KindNotFound:        fiber.StatusNotFound,
	services.KindConflict:        fiber.StatusConflict,
	services.KindForbidden:       fiber.StatusForbidden,
	services.KindUnauthorized:    fiber.StatusUnauthorized,
	services.KindPaymentRequired: fiber.StatusPaymentRequired,
}

func errorJSON(c *fiber.Ctx, statusCode int, code, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  false,
		"message": message,
		"error":   message,
		"code":    code,
		"data":    data,
	})
}

// ErrorResponse writes business errors as the standard envelope. Anything
// else is handed back to fiber so ErrorHandler can log and mask it.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		status, ok := kindStatus[se.Kind]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return errorJSON(c, status, string(se.Kind), se.Message, se.Details)
	}
	return err
}

// ErrorHandler is the fiber-level fallback. Internal detail is only
// exposed outside production.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "INTERNAL"
			switch fe.Code {
			case fiber.StatusNotFound:
				code = "NOT_FOUND"
			case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
				code = "VALIDATION"
			case fiber.StatusUnauthorized:
				code = "UNAUTHORIZED"
			case fiber.StatusForbidden:
				code = "FORBIDDEN"
			}
			return errorJSON(c, fe.Code, code, fe.Message, nil)
		}

		var se *services.Error
		if errors.As(err, &se) {
			return ErrorResponse(c, se)
		}

		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
		message := "Internal server error"
		if !production {
			message = err.Error()
		}
		return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", message, nil)
	}
}
