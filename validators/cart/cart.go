package cartValidator

import (
	"cyberdravida/validators"

	"github.com/gofiber/fiber/v2"
)

type AddItemRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// AddItem is shared by the cart and the wishlist
func AddItem() fiber.Handler {
	return validators.Body[AddItemRequest]("validatedCartItem")
}

func CourseParam() fiber.Handler {
	return validators.ParamIDs("courseId")
}
