package courseValidator

import (
	"cyberdravida/validators"

	"github.com/gofiber/fiber/v2"
)

type CourseListQuery struct {
	Category string   `query:"category" validate:"max=100"`
	Level    string   `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Search   string   `query:"search" validate:"max=200"`
	Featured *bool    `query:"featured"`
	MinPrice *float64 `query:"min_price" validate:"omitempty,min=0"`
	MaxPrice *float64 `query:"max_price" validate:"omitempty,min=0"`
	Sort     string   `query:"sort" validate:"omitempty,oneof=newest oldest price-low price-high popular rating"`
	Page     int      `query:"page" validate:"min=0"`
	Limit    int      `query:"limit" validate:"min=0,max=100"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func CourseList() fiber.Handler {
	return validators.Query[CourseListQuery]("validatedCourseList")
}

func AddReview() fiber.Handler {
	return validators.Body[ReviewRequest]("validatedReview")
}

// CourseID accepts the numeric course id route parameter
func CourseID() fiber.Handler {
	return validators.ParamIDs("id")
}
