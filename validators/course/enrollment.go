package courseValidator

import (
	"cyberdravida/middleware"
	"cyberdravida/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

type LessonProgressRequest struct {
	LessonID     uint `json:"lesson_id" validate:"required,gt=0"`
	Completed    bool `json:"completed"`
	TimeSpent    int  `json:"time_spent" validate:"min=0"`
	LastPosition int  `json:"last_position" validate:"min=0"`
}

type SetProgressRequest struct {
	Progress *float64 `json:"progress" validate:"required,min=0,max=100"`
}

func EnrollFree() fiber.Handler {
	return validators.Body[EnrollRequest]("validatedEnroll")
}

func LessonProgress() fiber.Handler {
	return validators.Body[LessonProgressRequest]("validatedLessonProgress")
}

func SetProgress() fiber.Handler {
	return validators.Body[SetProgressRequest]("validatedProgress")
}

// CourseRef requires a course id or slug in the route
func CourseRef() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref := strings.TrimSpace(c.Params("courseId"))
		if ref == "" || len(ref) > 200 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
		}
		c.Locals("courseRef", ref)
		return c.Next()
	}
}

func LessonParams() fiber.Handler {
	return validators.ParamIDs("courseId", "lessonId")
}

func EnrollmentID() fiber.Handler {
	return validators.ParamIDs("id")
}

func CourseIDParam() fiber.Handler {
	return validators.ParamIDs("courseId")
}
