package courseValidator

import (
	"cyberdravida/validators"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateCourseRequest struct {
	Title            string          `json:"title" validate:"required,min=3,max=200"`
	Description      string          `json:"description" validate:"max=20000"`
	ShortDescription string          `json:"short_description" validate:"max=500"`
	Price            decimal.Decimal `json:"price"`
	OriginalPrice    decimal.Decimal `json:"original_price"`
	Level            string          `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration         int             `json:"duration" validate:"min=0"`
	Category         string          `json:"category" validate:"max=100"`
	Thumbnail        string          `json:"thumbnail" validate:"omitempty,url"`
	InstructorID     *uint           `json:"instructor_id" validate:"omitempty,gt=0"`
	IsFeatured       bool            `json:"is_featured"`
	Requirements     []string        `json:"requirements" validate:"max=50,dive,max=500"`
	Outcomes         []string        `json:"outcomes" validate:"max=50,dive,max=500"`
}

type UpdateCourseRequest struct {
	Title            *string          `json:"title" validate:"omitempty,min=3,max=200"`
	Description      *string          `json:"description" validate:"omitempty,max=20000"`
	ShortDescription *string          `json:"short_description" validate:"omitempty,max=500"`
	Price            *decimal.Decimal `json:"price"`
	OriginalPrice    *decimal.Decimal `json:"original_price"`
	Level            *string          `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration         *int             `json:"duration" validate:"omitempty,min=0"`
	Category         *string          `json:"category" validate:"omitempty,max=100"`
	Thumbnail        *string          `json:"thumbnail" validate:"omitempty,url"`
	IsFeatured       *bool            `json:"is_featured"`
	IsPublished      *bool            `json:"is_published"`
	Requirements     []string         `json:"requirements" validate:"omitempty,max=50,dive,max=500"`
	Outcomes         []string         `json:"outcomes" validate:"omitempty,max=50,dive,max=500"`
}

type PublishRequest struct {
	IsPublished *bool `json:"is_published" validate:"required"`
}

type ModuleRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type CreateLessonRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Content   string   `json:"content"`
	VideoURL  string   `json:"video_url" validate:"omitempty,url"`
	Duration  int      `json:"duration" validate:"min=0"`
	IsPreview bool     `json:"is_preview"`
	Resources []string `json:"resources" validate:"max=50"`
}

type UpdateLessonRequest struct {
	Title     *string  `json:"title" validate:"omitempty,max=200"`
	Content   *string  `json:"content"`
	VideoURL  *string  `json:"video_url" validate:"omitempty,url"`
	Duration  *int     `json:"duration" validate:"omitempty,min=0"`
	IsPreview *bool    `json:"is_preview"`
	OrderNum  *int     `json:"order_num" validate:"omitempty,min=1"`
	Resources []string `json:"resources" validate:"omitempty,max=50"`
}

type AdminListQuery struct {
	Search string `query:"search" validate:"max=200"`
	Page   int    `query:"page" validate:"min=0"`
	Limit  int    `query:"limit" validate:"min=0,max=100"`
}

func CreateCourse() fiber.Handler {
	return validators.Body[CreateCourseRequest]("validatedCourse")
}

func UpdateCourse() fiber.Handler {
	return validators.Body[UpdateCourseRequest]("validatedCourseUpdate")
}

func Publish() fiber.Handler {
	return validators.Body[PublishRequest]("validatedPublish")
}

func Module() fiber.Handler {
	return validators.Body[ModuleRequest]("validatedModule")
}

func CreateLesson() fiber.Handler {
	return validators.Body[CreateLessonRequest]("validatedLesson")
}

func UpdateLesson() fiber.Handler {
	return validators.Body[UpdateLessonRequest]("validatedLessonUpdate")
}

// AdminList validates search and paging for admin listings
func AdminList() fiber.Handler {
	return validators.Query[AdminListQuery]("validatedAdminList")
}

func ModuleID() fiber.Handler {
	return validators.ParamIDs("moduleId")
}

func LessonID() fiber.Handler {
	return validators.ParamIDs("lessonId")
}
