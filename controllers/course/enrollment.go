package courseController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	courseValidator "cyberdravida/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetEnrollments(c *fiber.Ctx) error {
	enrollments, err := h.enrollments.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

// EnrollInCourse enrolls the caller in a free course. Paid courses answer 402.
func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedEnroll").(*courseValidator.EnrollRequest)

	enrollment, err := h.enrollments.EnrollFree(c.UserContext(), middleware.UserID(c), reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

func (h *Handler) GetEnrollment(c *fiber.Ctx) error {
	ref := c.Locals("courseRef").(string)

	detail, err := h.enrollments.Get(c.UserContext(), middleware.UserID(c), ref)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", detail)
}

func (h *Handler) UpdateLessonProgress(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	reqData := c.Locals("validatedLessonProgress").(*courseValidator.LessonProgressRequest)

	result, err := h.enrollments.RecordLessonProgress(c.UserContext(), middleware.UserID(c), courseID, services.LessonProgressInput{
		LessonID:     reqData.LessonID,
		Completed:    reqData.Completed,
		TimeSpent:    reqData.TimeSpent,
		LastPosition: reqData.LastPosition,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", result)
}

// SetEnrollmentProgress overwrites the progress percentage of an enrollment by id
func (h *Handler) SetEnrollmentProgress(c *fiber.Ctx) error {
	enrollmentID := c.Locals("id").(uint)
	reqData := c.Locals("validatedProgress").(*courseValidator.SetProgressRequest)

	result, err := h.enrollments.SetProgress(c.UserContext(), middleware.UserID(c), enrollmentID, *reqData.Progress)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", result)
}

func (h *Handler) GetLesson(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	lessonID := c.Locals("lessonId").(uint)

	lesson, err := h.enrollments.Lesson(c.UserContext(), middleware.UserID(c), courseID, lessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", lesson)
}
