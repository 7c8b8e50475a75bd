package adminController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	courseValidator "cyberdravida/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	reqData := c.Locals("validatedAdminList").(*courseValidator.AdminListQuery)

	courses, pagination, err := h.catalog.AdminList(c.UserContext(), reqData.Search, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": pagination,
	})
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	course, err := h.catalog.AdminGet(c.UserContext(), c.Locals("id").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}

// CreateCourse adds an unpublished course. The caller becomes the
// instructor unless one is named.
func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)

	instructorID := reqData.InstructorID
	if instructorID == nil {
		id := adminID(c)
		instructorID = &id
	}
	course, err := h.catalog.Create(c.UserContext(), services.CourseInput{
		Title:            reqData.Title,
		Description:      reqData.Description,
		ShortDescription: reqData.ShortDescription,
		Price:            reqData.Price,
		OriginalPrice:    reqData.OriginalPrice,
		Level:            reqData.Level,
		Duration:         reqData.Duration,
		Category:         reqData.Category,
		Thumbnail:        reqData.Thumbnail,
		InstructorID:     instructorID,
		IsFeatured:       reqData.IsFeatured,
		Requirements:     reqData.Requirements,
		Outcomes:         reqData.Outcomes,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourseUpdate").(*courseValidator.UpdateCourseRequest)

	course, err := h.catalog.Update(c.UserContext(), c.Locals("id").(uint), services.CourseUpdate{
		Title:            reqData.Title,
		Description:      reqData.Description,
		ShortDescription: reqData.ShortDescription,
		Price:            reqData.Price,
		OriginalPrice:    reqData.OriginalPrice,
		Level:            reqData.Level,
		Duration:         reqData.Duration,
		Category:         reqData.Category,
		Thumbnail:        reqData.Thumbnail,
		IsFeatured:       reqData.IsFeatured,
		IsPublished:      reqData.IsPublished,
		Requirements:     reqData.Requirements,
		Outcomes:         reqData.Outcomes,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

func (h *Handler) PublishCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPublish").(*courseValidator.PublishRequest)

	course, err := h.catalog.SetPublished(c.UserContext(), c.Locals("id").(uint), *reqData.IsPublished)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course publish state updated!", course)
}

func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.UserContext(), c.Locals("id").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

func (h *Handler) AddModule(c *fiber.Ctx) error {
	reqData := c.Locals("validatedModule").(*courseValidator.ModuleRequest)

	module, err := h.catalog.AddModule(c.UserContext(), c.Locals("id").(uint), services.ModuleInput{
		Title:       reqData.Title,
		Description: reqData.Description,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

func (h *Handler) UpdateModule(c *fiber.Ctx) error {
	reqData := c.Locals("validatedModule").(*courseValidator.ModuleRequest)

	module, err := h.catalog.UpdateModule(c.UserContext(), c.Locals("moduleId").(uint), services.ModuleInput{
		Title:       reqData.Title,
		Description: reqData.Description,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

func (h *Handler) DeleteModule(c *fiber.Ctx) error {
	if err := h.catalog.DeleteModule(c.UserContext(), c.Locals("moduleId").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}

func (h *Handler) AddLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLesson").(*courseValidator.CreateLessonRequest)

	lesson, err := h.catalog.AddLesson(c.UserContext(), c.Locals("moduleId").(uint), services.LessonInput{
		Title:     reqData.Title,
		Content:   reqData.Content,
		VideoURL:  reqData.VideoURL,
		Duration:  reqData.Duration,
		IsPreview: reqData.IsPreview,
		Resources: reqData.Resources,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

func (h *Handler) UpdateLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLessonUpdate").(*courseValidator.UpdateLessonRequest)

	lesson, err := h.catalog.UpdateLesson(c.UserContext(), c.Locals("lessonId").(uint), services.LessonUpdate{
		Title:     reqData.Title,
		Content:   reqData.Content,
		VideoURL:  reqData.VideoURL,
		Duration:  reqData.Duration,
		IsPreview: reqData.IsPreview,
		OrderNum:  reqData.OrderNum,
		Resources: reqData.Resources,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

func (h *Handler) DeleteLesson(c *fiber.Ctx) error {
	if err := h.catalog.DeleteLesson(c.UserContext(), c.Locals("lessonId").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}
