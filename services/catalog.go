package services

import (
	"context"
	"cyberdravida/database"
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CatalogService struct {
	base
}

func NewCatalogService(db *gorm.DB, opts Options) *CatalogService {
	return &CatalogService{base: newBase(db, opts)}
}

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortPopular   = "popular"
	SortRating    = "rating"
)

var sortOrders = map[string]string{
	SortNewest:    "courses.created_at DESC",
	SortOldest:    "courses.created_at ASC",
	SortPriceLow:  "courses.price ASC",
	SortPriceHigh: "courses.price DESC",
	SortPopular:   "courses.enrollment_count DESC",
	SortRating:    "courses.rating_avg DESC",
}

type CourseFilter struct {
	Category string
	Level    string
	Search   string
	Featured *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Page     int
	Limit    int
}

// CourseCard is a course as shown in listings
type CourseCard struct {
	courseModels.Course
	InstructorName string `json:"instructor_name"`
	ModuleCount    int64  `json:"module_count"`
	LessonCount    int64  `json:"lesson_count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// LessonOutline hides lesson content unless the lesson is a free preview
type LessonOutline struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	IsPreview bool   `json:"is_preview"`
	OrderNum  int    `json:"order_num"`
	Content   string `json:"content,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
}

type ModuleOutline struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OrderNum    int             `json:"order_num"`
	Lessons     []LessonOutline `json:"lessons"`
}

type ReviewView struct {
	courseModels.Review
	UserAvatar string `json:"user_avatar"`
}

type CourseDetail struct {
	CourseCard
	InstructorAvatar string                   `json:"instructor_avatar"`
	Outline          []ModuleOutline          `json:"modules" gorm:"-"`
	Reviews          []ReviewView             `json:"reviews" gorm:"-"`
	IsEnrolled       bool                     `json:"is_enrolled" gorm:"-"`
	Enrollment       *courseModels.Enrollment `json:"enrollment" gorm:"-"`
	RelatedCourses   []CourseCard             `json:"related_courses" gorm:"-"`
}

type CourseInput struct {
	Title            string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	OriginalPrice    decimal.Decimal
	Level            string
	Duration         int
	Category         string
	Thumbnail        string
	InstructorID     *uint
	IsFeatured       bool
	Requirements     []string
	Outcomes         []string
}

// CourseUpdate only changes the fields that are set
type CourseUpdate struct {
	Title            *string
	Description      *string
	ShortDescription *string
	Price            *decimal.Decimal
	OriginalPrice    *decimal.Decimal
	Level            *string
	Duration         *int
	Category         *string
	Thumbnail        *string
	IsFeatured       *bool
	IsPublished      *bool
	Requirements     []string
	Outcomes         []string
}

type ModuleInput struct {
	Title       string
	Description string
}

type LessonInput struct {
	Title     string
	Content   string
	VideoURL  string
	Duration  int
	IsPreview bool
	Resources []string
}

type LessonUpdate struct {
	Title     *string
	Content   *string
	VideoURL  *string
	Duration  *int
	IsPreview *bool
	OrderNum  *int
	Resources []string
}

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	raw, _ := json.Marshal(items)
	return datatypes.JSON(raw)
}

func (s *CatalogService) cards(db *gorm.DB) *gorm.DB {
	return db.Table("courses").
		Select(`courses.*, users.name AS instructor_name,
			(SELECT COUNT(*) FROM modules WHERE modules.course_id = courses.id) AS module_count,
			(SELECT COUNT(*) FROM lessons JOIN modules ON modules.id = lessons.module_id WHERE modules.course_id = courses.id) AS lesson_count`).
		Joins("LEFT JOIN users ON users.id = courses.instructor_id")
}

// List pages through published courses
func (s *CatalogService) List(ctx context.Context, f CourseFilter) ([]CourseCard, Pagination, error) {
	db := s.db.WithContext(ctx)
	page, limit, offset := utils.ParsePage(f.Page, f.Limit, 12, 100)

	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Where("courses.is_published = ?", true)
		if f.Category != "" {
			q = q.Where("courses.category = ?", f.Category)
		}
		if f.Level != "" {
			q = q.Where("courses.level = ?", f.Level)
		}
		if search := strings.TrimSpace(f.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ?", like, like)
		}
		if f.Featured != nil {
			q = q.Where("courses.is_featured = ?", *f.Featured)
		}
		if f.MinPrice != nil {
			q = q.Where("courses.price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("courses.price <= ?", *f.MaxPrice)
		}
		return q
	}

	var total int64
	if err := filter(db.Table("courses")).Count(&total).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "count courses")
	}

	order, ok := sortOrders[f.Sort]
	if !ok {
		order = sortOrders[SortNewest]
	}
	var out []CourseCard
	if err := filter(s.cards(db)).Order(order).Order("courses.id").Offset(offset).Limit(limit).Scan(&out).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "list courses")
	}
	return out, newPagination(page, limit, total), nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]CategoryCount, error) {
	var out []CategoryCount
	if err := s.db.WithContext(ctx).Model(&courseModels.Course{}).
		Select("category, COUNT(*) AS count").
		Where("is_published = ? AND category <> ''", true).
		Group("category").
		Order("count DESC").
		Scan(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out, nil
}

// Featured returns the four newest featured courses
func (s *CatalogService) Featured(ctx context.Context) ([]CourseCard, error) {
	var out []CourseCard
	if err := s.cards(s.db.WithContext(ctx)).
		Where("courses.is_published = ? AND courses.is_featured = ?", true, true).
		Order("courses.created_at DESC").
		Limit(4).
		Scan(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list featured courses")
	}
	return out, nil
}

func byIDOrSlug(q *gorm.DB, idOrSlug string) *gorm.DB {
	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		return q.Where("courses.id = ?", id)
	}
	return q.Where("courses.slug = ?", idOrSlug)
}

// Detail returns a published course page. viewerID is 0 for anonymous callers.
func (s *CatalogService) Detail(ctx context.Context, idOrSlug string, viewerID uint) (*CourseDetail, error) {
	db := s.db.WithContext(ctx)

	var found []CourseDetail
	q := s.cards(db).Select(`courses.*, users.name AS instructor_name, users.avatar AS instructor_avatar,
		(SELECT COUNT(*) FROM modules WHERE modules.course_id = courses.id) AS module_count,
		(SELECT COUNT(*) FROM lessons JOIN modules ON modules.id = lessons.module_id WHERE modules.course_id = courses.id) AS lesson_count`)
	if err := byIDOrSlug(q, idOrSlug).Where("courses.is_published = ?", true).Limit(1).Scan(&found).Error; err != nil {
		return nil, errors.Wrap(err, "load course")
	}
	if len(found) == 0 {
		return nil, ErrCourseNotFound
	}
	detail := found[0]

	outline, err := s.outline(db, detail.ID)
	if err != nil {
		return nil, err
	}
	detail.Outline = outline

	if err := db.Table("reviews").
		Select("reviews.*, users.name AS user_name, users.avatar AS user_avatar").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.course_id = ?", detail.ID).
		Order("reviews.created_at DESC").
		Limit(5).
		Scan(&detail.Reviews).Error; err != nil {
		return nil, errors.Wrap(err, "load reviews")
	}

	if viewerID != 0 {
		var enrollment courseModels.Enrollment
		err := db.Where("user_id = ? AND course_id = ?", viewerID, detail.ID).First(&enrollment).Error
		switch {
		case err == nil:
			detail.IsEnrolled = true
			detail.Enrollment = &enrollment
		case !database.IsNotFound(err):
			return nil, errors.Wrap(err, "load enrollment")
		}
	}

	if err := s.cards(db).
		Where("courses.category = ? AND courses.id <> ? AND courses.is_published = ?", detail.Category, detail.ID, true).
		Order("courses.rating_avg DESC").
		Limit(4).
		Scan(&detail.RelatedCourses).Error; err != nil {
		return nil, errors.Wrap(err, "load related courses")
	}
	return &detail, nil
}

func (s *CatalogService) outline(db *gorm.DB, courseID uint) ([]ModuleOutline, error) {
	var modules []courseModels.Module
	if err := db.Where("course_id = ?", courseID).
		Order("order_num").
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_num") }).
		Find(&modules).Error; err != nil {
		return nil, errors.Wrap(err, "load modules")
	}

	out := make([]ModuleOutline, 0, len(modules))
	for _, m := range modules {
		mo := ModuleOutline{ID: m.ID, Title: m.Title, Description: m.Description, OrderNum: m.OrderNum}
		mo.Lessons = make([]LessonOutline, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			lo := LessonOutline{ID: l.ID, Title: l.Title, Duration: l.Duration, IsPreview: l.IsPreview, OrderNum: l.OrderNum}
			if l.IsPreview {
				lo.Content = l.Content
				lo.VideoURL = l.VideoURL
			}
			mo.Lessons = append(mo.Lessons, lo)
		}
		out = append(out, mo)
	}
	return out, nil
}

func (s *CatalogService) uniqueSlug(tx *gorm.DB, title string) (string, error) {
	root := utils.Slugify(title)
	if root == "" {
		root = "course"
	}
	slug := root
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&courseModels.Course{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", root, i)
	}
}

// Create adds an unpublished course
func (s *CatalogService) Create(ctx context.Context, in CourseInput) (*courseModels.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newError(KindValidation, "Title is required")
	}
	if in.Price.IsNegative() || in.OriginalPrice.IsNegative() {
		return nil, newError(KindValidation, "Price cannot be negative")
	}
	level := in.Level
	if level == "" {
		level = courseModels.LevelBeginner
	}
	if !courseModels.IsValidLevel(level) {
		return nil, newError(KindValidation, "Unknown level %q", level)
	}

	var course courseModels.Course
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		slug, err := s.uniqueSlug(tx, in.Title)
		if err != nil {
			return errors.Wrap(err, "allocate slug")
		}
		course = courseModels.Course{
			Title:            strings.TrimSpace(in.Title),
			Slug:             slug,
			Description:      in.Description,
			ShortDescription: in.ShortDescription,
			Price:            in.Price,
			OriginalPrice:    in.OriginalPrice,
			Level:            level,
			Duration:         in.Duration,
			Category:         in.Category,
			Thumbnail:        in.Thumbnail,
			InstructorID:     in.InstructorID,
			IsFeatured:       in.IsFeatured,
			Requirements:     jsonList(in.Requirements),
			Outcomes:         jsonList(in.Outcomes),
		}
		return errors.Wrap(tx.Create(&course).Error, "create course")
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *CatalogService) Update(ctx context.Context, courseID uint, in CourseUpdate) (*courseModels.Course, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, newError(KindValidation, "Title cannot be empty")
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ShortDescription != nil {
		updates["short_description"] = *in.ShortDescription
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, newError(KindValidation, "Price cannot be negative")
		}
		updates["price"] = *in.Price
	}
	if in.OriginalPrice != nil {
		updates["original_price"] = *in.OriginalPrice
	}
	if in.Level != nil {
		if !courseModels.IsValidLevel(*in.Level) {
			return nil, newError(KindValidation, "Unknown level %q", *in.Level)
		}
		updates["level"] = *in.Level
	}
	if in.Duration != nil {
		updates["duration"] = *in.Duration
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Thumbnail != nil {
		updates["thumbnail"] = *in.Thumbnail
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.IsPublished != nil {
		updates["is_published"] = *in.IsPublished
	}
	if in.Requirements != nil {
		updates["requirements"] = jsonList(in.Requirements)
	}
	if in.Outcomes != nil {
		updates["outcomes"] = jsonList(in.Outcomes)
	}

	db := s.db.WithContext(ctx)
	var course courseModels.Course
	if err := db.First(&course, courseID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, errors.Wrap(err, "load course")
	}
	if len(updates) > 0 {
		if err := db.Model(&course).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, "update course")
		}
	}
	if err := db.First(&course, courseID).Error; err != nil {
		return nil, errors.Wrap(err, "reload course")
	}
	return &course, nil
}

func (s *CatalogService) SetPublished(ctx context.Context, courseID uint, published bool) (*courseModels.Course, error) {
	return s.Update(ctx, courseID, CourseUpdate{IsPublished: &published})
}

// Delete removes a course nobody has bought or enrolled in, with its content
func (s *CatalogService) Delete(ctx context.Context, courseID uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var course courseModels.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrCourseNotFound
			}
			return errors.Wrap(err, "load course")
		}

		var enrollments, purchases int64
		if err := tx.Model(&courseModels.Enrollment{}).Where("course_id = ?", courseID).Count(&enrollments).Error; err != nil {
			return errors.Wrap(err, "count enrollments")
		}
		if err := tx.Model(&models.PaymentItem{}).Where("course_id = ?", courseID).Count(&purchases).Error; err != nil {
			return errors.Wrap(err, "count payment items")
		}
		if enrollments > 0 || purchases > 0 {
			return ErrCourseInUse.WithDetails(map[string]int64{"enrollments": enrollments, "payments": purchases})
		}

		moduleIDs := tx.Model(&courseModels.Module{}).Select("id").Where("course_id = ?", courseID)
		lessonIDs := tx.Model(&courseModels.Lesson{}).Select("id").Where("module_id IN (?)", moduleIDs)
		steps := []func() error{
			func() error {
				return tx.Where("lesson_id IN (?)", lessonIDs).Delete(&courseModels.LessonProgress{}).Error
			},
			func() error { return tx.Where("module_id IN (?)", moduleIDs).Delete(&courseModels.Lesson{}).Error },
			func() error { return tx.Where("course_id = ?", courseID).Delete(&courseModels.Module{}).Error },
			func() error { return tx.Where("course_id = ?", courseID).Delete(&courseModels.Review{}).Error },
			func() error { return tx.Where("course_id = ?", courseID).Delete(&models.CartItem{}).Error },
			func() error { return tx.Where("course_id = ?", courseID).Delete(&models.WishlistItem{}).Error },
			func() error { return tx.Delete(&course).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return errors.Wrap(err, "delete course")
			}
		}
		return nil
	})
}

// AdminList pages through every course, published or not
func (s *CatalogService) AdminList(ctx context.Context, search string, page, limit int) ([]CourseCard, Pagination, error) {
	db := s.db.WithContext(ctx)
	page, limit, offset := utils.ParsePage(page, limit, 20, 100)

	filter := func(q *gorm.DB) *gorm.DB {
		if search = strings.TrimSpace(search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(courses.title) LIKE ?", like)
		}
		return q
	}

	var total int64
	if err := filter(db.Table("courses")).Count(&total).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "count courses")
	}
	var out []CourseCard
	if err := filter(s.cards(db)).Order("courses.created_at DESC").Offset(offset).Limit(limit).Scan(&out).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "list courses")
	}
	return out, newPagination(page, limit, total), nil
}

// AdminGet returns a course with all module and lesson content
func (s *CatalogService) AdminGet(ctx context.Context, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := s.db.WithContext(ctx).
		Preload("Modules", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_num") }).
		Preload("Modules.Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_num") }).
		First(&course, courseID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, errors.Wrap(err, "load course")
	}
	return &course, nil
}

func nextOrder(tx *gorm.DB, model interface{}, column string, parentID uint) (int, error) {
	var max int
	err := tx.Model(model).Select("COALESCE(MAX(order_num), 0)").Where(column+" = ?", parentID).Scan(&max).Error
	return max + 1, err
}

// AddModule appends a module to the course
func (s *CatalogService) AddModule(ctx context.Context, courseID uint, in ModuleInput) (*courseModels.Module, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newError(KindValidation, "Module title is required")
	}
	var module courseModels.Module
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&courseModels.Course{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "load course")
		}
		if count == 0 {
			return ErrCourseNotFound
		}
		order, err := nextOrder(tx, &courseModels.Module{}, "course_id", courseID)
		if err != nil {
			return errors.Wrap(err, "next module order")
		}
		module = courseModels.Module{CourseID: courseID, Title: strings.TrimSpace(in.Title), Description: in.Description, OrderNum: order}
		return errors.Wrap(tx.Create(&module).Error, "create module")
	})
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (s *CatalogService) UpdateModule(ctx context.Context, moduleID uint, in ModuleInput) (*courseModels.Module, error) {
	db := s.db.WithContext(ctx)
	var module courseModels.Module
	if err := db.First(&module, moduleID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrModuleNotFound
		}
		return nil, errors.Wrap(err, "load module")
	}
	updates := map[string]interface{}{"description": in.Description}
	if t := strings.TrimSpace(in.Title); t != "" {
		updates["title"] = t
	}
	if err := db.Model(&module).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "update module")
	}
	return &module, nil
}

func (s *CatalogService) DeleteModule(ctx context.Context, moduleID uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&courseModels.Module{}).Where("id = ?", moduleID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "load module")
		}
		if count == 0 {
			return ErrModuleNotFound
		}
		// Children first, lessons reference the module by foreign key
		lessonIDs := tx.Model(&courseModels.Lesson{}).Select("id").Where("module_id = ?", moduleID)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&courseModels.LessonProgress{}).Error; err != nil {
			return errors.Wrap(err, "delete lesson progress")
		}
		if err := tx.Where("module_id = ?", moduleID).Delete(&courseModels.Lesson{}).Error; err != nil {
			return errors.Wrap(err, "delete lessons")
		}
		return errors.Wrap(tx.Delete(&courseModels.Module{}, moduleID).Error, "delete module")
	})
}

// AddLesson appends a lesson to the module
func (s *CatalogService) AddLesson(ctx context.Context, moduleID uint, in LessonInput) (*courseModels.Lesson, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newError(KindValidation, "Lesson title is required")
	}
	var lesson courseModels.Lesson
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&courseModels.Module{}).Where("id = ?", moduleID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "load module")
		}
		if count == 0 {
			return ErrModuleNotFound
		}
		order, err := nextOrder(tx, &courseModels.Lesson{}, "module_id", moduleID)
		if err != nil {
			return errors.Wrap(err, "next lesson order")
		}
		lesson = courseModels.Lesson{
			ModuleID:  moduleID,
			Title:     strings.TrimSpace(in.Title),
			Content:   in.Content,
			VideoURL:  in.VideoURL,
			Duration:  in.Duration,
			IsPreview: in.IsPreview,
			Resources: jsonList(in.Resources),
			OrderNum:  order,
		}
		return errors.Wrap(tx.Create(&lesson).Error, "create lesson")
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (s *CatalogService) UpdateLesson(ctx context.Context, lessonID uint, in LessonUpdate) (*courseModels.Lesson, error) {
	db := s.db.WithContext(ctx)
	var lesson courseModels.Lesson
	if err := db.First(&lesson, lessonID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrLessonNotFound
		}
		return nil, errors.Wrap(err, "load lesson")
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.VideoURL != nil {
		updates["video_url"] = *in.VideoURL
	}
	if in.Duration != nil {
		updates["duration"] = *in.Duration
	}
	if in.IsPreview != nil {
		updates["is_preview"] = *in.IsPreview
	}
	if in.OrderNum != nil {
		updates["order_num"] = *in.OrderNum
	}
	if in.Resources != nil {
		updates["resources"] = jsonList(in.Resources)
	}
	if len(updates) > 0 {
		if err := db.Model(&lesson).Updates(updates).Error; err != nil {
			if database.IsDuplicate(err) {
				return nil, newError(KindConflict, "Another lesson already has that position")
			}
			return nil, errors.Wrap(err, "update lesson")
		}
	}
	if err := db.First(&lesson, lessonID).Error; err != nil {
		return nil, errors.Wrap(err, "reload lesson")
	}
	return &lesson, nil
}

func (s *CatalogService) DeleteLesson(ctx context.Context, lessonID uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&courseModels.Lesson{}, lessonID)
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete lesson")
		}
		if res.RowsAffected == 0 {
			return ErrLessonNotFound
		}
		return errors.Wrap(tx.Where("lesson_id = ?", lessonID).Delete(&courseModels.LessonProgress{}).Error, "delete lesson progress")
	})
}

// AddReview records an enrolled student's rating and refreshes the course aggregate
func (s *CatalogService) AddReview(ctx context.Context, userID, courseID uint, rating int, comment string) (*courseModels.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, newError(KindValidation, "Rating must be between 1 and 5")
	}

	var review courseModels.Review
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		enrolled, err := enrolledCourseIDs(tx, userID, []uint{courseID})
		if err != nil {
			return errors.Wrap(err, "check enrollment")
		}
		if len(enrolled) == 0 {
			return ErrNotEnrolled
		}

		review = courseModels.Review{CourseID: courseID, UserID: userID, Rating: rating, Comment: strings.TrimSpace(comment)}
		if err := tx.Create(&review).Error; err != nil {
			if database.IsDuplicate(err) {
				return ErrAlreadyReviewed
			}
			return errors.Wrap(err, "create review")
		}

		var agg struct {
			Avg   float64
			Count int
		}
		if err := tx.Model(&courseModels.Review{}).
			Select("AVG(rating) AS avg, COUNT(*) AS count").
			Where("course_id = ?", courseID).
			Scan(&agg).Error; err != nil {
			return errors.Wrap(err, "aggregate ratings")
		}
		if err := tx.Model(&courseModels.Course{}).Where("id = ?", courseID).
			Updates(map[string]interface{}{"rating_avg": agg.Avg, "rating_count": agg.Count}).Error; err != nil {
			return errors.Wrap(err, "update rating")
		}

		var user models.User
		if err := tx.Select("name").First(&user, userID).Error; err == nil {
			review.UserName = user.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}
