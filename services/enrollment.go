package services

import (
	"context"
	"cyberdravida/database"
	courseModels "cyberdravida/models/course"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentService struct {
	base
	certs *CertificateService
}

func NewEnrollmentService(db *gorm.DB, opts Options, certs *CertificateService) *EnrollmentService {
	return &EnrollmentService{base: newBase(db, opts), certs: certs}
}

type LessonProgressInput struct {
	LessonID     uint
	Completed    bool
	TimeSpent    int
	LastPosition int
}

// ProgressResult is returned after any progress mutation
type ProgressResult struct {
	Progress         float64                   `json:"progress"`
	Completed        bool                      `json:"completed"`
	TotalLessons     int64                     `json:"total_lessons"`
	CompletedLessons int64                     `json:"completed_lessons"`
	Certificate      *courseModels.Certificate `json:"certificate,omitempty"`
}

// EnrollmentSummary is one row of a student's course list
type EnrollmentSummary struct {
	courseModels.Enrollment
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	Thumbnail        string `json:"thumbnail"`
	Duration         int    `json:"duration"`
	Level            string `json:"level"`
	Category         string `json:"category"`
	InstructorName   string `json:"instructor_name"`
	TotalLessons     int64  `json:"total_lessons" gorm:"-"`
	CompletedLessons int64  `json:"completed_lessons" gorm:"-"`
}

type LessonWithProgress struct {
	courseModels.Lesson
	Completed    bool `json:"completed"`
	TimeSpent    int  `json:"time_spent"`
	LastPosition int  `json:"last_position"`
}

type ModuleWithProgress struct {
	courseModels.Module
	Lessons []LessonWithProgress `json:"lessons"`
}

// EnrollmentDetail is an enrollment with the full course outline
type EnrollmentDetail struct {
	courseModels.Enrollment
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Thumbnail   string               `json:"thumbnail"`
	Duration    int                  `json:"duration"`
	Modules     []ModuleWithProgress `json:"modules" gorm:"-"`
}

type LessonRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type LessonDetail struct {
	LessonWithProgress
	ModuleTitle string     `json:"module_title"`
	PrevLesson  *LessonRef `json:"prev_lesson"`
	NextLesson  *LessonRef `json:"next_lesson"`
}

// grantEnrollments inserts missing enrollments for the user and bumps the
// enrollment counter of each course that actually gained a row.
func grantEnrollments(tx *gorm.DB, userID uint, courseIDs []uint, at time.Time) (int, error) {
	created := 0
	for _, courseID := range courseIDs {
		enrollment := courseModels.Enrollment{
			UserID:     userID,
			CourseID:   courseID,
			Status:     courseModels.EnrollmentActive,
			EnrolledAt: at,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(&enrollment)
		if res.Error != nil {
			return created, errors.Wrap(res.Error, "insert enrollment")
		}
		if res.RowsAffected == 0 {
			continue
		}
		if err := tx.Model(&courseModels.Course{}).Where("id = ?", courseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error; err != nil {
			return created, errors.Wrap(err, "bump enrollment count")
		}
		created++
	}
	return created, nil
}

func enrolledCourseIDs(tx *gorm.DB, userID uint, courseIDs []uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Pluck("course_id", &ids).Error
	return ids, err
}

// EnrollFree enrolls the user directly in a published free course
func (s *EnrollmentService) EnrollFree(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var course courseModels.Course
		if err := tx.Where("id = ? AND is_published = ?", courseID, true).First(&course).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrCourseNotFound
			}
			return errors.Wrap(err, "load course")
		}

		var count int64
		if err := tx.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check enrollment")
		}
		if count > 0 {
			return ErrAlreadyEnrolled.WithDetails([]uint{courseID})
		}
		if !course.IsFree() {
			return ErrPaymentRequired
		}

		if _, err := grantEnrollments(tx, userID, []uint{courseID}, s.now()); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func lessonInCourse(tx *gorm.DB, lessonID, courseID uint) (bool, error) {
	var count int64
	err := tx.Model(&courseModels.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lessons.id = ? AND modules.course_id = ?", lessonID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (s *EnrollmentService) courseCounts(tx *gorm.DB, userID, courseID uint) (total, completed int64, err error) {
	if err = tx.Model(&courseModels.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Count(&total).Error; err != nil {
		return
	}
	err = tx.Model(&courseModels.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ? AND lesson_progress.user_id = ? AND lesson_progress.completed = ?", courseID, userID, true).
		Count(&completed).Error
	return
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// applyProgress stores the new percentage. Completion is one-way: reaching
// 100 marks the enrollment completed, stamps completed_at once and issues
// the certificate. A later lower value never reopens it.
func (s *EnrollmentService) applyProgress(tx *gorm.DB, enrollment *courseModels.Enrollment, progress float64) (*courseModels.Certificate, error) {
	at := s.now()
	updates := map[string]interface{}{
		"progress":         progress,
		"last_accessed_at": at,
	}
	if progress >= 100 && enrollment.Status != courseModels.EnrollmentCompleted {
		updates["status"] = courseModels.EnrollmentCompleted
		enrollment.Status = courseModels.EnrollmentCompleted
	}
	if progress >= 100 && enrollment.CompletedAt == nil {
		updates["completed_at"] = at
		enrollment.CompletedAt = &at
	}
	if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "update enrollment progress")
	}
	enrollment.Progress = progress
	enrollment.LastAccessedAt = &at

	if enrollment.Status != courseModels.EnrollmentCompleted {
		return nil, nil
	}
	return s.certs.IssueIfAbsent(tx, enrollment.UserID, enrollment.CourseID)
}

// RecordLessonProgress stores one lesson's progress and recomputes the course percentage
func (s *EnrollmentService) RecordLessonProgress(ctx context.Context, userID, courseID uint, in LessonProgressInput) (*ProgressResult, error) {
	if in.TimeSpent < 0 || in.LastPosition < 0 {
		return nil, newError(KindValidation, "Time values cannot be negative")
	}

	var result ProgressResult
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var enrollment courseModels.Enrollment
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotEnrolled
			}
			return errors.Wrap(err, "load enrollment")
		}

		ok, err := lessonInCourse(tx, in.LessonID, courseID)
		if err != nil {
			return errors.Wrap(err, "check lesson")
		}
		if !ok {
			return ErrLessonNotFound
		}

		if err := s.upsertLessonProgress(tx, userID, in); err != nil {
			return err
		}

		total, completed, err := s.courseCounts(tx, userID, courseID)
		if err != nil {
			return errors.Wrap(err, "count lessons")
		}
		progress := 0.0
		if total > 0 {
			progress = clampProgress(float64(completed) / float64(total) * 100)
		}

		cert, err := s.applyProgress(tx, &enrollment, progress)
		if err != nil {
			return err
		}
		result = ProgressResult{
			Progress:         progress,
			Completed:        enrollment.Status == courseModels.EnrollmentCompleted,
			TotalLessons:     total,
			CompletedLessons: completed,
			Certificate:      cert,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *EnrollmentService) upsertLessonProgress(tx *gorm.DB, userID uint, in LessonProgressInput) error {
	at := s.now()
	row := courseModels.LessonProgress{
		UserID:       userID,
		LessonID:     in.LessonID,
		Completed:    in.Completed,
		TimeSpent:    in.TimeSpent,
		LastPosition: in.LastPosition,
	}
	if in.Completed {
		row.CompletedAt = &at
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return errors.Wrap(res.Error, "insert lesson progress")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	updates := map[string]interface{}{
		"time_spent":    gorm.Expr("time_spent + ?", in.TimeSpent),
		"last_position": in.LastPosition,
		"updated_at":    at,
	}
	// completion is sticky; a false flag never clears it
	if in.Completed {
		updates["completed"] = true
		updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", at)
	}
	if err := tx.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", userID, in.LessonID).
		UpdateColumns(updates).Error; err != nil {
		return errors.Wrap(err, "update lesson progress")
	}
	return nil
}

// SetProgress overwrites the percentage of an enrollment owned by the user
func (s *EnrollmentService) SetProgress(ctx context.Context, userID, enrollmentID uint, progress float64) (*ProgressResult, error) {
	var result ProgressResult
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var enrollment courseModels.Enrollment
		if err := tx.Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrEnrollmentMissing
			}
			return errors.Wrap(err, "load enrollment")
		}

		progress = clampProgress(progress)
		cert, err := s.applyProgress(tx, &enrollment, progress)
		if err != nil {
			return err
		}
		result = ProgressResult{
			Progress:    progress,
			Completed:   enrollment.Status == courseModels.EnrollmentCompleted,
			Certificate: cert,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type courseCount struct {
	CourseID uint
	Count    int64
}

func countsByCourse(q *gorm.DB) (map[uint]int64, error) {
	var rows []courseCount
	if err := q.Select("modules.course_id AS course_id, COUNT(*) AS count").
		Group("modules.course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.CourseID] = r.Count
	}
	return out, nil
}

// List returns the user's enrollments, newest first, with lesson totals
func (s *EnrollmentService) List(ctx context.Context, userID uint) ([]EnrollmentSummary, error) {
	db := s.db.WithContext(ctx)

	var rows []EnrollmentSummary
	if err := db.Table("enrollments").
		Select(`enrollments.*, courses.title, courses.slug, courses.thumbnail, courses.duration,
			courses.level, courses.category, users.name AS instructor_name`).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Joins("LEFT JOIN users ON users.id = courses.instructor_id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.enrolled_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}
	if len(rows) == 0 {
		return rows, nil
	}

	courseIDs := make([]uint, len(rows))
	for i, r := range rows {
		courseIDs[i] = r.CourseID
	}

	totals, err := countsByCourse(db.Table("lessons").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id IN ?", courseIDs))
	if err != nil {
		return nil, errors.Wrap(err, "count lessons")
	}
	done, err := countsByCourse(db.Table("lesson_progress").
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id IN ? AND lesson_progress.user_id = ? AND lesson_progress.completed = ?", courseIDs, userID, true))
	if err != nil {
		return nil, errors.Wrap(err, "count completed lessons")
	}

	for i := range rows {
		rows[i].TotalLessons = totals[rows[i].CourseID]
		rows[i].CompletedLessons = done[rows[i].CourseID]
	}
	return rows, nil
}

func (s *EnrollmentService) progressByLesson(db *gorm.DB, userID uint, lessonIDs []uint) (map[uint]courseModels.LessonProgress, error) {
	out := make(map[uint]courseModels.LessonProgress)
	if len(lessonIDs) == 0 {
		return out, nil
	}
	var rows []courseModels.LessonProgress
	if err := db.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.LessonID] = r
	}
	return out, nil
}

func withProgress(l courseModels.Lesson, p courseModels.LessonProgress) LessonWithProgress {
	return LessonWithProgress{Lesson: l, Completed: p.Completed, TimeSpent: p.TimeSpent, LastPosition: p.LastPosition}
}

// Get returns the enrollment for a course id or slug with every lesson's progress
func (s *EnrollmentService) Get(ctx context.Context, userID uint, courseIDOrSlug string) (*EnrollmentDetail, error) {
	db := s.db.WithContext(ctx)

	q := db.Table("enrollments").
		Select("enrollments.*, courses.title, courses.slug, courses.description, courses.thumbnail, courses.duration").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ?", userID)
	if id, err := strconv.ParseUint(courseIDOrSlug, 10, 64); err == nil {
		q = q.Where("enrollments.course_id = ?", id)
	} else {
		q = q.Where("courses.slug = ?", courseIDOrSlug)
	}

	var found []EnrollmentDetail
	if err := q.Limit(1).Scan(&found).Error; err != nil {
		return nil, errors.Wrap(err, "load enrollment")
	}
	if len(found) == 0 {
		return nil, ErrEnrollmentMissing
	}
	detail := found[0]

	var modules []courseModels.Module
	if err := db.Where("course_id = ?", detail.CourseID).
		Order("order_num").
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_num") }).
		Find(&modules).Error; err != nil {
		return nil, errors.Wrap(err, "load modules")
	}

	var lessonIDs []uint
	for _, m := range modules {
		for _, l := range m.Lessons {
			lessonIDs = append(lessonIDs, l.ID)
		}
	}
	progress, err := s.progressByLesson(db, userID, lessonIDs)
	if err != nil {
		return nil, errors.Wrap(err, "load lesson progress")
	}

	detail.Modules = make([]ModuleWithProgress, 0, len(modules))
	for _, m := range modules {
		mp := ModuleWithProgress{Module: m, Lessons: make([]LessonWithProgress, 0, len(m.Lessons))}
		for _, l := range m.Lessons {
			mp.Lessons = append(mp.Lessons, withProgress(l, progress[l.ID]))
		}
		mp.Module.Lessons = nil
		detail.Modules = append(detail.Modules, mp)
	}
	return &detail, nil
}

// Lesson returns one lesson for an enrolled user with its neighbours in course order
func (s *EnrollmentService) Lesson(ctx context.Context, userID, courseID, lessonID uint) (*LessonDetail, error) {
	db := s.db.WithContext(ctx)

	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotEnrolled
		}
		return nil, errors.Wrap(err, "load enrollment")
	}

	type orderedLesson struct {
		courseModels.Lesson
		ModuleTitle string
	}
	var lessons []orderedLesson
	if err := db.Table("lessons").
		Select("lessons.*, modules.title AS module_title").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Order("modules.order_num, lessons.order_num").
		Scan(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}

	idx := -1
	for i, l := range lessons {
		if l.ID == lessonID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrLessonNotFound
	}

	progress, err := s.progressByLesson(db, userID, []uint{lessonID})
	if err != nil {
		return nil, errors.Wrap(err, "load lesson progress")
	}

	detail := &LessonDetail{
		LessonWithProgress: withProgress(lessons[idx].Lesson, progress[lessonID]),
		ModuleTitle:        lessons[idx].ModuleTitle,
	}
	if idx > 0 {
		detail.PrevLesson = &LessonRef{ID: lessons[idx-1].ID, Title: lessons[idx-1].Title}
	}
	if idx < len(lessons)-1 {
		detail.NextLesson = &LessonRef{ID: lessons[idx+1].ID, Title: lessons[idx+1].Title}
	}

	if err := db.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
		UpdateColumn("last_accessed_at", s.now()).Error; err != nil {
		return nil, errors.Wrap(err, "touch enrollment")
	}
	return detail, nil
}
