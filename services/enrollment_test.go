package services

import (
	"context"
	"strconv"
	"testing"

	"cyberdravida/models"
	courseModels "cyberdravida/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func enroll(t *testing.T, db *gorm.DB, userID, courseID uint) courseModels.Enrollment {
	t.Helper()
	enrollment := courseModels.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: testClock}
	require.NoError(t, db.Create(&enrollment).Error)
	return enrollment
}

func TestEnrollFree(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	free, _ := createCourse(t, db, "Free", 0, 1)
	paid, _ := createCourse(t, db, "Paid", 499, 1)

	enrollment, err := svc.Enrollments.EnrollFree(ctx, student.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Equal(t, 1, reloadCourse(t, db, free.ID).EnrollmentCount)

	_, err = svc.Enrollments.EnrollFree(ctx, student.ID, free.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, 1, reloadCourse(t, db, free.ID).EnrollmentCount)

	_, err = svc.Enrollments.EnrollFree(ctx, student.ID, paid.ID)
	assert.ErrorIs(t, err, ErrPaymentRequired)
	assert.Equal(t, KindPaymentRequired, KindOf(err))

	_, err = svc.Enrollments.EnrollFree(ctx, student.ID, 777)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestLessonProgressCompletesCourseOnce(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, lessons := createCourse(t, db, "Two Lessons", 0, 2)
	enroll(t, db, student.ID, course.ID)

	res, err := svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[0].ID, Completed: true, TimeSpent: 60})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Progress)
	assert.False(t, res.Completed)
	assert.Nil(t, res.Certificate)
	assert.Equal(t, int64(2), res.TotalLessons)
	assert.Equal(t, int64(1), res.CompletedLessons)

	res, err = svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[1].ID, Completed: true, TimeSpent: 30})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Progress)
	assert.True(t, res.Completed)
	require.NotNil(t, res.Certificate)
	firstNumber := res.Certificate.CertificateNumber
	assert.Regexp(t, `^CD-\d+-[A-Z0-9]{6}$`, firstNumber)

	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	require.NotNil(t, enrollment.CompletedAt)
	completedAt := *enrollment.CompletedAt

	// Re-submitting a finished lesson must not move completion or issue again
	res, err = svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[1].ID, Completed: true, TimeSpent: 15})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Progress)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, firstNumber, res.Certificate.CertificateNumber)

	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	assert.True(t, completedAt.Equal(*enrollment.CompletedAt))
	assert.Equal(t, int64(1), countRows(t, db, &courseModels.Certificate{}, "user_id = ? AND course_id = ?", student.ID, course.ID))

	var lp courseModels.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", student.ID, lessons[1].ID).First(&lp).Error)
	assert.Equal(t, 45, lp.TimeSpent, "time spent accumulates")
}

func TestLessonCompletionIsSticky(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, lessons := createCourse(t, db, "Sticky", 0, 2)
	enroll(t, db, student.ID, course.ID)

	_, err := svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[0].ID, Completed: true})
	require.NoError(t, err)

	res, err := svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[0].ID, Completed: false, LastPosition: 12})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Progress)
	assert.Equal(t, int64(1), res.CompletedLessons)
}

func TestLessonProgressRejectsForeignLessonsAndStrangers(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	stranger := createUser(t, db, "x@example.com", models.RoleStudent)
	course, lessons := createCourse(t, db, "Mine", 0, 1)
	_, otherLessons := createCourse(t, db, "Other", 0, 1)
	enroll(t, db, student.ID, course.ID)

	_, err := svc.Enrollments.RecordLessonProgress(ctx, stranger.ID, course.ID, LessonProgressInput{LessonID: lessons[0].ID, Completed: true})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: otherLessons[0].ID, Completed: true})
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[0].ID, TimeSpent: -1})
	assert.Equal(t, KindValidation, KindOf(err))

	assert.Equal(t, int64(0), countRows(t, db, &courseModels.LessonProgress{}, "user_id = ?", student.ID))
}

func TestSetProgressClampsAndNeverReopens(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	other := createUser(t, db, "o@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "Manual", 0, 3)
	enrollment := enroll(t, db, student.ID, course.ID)

	_, err := svc.Enrollments.SetProgress(ctx, other.ID, enrollment.ID, 50)
	assert.ErrorIs(t, err, ErrEnrollmentMissing)

	res, err := svc.Enrollments.SetProgress(ctx, student.ID, enrollment.ID, 140)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Progress)
	assert.True(t, res.Completed)
	require.NotNil(t, res.Certificate)

	res, err = svc.Enrollments.SetProgress(ctx, student.ID, enrollment.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Progress)
	assert.True(t, res.Completed, "completion is one-way")

	var stored courseModels.Enrollment
	require.NoError(t, db.First(&stored, enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, int64(1), countRows(t, db, &courseModels.Certificate{}, "user_id = ?", student.ID))
}

func TestEnrollmentViews(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, lessons := createCourse(t, db, "Outline", 0, 3)
	enroll(t, db, student.ID, course.ID)

	_, err := svc.Enrollments.RecordLessonProgress(ctx, student.ID, course.ID, LessonProgressInput{LessonID: lessons[0].ID, Completed: true})
	require.NoError(t, err)

	list, err := svc.Enrollments.List(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Outline", list[0].Title)
	assert.Equal(t, int64(3), list[0].TotalLessons)
	assert.Equal(t, int64(1), list[0].CompletedLessons)

	byID, err := svc.Enrollments.Get(ctx, student.ID, strconv.FormatUint(uint64(course.ID), 10))
	require.NoError(t, err)
	bySlug, err := svc.Enrollments.Get(ctx, student.ID, course.Slug)
	require.NoError(t, err)
	assert.Equal(t, byID.ID, bySlug.ID)
	require.Len(t, byID.Modules, 1)
	require.Len(t, byID.Modules[0].Lessons, 3)
	assert.True(t, byID.Modules[0].Lessons[0].Completed)
	assert.False(t, byID.Modules[0].Lessons[1].Completed)

	_, err = svc.Enrollments.Get(ctx, student.ID, "no-such-course")
	assert.ErrorIs(t, err, ErrEnrollmentMissing)

	lesson, err := svc.Enrollments.Lesson(ctx, student.ID, course.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Module 1", lesson.ModuleTitle)
	require.NotNil(t, lesson.PrevLesson)
	require.NotNil(t, lesson.NextLesson)
	assert.Equal(t, lessons[0].ID, lesson.PrevLesson.ID)
	assert.Equal(t, lessons[2].ID, lesson.NextLesson.ID)

	first, err := svc.Enrollments.Lesson(ctx, student.ID, course.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Nil(t, first.PrevLesson)
	assert.True(t, first.Completed)
}

func TestCertificateLookups(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	viewer := createUser(t, db, "v@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "Certified", 0, 1)
	enrollment := enroll(t, db, student.ID, course.ID)

	res, err := svc.Enrollments.SetProgress(ctx, student.ID, enrollment.ID, 100)
	require.NoError(t, err)
	number := res.Certificate.CertificateNumber

	pub, err := svc.Certificates.Verify(ctx, number)
	require.NoError(t, err)
	assert.True(t, pub.Valid)
	assert.Equal(t, "Certified", pub.CourseTitle)
	assert.Equal(t, student.Name, pub.StudentName)

	_, err = svc.Certificates.Verify(ctx, "CD-0-NOPE00")
	assert.ErrorIs(t, err, ErrCertificateAbsent)

	owned, err := svc.Certificates.Get(ctx, number, student.ID)
	require.NoError(t, err)
	assert.IsType(t, CertificateView{}, owned)

	public, err := svc.Certificates.Get(ctx, strconv.FormatUint(uint64(res.Certificate.ID), 10), viewer.ID)
	require.NoError(t, err)
	assert.IsType(t, PublicCertificate{}, public)

	certs, err := svc.Certificates.ListForUser(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, course.Slug, certs[0].CourseSlug)
}
