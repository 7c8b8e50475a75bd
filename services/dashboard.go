package services

import (
	"context"
	"cyberdravida/database"
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardService struct {
	base
}

func NewDashboardService(db *gorm.DB, opts Options) *DashboardService {
	return &DashboardService{base: newBase(db, opts)}
}

type DashboardStats struct {
	TotalStudents       int64           `json:"total_students"`
	TotalCourses        int64           `json:"total_courses"`
	TotalEnrollments    int64           `json:"total_enrollments"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	RecentEnrollments   int64           `json:"recent_enrollments"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	PendingVerification int64           `json:"pending_verification"`
}

type TopCourse struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	EnrollmentCount int             `json:"enrollment_count"`
	RatingAvg       float64         `json:"rating_avg"`
	Price           decimal.Decimal `json:"price"`
}

type Activity struct {
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	UserName    string    `json:"user_name"`
	CourseTitle string    `json:"course_title"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Dashboard struct {
	Stats            DashboardStats `json:"stats"`
	TopCourses       []TopCourse    `json:"top_courses"`
	RecentActivities []Activity     `json:"recent_activities"`
	EnrollmentTrend  []TrendPoint   `json:"enrollment_trend"`
}

type StudentRow struct {
	ID               uint      `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	CreatedAt        time.Time `json:"created_at"`
	EnrolledCourses  int64     `json:"enrolled_courses"`
	CompletedCourses int64     `json:"completed_courses"`
}

type StudentEnrollment struct {
	courseModels.Enrollment
	CourseTitle string `json:"course_title"`
	Thumbnail   string `json:"thumbnail"`
}

type StudentDetail struct {
	models.User
	Enrollments []StudentEnrollment `json:"enrollments"`
	Payments    []models.Payment    `json:"payments"`
}

func sumRevenue(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := q.Model(&models.Payment{}).Select("SUM(amount)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Dashboard aggregates the back office overview
func (s *DashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	at := s.now()
	var out Dashboard

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&out.Stats.TotalStudents, db.Model(&models.User{}).Where("role = ?", models.RoleStudent)},
		{&out.Stats.TotalCourses, db.Model(&courseModels.Course{})},
		{&out.Stats.TotalEnrollments, db.Model(&courseModels.Enrollment{})},
		{&out.Stats.RecentEnrollments, db.Model(&courseModels.Enrollment{}).Where("enrolled_at > ?", at.AddDate(0, 0, -7))},
		{&out.Stats.PendingVerification, db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusPendingVerification)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, errors.Wrap(err, "dashboard counts")
		}
	}

	var err error
	if out.Stats.TotalRevenue, err = sumRevenue(db.Where("status = ?", models.PaymentStatusCompleted)); err != nil {
		return nil, errors.Wrap(err, "total revenue")
	}
	monthStart := now.With(at).BeginningOfMonth()
	if out.Stats.MonthlyRevenue, err = sumRevenue(db.Where("status = ? AND created_at >= ?", models.PaymentStatusCompleted, monthStart)); err != nil {
		return nil, errors.Wrap(err, "monthly revenue")
	}

	if err := db.Model(&courseModels.Course{}).
		Select("id, title, enrollment_count, rating_avg, price").
		Order("enrollment_count DESC").
		Limit(5).
		Scan(&out.TopCourses).Error; err != nil {
		return nil, errors.Wrap(err, "top courses")
	}

	if err := db.Table("enrollments").
		Select("'enrollment' AS type, enrollments.enrolled_at AS date, users.name AS user_name, courses.title AS course_title").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Order("enrollments.enrolled_at DESC").
		Limit(10).
		Scan(&out.RecentActivities).Error; err != nil {
		return nil, errors.Wrap(err, "recent activity")
	}

	// Bucketed in Go so the query stays portable across dialects
	trendStart := now.With(at.AddDate(0, 0, -29)).BeginningOfDay()
	var enrolledAt []time.Time
	if err := db.Model(&courseModels.Enrollment{}).
		Where("enrolled_at >= ?", trendStart).
		Order("enrolled_at").
		Pluck("enrolled_at", &enrolledAt).Error; err != nil {
		return nil, errors.Wrap(err, "enrollment trend")
	}
	out.EnrollmentTrend = []TrendPoint{}
	for _, t := range enrolledAt {
		day := t.UTC().Format("2006-01-02")
		if n := len(out.EnrollmentTrend); n > 0 && out.EnrollmentTrend[n-1].Date == day {
			out.EnrollmentTrend[n-1].Count++
			continue
		}
		out.EnrollmentTrend = append(out.EnrollmentTrend, TrendPoint{Date: day, Count: 1})
	}

	return &out, nil
}

// Students pages through student accounts with enrollment counts
func (s *DashboardService) Students(ctx context.Context, search string, page, limit int) ([]StudentRow, Pagination, error) {
	db := s.db.WithContext(ctx)
	page, limit, offset := utils.ParsePage(page, limit, 20, 100)

	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Where("users.role = ?", models.RoleStudent)
		if search = strings.TrimSpace(search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := filter(db.Table("users")).Count(&total).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "count students")
	}

	var rows []StudentRow
	if err := filter(db.Table("users")).
		Select(`users.id, users.email, users.name, users.phone, users.created_at,
			COUNT(DISTINCT enrollments.id) AS enrolled_courses,
			COALESCE(SUM(CASE WHEN enrollments.status = ? THEN 1 ELSE 0 END), 0) AS completed_courses`, courseModels.EnrollmentCompleted).
		Joins("LEFT JOIN enrollments ON enrollments.user_id = users.id").
		Group("users.id, users.email, users.name, users.phone, users.created_at").
		Order("users.created_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "list students")
	}
	return rows, newPagination(page, limit, total), nil
}

// Student returns one student with enrollments and payments
func (s *DashboardService) Student(ctx context.Context, userID uint) (*StudentDetail, error) {
	db := s.db.WithContext(ctx)

	var detail StudentDetail
	if err := db.Where("id = ? AND role = ?", userID, models.RoleStudent).First(&detail.User).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "load student")
	}

	if err := db.Table("enrollments").
		Select("enrollments.*, courses.title AS course_title, courses.thumbnail").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.enrolled_at DESC").
		Scan(&detail.Enrollments).Error; err != nil {
		return nil, errors.Wrap(err, "load student enrollments")
	}

	if err := db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&detail.Payments).Error; err != nil {
		return nil, errors.Wrap(err, "load student payments")
	}
	return &detail, nil
}
