package course

import "time"

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
)

// Enrollment grants a user access to a course and tracks coarse progress
type Enrollment struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID       uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course;index"`
	Progress       float64    `json:"progress" gorm:"not null;default:0"` // 0-100
	Status         string     `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	EnrolledAt     time.Time  `json:"enrolled_at" gorm:"index"`
	CompletedAt    *time.Time `json:"completed_at"` // set once
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LessonProgress tracks a user's state on one lesson
type LessonProgress struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UserID       uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_lesson_progress_user_lesson"`
	LessonID     uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_progress_user_lesson;index"`
	Completed    bool       `json:"completed" gorm:"not null;default:false"`
	TimeSpent    int        `json:"time_spent" gorm:"not null;default:0"`    // seconds, accumulated
	LastPosition int        `json:"last_position" gorm:"not null;default:0"` // playback offset, seconds
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
