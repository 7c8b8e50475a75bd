package course

import "time"

// Certificate represents an issued certificate for course completion
type Certificate struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CourseID          uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CertificateNumber string    `json:"certificate_number" gorm:"type:varchar(64);uniqueIndex;not null"`
	IssuedAt          time.Time `json:"issued_at"`
}
