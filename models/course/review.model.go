package course

import "time"

type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CourseID  uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_review_user_course"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_review_user_course"`
	Rating    int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	UserName string `json:"user_name,omitempty" gorm:"->;-:migration"` // filled by joins
}
