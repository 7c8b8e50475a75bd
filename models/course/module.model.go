package course

import (
	"time"

	"gorm.io/datatypes"
)

// Module represents a section within a course
type Module struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CourseID    uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_module_order"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	OrderNum    int       `json:"order_num" gorm:"not null;uniqueIndex:idx_module_order"` // position in course
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

// Lesson is the unit of progress tracking
type Lesson struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ModuleID  uint           `json:"module_id" gorm:"not null;uniqueIndex:idx_lesson_order"`
	Title     string         `json:"title" gorm:"type:varchar(255);not null"`
	Content   string         `json:"content,omitempty" gorm:"type:text"`
	VideoURL  string         `json:"video_url,omitempty" gorm:"type:varchar(512)"` // resolved by the player
	Duration  int            `json:"duration" gorm:"default:0"`                   // minutes
	Resources datatypes.JSON `json:"resources,omitempty"`
	OrderNum  int            `json:"order_num" gorm:"not null;uniqueIndex:idx_lesson_order"`
	IsPreview bool           `json:"is_preview" gorm:"default:false"` // visible without enrollment
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
