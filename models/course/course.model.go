package course

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course represents a sellable learning course
type Course struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	Title            string          `json:"title" gorm:"type:varchar(255);not null"`
	Slug             string          `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Description      string          `json:"description" gorm:"type:text"`
	ShortDescription string          `json:"short_description" gorm:"type:varchar(512)"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	OriginalPrice    decimal.Decimal `json:"original_price" gorm:"type:decimal(12,2);not null;default:0"` // list price before discount
	Level            string          `json:"level" gorm:"type:varchar(20);default:'beginner'"`
	Duration         int             `json:"duration" gorm:"default:0"` // minutes
	Category         string          `json:"category" gorm:"type:varchar(100);index"`
	Thumbnail        string          `json:"thumbnail" gorm:"type:varchar(512)"`
	InstructorID     *uint           `json:"instructor_id" gorm:"index"`
	IsPublished      bool            `json:"is_published" gorm:"default:false;index"`
	IsFeatured       bool            `json:"is_featured" gorm:"default:false"`
	EnrollmentCount  int             `json:"enrollment_count" gorm:"not null;default:0"`
	RatingAvg        float64         `json:"rating_avg" gorm:"not null;default:0"`
	RatingCount      int             `json:"rating_count" gorm:"not null;default:0"`
	Requirements     datatypes.JSON  `json:"requirements"`
	Outcomes         datatypes.JSON  `json:"outcomes"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (c Course) IsFree() bool {
	return !c.Price.IsPositive()
}

func IsValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}
