package models

import "time"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string   `json:"-" gorm:"type:varchar(255)"` // nil for external identities
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Phone        string    `json:"phone" gorm:"type:varchar(32);default:''"`
	Avatar       string    `json:"avatar" gorm:"type:varchar(512);default:''"`
	Role         string    `json:"role" gorm:"type:varchar(20);default:'student';index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}
