package models

import "time"

// CartItem is a course a user intends to buy. Removed on purchase completion.
type CartItem struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_course"`
	CourseID uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_cart_user_course;index"`
	AddedAt  time.Time `json:"added_at" gorm:"autoCreateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type WishlistItem struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_wishlist_user_course"`
	CourseID uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_wishlist_user_course;index"`
	AddedAt  time.Time `json:"added_at" gorm:"autoCreateTime"`
}

func (WishlistItem) TableName() string {
	return "wishlist"
}
