package models

import "time"

type Coupon struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Code            string     `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"` // stored uppercased
	DiscountPercent int        `json:"discount_percent" gorm:"not null;check:discount_percent >= 1 AND discount_percent <= 100"`
	ExpiresAt       *time.Time `json:"expires_at"`
	UsageLimit      *int       `json:"usage_limit"`
	UsageCount      int        `json:"usage_count" gorm:"not null;default:0"`
	IsActive        bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Redeemable reports whether the coupon can be applied at the given instant.
func (c Coupon) Redeemable(at time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(at) {
		return false
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false
	}
	return true
}
