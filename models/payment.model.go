package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	// PaymentStatusPending is a card checkout waiting on the gateway callback.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPendingVerification is a UTR submission waiting on an admin.
	PaymentStatusPendingVerification PaymentStatus = "pending_verification"
	PaymentStatusCompleted           PaymentStatus = "completed"
	PaymentStatusRejected            PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPendingVerification, PaymentStatusCompleted, PaymentStatusRejected:
		return true
	}
	return false
}

const (
	PaymentMethodUPI  = "upi"
	PaymentMethodCard = "card"
)

// Payment is a purchase of one or more courses.
type Payment struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	UserID           uint            `json:"user_id" gorm:"not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	OriginalAmount   decimal.Decimal `json:"original_amount" gorm:"type:decimal(12,2);not null"`
	CouponCode       *string         `json:"coupon_code" gorm:"type:varchar(64)"`
	DiscountPercent  int             `json:"discount_percent" gorm:"not null;default:0"`
	Currency         string          `json:"currency" gorm:"type:varchar(8);not null;default:'INR'"`
	Status           PaymentStatus   `json:"status" gorm:"type:varchar(32);not null;index"`
	Method           string          `json:"method" gorm:"type:varchar(16);not null;default:'upi'"`
	UTRNumber        *string         `json:"utr_number" gorm:"type:varchar(64);uniqueIndex"`
	TransactionID    string          `json:"transaction_id" gorm:"type:varchar(128);default:''"`
	GatewaySessionID string          `json:"gateway_session_id,omitempty" gorm:"type:varchar(255);index"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty" gorm:"type:varchar(255)"`
	VerifiedBy       *uint           `json:"verified_by"`
	VerifiedAt       *time.Time      `json:"verified_at"`
	RejectionReason  string          `json:"rejection_reason,omitempty" gorm:"type:text"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []PaymentItem `json:"items" gorm:"foreignKey:PaymentID"`
}

// PaymentItem snapshots the course price at purchase time.
type PaymentItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	PaymentID uint            `json:"payment_id" gorm:"not null;index"`
	CourseID  uint            `json:"course_id" gorm:"not null;index"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`

	CourseTitle string `json:"course_title" gorm:"-"`
}

func (PaymentItem) TableName() string {
	return "payment_items"
}
