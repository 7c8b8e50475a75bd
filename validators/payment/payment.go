package paymentValidator

import (
	"cyberdravida/validators"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SubmitUTRRequest struct {
	CourseIDs     []uint           `json:"course_ids" validate:"required,min=1,max=50,dive,gt=0"`
	UTRNumber     string           `json:"utr_number" validate:"required,utr"`
	TransactionID string           `json:"transaction_id" validate:"required,max=64"`
	Amount        *decimal.Decimal `json:"amount"`
	CouponCode    string           `json:"coupon_code" validate:"max=64"`
}

type CouponCodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type CheckoutRequest struct {
	CourseIDs  []uint `json:"course_ids" validate:"required,min=1,max=50,dive,gt=0"`
	CouponCode string `json:"coupon_code" validate:"max=64"`
}

type MockCompleteRequest struct {
	PaymentID uint `json:"payment_id" validate:"required,gt=0"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ListPaymentsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending pending_verification completed rejected"`
	Page   int    `query:"page" validate:"min=0"`
	Limit  int    `query:"limit" validate:"min=0,max=100"`
}

type CreateCouponRequest struct {
	Code            string     `json:"code" validate:"required,alphanum,min=3,max=64"`
	DiscountPercent int        `json:"discount_percent" validate:"required,min=1,max=100"`
	ExpiresAt       *time.Time `json:"expires_at"`
	UsageLimit      *int       `json:"usage_limit" validate:"omitempty,min=1"`
}

func SubmitUTR() fiber.Handler {
	return validators.Body[SubmitUTRRequest]("validatedSubmitUTR")
}

func ValidateCoupon() fiber.Handler {
	return validators.Body[CouponCodeRequest]("validatedCouponCode")
}

func CreateCheckout() fiber.Handler {
	return validators.Body[CheckoutRequest]("validatedCheckout")
}

func MockComplete() fiber.Handler {
	return validators.Body[MockCompleteRequest]("validatedMockComplete")
}

func Reject() fiber.Handler {
	return validators.OptionalBody[RejectRequest]("validatedReject")
}

func ListPayments() fiber.Handler {
	return validators.Query[ListPaymentsQuery]("validatedPaymentList")
}

func CreateCoupon() fiber.Handler {
	return validators.Body[CreateCouponRequest]("validatedCoupon")
}

func PaymentID() fiber.Handler {
	return validators.ParamIDs("id")
}
