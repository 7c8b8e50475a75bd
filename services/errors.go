package services

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindInvalidState    Kind = "INVALID_STATE"
	KindConflict        Kind = "CONFLICT"
	KindForbidden       Kind = "FORBIDDEN"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindPaymentRequired Kind = "PAYMENT_REQUIRED"
)

// Error is a business failure that maps to a client-facing response.
// Two Errors match under errors.Is when their kind and message agree, so a
// sentinel still matches after WithDetails.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// WithDetails returns a copy of the error carrying extra payload.
func (e *Error) WithDetails(details interface{}) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Details: details}
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrDuplicateUTR      = newError(KindValidation, "This UTR number has already been submitted")
	ErrCoursesNotFound   = newError(KindValidation, "One or more courses not found")
	ErrCourseNotFound    = newError(KindNotFound, "Course not found")
	ErrAlreadyEnrolled   = newError(KindConflict, "Already enrolled in one or more courses")
	// ErrAlreadyPurchased rejects an order body, so it is a validation failure
	ErrAlreadyPurchased  = newError(KindValidation, "Already enrolled in one or more courses")
	ErrCouponUnavailable = newError(KindValidation, "Invalid or expired coupon code")
	ErrCouponExists      = newError(KindConflict, "Coupon code already exists")
	ErrCouponNotFound    = newError(KindNotFound, "Coupon not found")
	ErrPaymentNotFound   = newError(KindNotFound, "Payment not found")
	ErrInvalidState      = newError(KindInvalidState, "Payment is not awaiting this transition")
	ErrNotEnrolled       = newError(KindForbidden, "Not enrolled in this course")
	ErrEnrollmentMissing = newError(KindNotFound, "Enrollment not found")
	ErrLessonNotFound    = newError(KindNotFound, "Lesson not found")
	ErrModuleNotFound    = newError(KindNotFound, "Module not found")
	ErrPaymentRequired   = newError(KindPaymentRequired, "This course requires payment")
	ErrCourseInUse       = newError(KindConflict, "Course has enrollments or payments and cannot be deleted")
	ErrAlreadyInCart     = newError(KindConflict, "Course already in cart")
	ErrNotInCart         = newError(KindNotFound, "Item not found in cart")
	ErrAlreadyInWishlist = newError(KindConflict, "Course already in wishlist")
	ErrNotInWishlist     = newError(KindNotFound, "Item not found in wishlist")
	ErrAlreadyReviewed   = newError(KindConflict, "You have already reviewed this course")
	ErrCertificateAbsent = newError(KindNotFound, "Certificate not found")
	ErrEmailTaken        = newError(KindConflict, "Email already registered")
	ErrBadCredentials    = newError(KindUnauthorized, "Invalid credentials")
	ErrUserNotFound      = newError(KindNotFound, "User not found")
	ErrEmptyCart         = newError(KindValidation, "No courses selected")
	ErrGatewayDisabled   = newError(KindInvalidState, "Card payments are not configured")
)

// KindOf returns the business kind of err, or "" for unexpected failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
