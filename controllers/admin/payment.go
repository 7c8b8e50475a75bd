package adminController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	paymentValidator "cyberdravida/validators/payment"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListPayments(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPaymentList").(*paymentValidator.ListPaymentsQuery)

	payments, pagination, err := h.payments.ListByStatus(c.UserContext(), reqData.Status, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully!", fiber.Map{
		"payments":   payments,
		"pagination": pagination,
	})
}

// PendingPayments lists UTR submissions awaiting review, oldest first
func (h *Handler) PendingPayments(c *fiber.Ctx) error {
	payments, err := h.payments.ListPending(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending payments fetched successfully!", payments)
}

func (h *Handler) GetPayment(c *fiber.Ctx) error {
	payment, err := h.payments.Get(c.UserContext(), c.Locals("id").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment fetched successfully!", payment)
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	payment, err := h.payments.Verify(c.UserContext(), c.Locals("id").(uint), adminID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment verified and enrollments granted!", payment)
}

func (h *Handler) RejectPayment(c *fiber.Ctx) error {
	reqData := c.Locals("validatedReject").(*paymentValidator.RejectRequest)

	payment, err := h.payments.Reject(c.UserContext(), c.Locals("id").(uint), adminID(c), strings.TrimSpace(reqData.Reason))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment rejected!", payment)
}

func (h *Handler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.coupons.List(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupons fetched successfully!", coupons)
}

func (h *Handler) CreateCoupon(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCoupon").(*paymentValidator.CreateCouponRequest)

	coupon, err := h.coupons.Create(c.UserContext(), services.CouponInput{
		Code:            reqData.Code,
		DiscountPercent: reqData.DiscountPercent,
		ExpiresAt:       reqData.ExpiresAt,
		UsageLimit:      reqData.UsageLimit,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Coupon created successfully!", coupon)
}

func (h *Handler) DeleteCoupon(c *fiber.Ctx) error {
	if err := h.coupons.Delete(c.UserContext(), c.Locals("id").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupon deleted successfully!", nil)
}
