package paymentController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	"cyberdravida/utils"
	paymentValidator "cyberdravida/validators/payment"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WebhookParser authenticates and decodes gateway callbacks
type WebhookParser interface {
	ParseWebhook(payload []byte, signatureHeader string) (*utils.CheckoutCompletedEvent, error)
}

type Handler struct {
	payments *services.PaymentService
	coupons  *services.CouponService
	webhooks WebhookParser
}

// New builds the payment handlers. webhooks may be nil when card payments
// are not configured.
func New(svc *services.Services, webhooks WebhookParser) *Handler {
	return &Handler{payments: svc.Payments, coupons: svc.Coupons, webhooks: webhooks}
}

// SubmitUTR records a UPI transfer for admin verification
func (h *Handler) SubmitUTR(c *fiber.Ctx) error {
	reqData := c.Locals("validatedSubmitUTR").(*paymentValidator.SubmitUTRRequest)

	payment, err := h.payments.SubmitUTR(c.UserContext(), middleware.UserID(c), services.SubmitUTRInput{
		CourseIDs:     reqData.CourseIDs,
		UTRNumber:     strings.TrimSpace(reqData.UTRNumber),
		TransactionID: strings.TrimSpace(reqData.TransactionID),
		Amount:        reqData.Amount,
		CouponCode:    reqData.CouponCode,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Payment submitted for verification!", fiber.Map{
		"payment_id":      payment.ID,
		"status":          payment.Status,
		"amount":          payment.Amount,
		"original_amount": payment.OriginalAmount,
		"utr_number":      payment.UTRNumber,
	})
}

func (h *Handler) ValidateCoupon(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCouponCode").(*paymentValidator.CouponCodeRequest)

	quote, err := h.coupons.Validate(c.UserContext(), reqData.Code)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupon applied!", quote)
}

func (h *Handler) CreateCheckout(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCheckout").(*paymentValidator.CheckoutRequest)

	result, err := h.payments.CreateCheckout(c.UserContext(), middleware.CurrentUser(c), services.CheckoutInput{
		CourseIDs:  reqData.CourseIDs,
		CouponCode: reqData.CouponCode,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Checkout created!", result)
}

// MockComplete settles a checkout when no card gateway is configured
func (h *Handler) MockComplete(c *fiber.Ctx) error {
	reqData := c.Locals("validatedMockComplete").(*paymentValidator.MockCompleteRequest)

	payment, err := h.payments.CompleteMock(c.UserContext(), middleware.UserID(c), reqData.PaymentID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment completed!", payment)
}

// Webhook receives gateway events. A bad signature is a 400 so the gateway
// does not keep retrying a forged request; business failures return 500 so
// a genuine event is redelivered.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	if h.webhooks == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Card payments are not configured!", nil)
	}

	event, err := h.webhooks.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("[PAYMENT] Rejected webhook: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook signature!", nil)
	}

	if err := h.payments.HandleCheckoutEvent(c.UserContext(), event); err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) || services.KindOf(err) == services.KindValidation {
			log.Printf("[PAYMENT] Ignoring webhook %s: %v", event.Session.ID, err)
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored", fiber.Map{"received": true})
		}
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event processed", fiber.Map{"received": true})
}

func (h *Handler) History(c *fiber.Ctx) error {
	payments, err := h.payments.ListByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment history fetched successfully!", payments)
}

func (h *Handler) GetPayment(c *fiber.Ctx) error {
	payment, err := h.payments.GetForUser(c.UserContext(), c.Locals("id").(uint), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment fetched successfully!", payment)
}
