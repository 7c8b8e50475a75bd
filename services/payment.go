package services

import (
	"context"
	"cyberdravida/database"
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutGateway opens hosted card checkouts
type CheckoutGateway interface {
	CreateCheckoutSession(req utils.CheckoutSessionRequest) (*utils.CheckoutSession, error)
}

type PaymentService struct {
	base
	coupons *CouponService
	gateway CheckoutGateway
}

func NewPaymentService(db *gorm.DB, opts Options, coupons *CouponService, gateway CheckoutGateway) *PaymentService {
	return &PaymentService{base: newBase(db, opts), coupons: coupons, gateway: gateway}
}

type SubmitUTRInput struct {
	CourseIDs     []uint
	UTRNumber     string
	TransactionID string
	Amount        *decimal.Decimal // what the student claims to have paid
	CouponCode    string
}

type CheckoutInput struct {
	CourseIDs  []uint
	CouponCode string
}

type CourseLine struct {
	ID    uint            `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// CheckoutResult tells the client where to pay. Mock is set when no card
// gateway is configured and the payment must be completed via mock-complete.
type CheckoutResult struct {
	PaymentID   uint            `json:"payment_id"`
	SessionID   string          `json:"session_id,omitempty"`
	URL         string          `json:"url,omitempty"`
	Mock        bool            `json:"mock_payment"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Courses     []CourseLine    `json:"courses"`
}

// PaymentView is a payment with its items and buyer
type PaymentView struct {
	models.Payment
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

type order struct {
	courses  []courseModels.Course
	original decimal.Decimal
	percent  int
	coupon   string
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// prepareOrder runs the checks shared by both payment flows. Nothing is
// written unless redeem is set, in which case the coupon use is counted now.
func (s *PaymentService) prepareOrder(tx *gorm.DB, userID uint, courseIDs []uint, couponCode string, redeem bool) (*order, error) {
	var courses []courseModels.Course
	if err := tx.Where("id IN ? AND is_published = ?", courseIDs, true).Order("id").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "load courses")
	}
	if len(courses) != len(courseIDs) {
		return nil, ErrCoursesNotFound
	}

	enrolled, err := enrolledCourseIDs(tx, userID, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "check enrollments")
	}
	if len(enrolled) > 0 {
		return nil, ErrAlreadyPurchased.WithDetails(map[string]interface{}{"enrolled_courses": enrolled})
	}

	o := &order{courses: courses, original: decimal.Zero}
	for _, c := range courses {
		o.original = o.original.Add(c.Price)
	}

	if code := normalizeCode(couponCode); code != "" {
		var coupon *models.Coupon
		if redeem {
			coupon, err = s.coupons.Redeem(tx, code)
		} else {
			coupon, err = s.coupons.lookup(tx, code)
		}
		if err != nil {
			return nil, err
		}
		o.percent = coupon.DiscountPercent
		o.coupon = coupon.Code
	}
	return o, nil
}

func (o *order) discounted() decimal.Decimal {
	if o.percent == 0 {
		return o.original
	}
	discount := o.original.Mul(decimal.NewFromInt(int64(o.percent))).Div(decimal.NewFromInt(100)).Round(2)
	return o.original.Sub(discount)
}

func (s *PaymentService) createPayment(tx *gorm.DB, userID uint, o *order, payment *models.Payment) error {
	payment.UserID = userID
	payment.OriginalAmount = o.original
	payment.DiscountPercent = o.percent
	payment.Currency = s.opts.Currency
	if o.coupon != "" {
		code := o.coupon
		payment.CouponCode = &code
	}
	for _, c := range o.courses {
		payment.Items = append(payment.Items, models.PaymentItem{CourseID: c.ID, Price: c.Price, CourseTitle: c.Title})
	}
	return tx.Create(payment).Error
}

// SubmitUTR records a manual UPI transfer awaiting admin verification
func (s *PaymentService) SubmitUTR(ctx context.Context, userID uint, in SubmitUTRInput) (*models.Payment, error) {
	courseIDs := uniqueIDs(in.CourseIDs)
	utr := strings.TrimSpace(in.UTRNumber)
	txnID := strings.TrimSpace(in.TransactionID)
	if len(courseIDs) == 0 {
		return nil, ErrEmptyCart
	}
	if utr == "" || txnID == "" {
		return nil, newError(KindValidation, "UTR number and transaction ID are required")
	}

	var payment models.Payment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.Payment{}).Where("utr_number = ?", utr).Count(&dup).Error; err != nil {
			return errors.Wrap(err, "check utr")
		}
		if dup > 0 {
			return ErrDuplicateUTR
		}

		o, err := s.prepareOrder(tx, userID, courseIDs, in.CouponCode, s.opts.CouponRedeemOn != RedeemOnVerify)
		if err != nil {
			return err
		}

		payment = models.Payment{
			Amount:        o.discounted(),
			Status:        models.PaymentStatusPendingVerification,
			Method:        models.PaymentMethodUPI,
			UTRNumber:     &utr,
			TransactionID: txnID,
		}
		if in.Amount != nil && in.Amount.IsPositive() {
			payment.Amount = in.Amount.Round(2)
		}
		if err := s.createPayment(tx, userID, o, &payment); err != nil {
			if database.IsDuplicate(err) {
				return ErrDuplicateUTR
			}
			return errors.Wrap(err, "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[PAYMENT] UTR %s submitted by user %d for payment %d", utr, userID, payment.ID)
	return &payment, nil
}

// CreateCheckout opens a card payment for the courses
func (s *PaymentService) CreateCheckout(ctx context.Context, user *models.User, in CheckoutInput) (*CheckoutResult, error) {
	courseIDs := uniqueIDs(in.CourseIDs)
	if len(courseIDs) == 0 {
		return nil, ErrEmptyCart
	}

	var payment models.Payment
	var o *order
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		// Card orders count the coupon only once the money arrives
		o, err = s.prepareOrder(tx, user.ID, courseIDs, in.CouponCode, false)
		if err != nil {
			return err
		}
		payment = models.Payment{
			Amount: o.discounted(),
			Status: models.PaymentStatusPending,
			Method: models.PaymentMethodCard,
		}
		if err := s.createPayment(tx, user.ID, o, &payment); err != nil {
			return errors.Wrap(err, "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{PaymentID: payment.ID, TotalAmount: payment.Amount}
	for _, c := range o.courses {
		result.Courses = append(result.Courses, CourseLine{ID: c.ID, Title: c.Title, Price: c.Price})
	}

	if s.gateway == nil {
		result.Mock = true
		return result, nil
	}

	titles := make([]string, 0, len(o.courses))
	for _, c := range o.courses {
		titles = append(titles, c.Title)
	}
	session, err := s.gateway.CreateCheckoutSession(utils.CheckoutSessionRequest{
		PaymentID:     payment.ID,
		CustomerEmail: user.Email,
		Description:   strings.Join(titles, ", "),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		SuccessURL:    fmt.Sprintf("%s/checkout/success?session_id={CHECKOUT_SESSION_ID}&payment_id=%d", s.opts.FrontendURL, payment.ID),
		CancelURL:     s.opts.FrontendURL + "/cart",
	})
	if err != nil {
		log.Printf("[PAYMENT] Checkout session for payment %d failed: %v", payment.ID, err)
		return nil, errors.Wrap(err, "create checkout session")
	}

	if err := s.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("gateway_session_id", session.ID).Error; err != nil {
		return nil, errors.Wrap(err, "store checkout session")
	}
	result.SessionID = session.ID
	result.URL = session.URL
	return result, nil
}

// transition moves a payment from one status to the next exactly once.
// Zero affected rows means either no such payment or a lost race.
func transition(tx *gorm.DB, paymentID uint, from models.PaymentStatus, updates map[string]interface{}) error {
	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Updates(updates)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update payment status")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var current models.Payment
	if err := tx.Select("id", "status").Where("id = ?", paymentID).First(&current).Error; err != nil {
		if database.IsNotFound(err) {
			return ErrPaymentNotFound
		}
		return errors.Wrap(err, "load payment")
	}
	return ErrInvalidState.WithDetails(map[string]interface{}{"status": current.Status})
}

// fulfil grants every purchased course and empties the buyer's cart
func (s *PaymentService) fulfil(tx *gorm.DB, paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := tx.Preload("Items").Where("id = ?", paymentID).First(&payment).Error; err != nil {
		return nil, errors.Wrap(err, "load payment")
	}

	courseIDs := make([]uint, 0, len(payment.Items))
	for _, item := range payment.Items {
		courseIDs = append(courseIDs, item.CourseID)
	}
	created, err := grantEnrollments(tx, payment.UserID, courseIDs, s.now())
	if err != nil {
		return nil, err
	}

	if err := tx.Where("user_id = ?", payment.UserID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	redeemNow := s.opts.CouponRedeemOn == RedeemOnVerify || payment.Method == models.PaymentMethodCard
	if redeemNow && payment.CouponCode != nil {
		// Money has already arrived, so an exhausted coupon only gets logged
		res := tx.Model(&models.Coupon{}).
			Where("code = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", *payment.CouponCode).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "redeem coupon")
		}
		if res.RowsAffected == 0 {
			log.Printf("[PAYMENT] Coupon %s exhausted before payment %d was completed", *payment.CouponCode, payment.ID)
		}
	}

	log.Printf("[PAYMENT] Payment %d completed, %d new enrollments for user %d", payment.ID, created, payment.UserID)
	return &payment, nil
}

// Verify approves a UTR submission and unlocks its courses
func (s *PaymentService) Verify(ctx context.Context, paymentID, adminID uint) (*models.Payment, error) {
	var payment *models.Payment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		at := s.now()
		if err := transition(tx, paymentID, models.PaymentStatusPendingVerification, map[string]interface{}{
			"status":      models.PaymentStatusCompleted,
			"verified_by": adminID,
			"verified_at": at,
		}); err != nil {
			return err
		}
		var err error
		payment, err = s.fulfil(tx, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PAYMENT] Payment %d verified by admin %d", paymentID, adminID)
	return payment, nil
}

// Reject closes a UTR submission without granting anything
func (s *PaymentService) Reject(ctx context.Context, paymentID, adminID uint, reason string) (*models.Payment, error) {
	var payment models.Payment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := transition(tx, paymentID, models.PaymentStatusPendingVerification, map[string]interface{}{
			"status":           models.PaymentStatusRejected,
			"verified_by":      adminID,
			"verified_at":      s.now(),
			"rejection_reason": strings.TrimSpace(reason),
		}); err != nil {
			return err
		}
		return tx.Preload("Items").Where("id = ?", paymentID).First(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PAYMENT] Payment %d rejected by admin %d", paymentID, adminID)
	return &payment, nil
}

// CompleteGatewayPayment settles a pending card payment
func (s *PaymentService) CompleteGatewayPayment(ctx context.Context, paymentID uint, gatewayPaymentID string) (*models.Payment, error) {
	var payment *models.Payment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := transition(tx, paymentID, models.PaymentStatusPending, map[string]interface{}{
			"status":             models.PaymentStatusCompleted,
			"gateway_payment_id": gatewayPaymentID,
		}); err != nil {
			return err
		}
		var err error
		payment, err = s.fulfil(tx, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CompleteMock settles the caller's own pending payment when no gateway is set
func (s *PaymentService) CompleteMock(ctx context.Context, userID, paymentID uint) (*models.Payment, error) {
	if s.gateway != nil {
		return nil, newError(KindForbidden, "Mock payments are disabled while a card gateway is configured")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND user_id = ?", paymentID, userID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "load payment")
	}
	if count == 0 {
		return nil, ErrPaymentNotFound
	}
	return s.CompleteGatewayPayment(ctx, paymentID, fmt.Sprintf("mock_%d", s.now().UnixMilli()))
}

// HandleCheckoutEvent applies a verified gateway webhook. Redelivery of an
// already settled session is acknowledged without side effects.
func (s *PaymentService) HandleCheckoutEvent(ctx context.Context, event *utils.CheckoutCompletedEvent) error {
	if event.Type != "checkout.session.completed" {
		return nil
	}
	paymentID, err := event.PaymentID()
	if err != nil {
		return newError(KindValidation, "%s", err.Error())
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).Select("id", "gateway_session_id").Where("id = ?", paymentID).First(&payment).Error; err != nil {
		if database.IsNotFound(err) {
			return ErrPaymentNotFound
		}
		return errors.Wrap(err, "load payment")
	}
	// A payment without a stored session never reached the gateway through us
	if payment.GatewaySessionID == "" || payment.GatewaySessionID != event.Session.ID {
		return newError(KindValidation, "Checkout session does not match payment")
	}

	_, err = s.CompleteGatewayPayment(ctx, paymentID, event.Session.PaymentIntent)
	if errors.Is(err, ErrInvalidState) {
		return nil
	}
	return err
}

// Reconcile re-derives enrollments for completed payments that lack them
func (s *PaymentService) Reconcile(ctx context.Context) (int, error) {
	type missing struct {
		UserID   uint
		CourseID uint
	}
	var rows []missing
	if err := s.db.WithContext(ctx).Table("payment_items").
		Select("payments.user_id AS user_id, payment_items.course_id AS course_id").
		Joins("JOIN payments ON payments.id = payment_items.payment_id").
		Joins("LEFT JOIN enrollments ON enrollments.user_id = payments.user_id AND enrollments.course_id = payment_items.course_id").
		Where("payments.status = ? AND enrollments.id IS NULL", models.PaymentStatusCompleted).
		Scan(&rows).Error; err != nil {
		return 0, errors.Wrap(err, "find missing enrollments")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	byUser := make(map[uint][]uint)
	for _, r := range rows {
		byUser[r.UserID] = append(byUser[r.UserID], r.CourseID)
	}
	users := make([]uint, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	repaired := 0
	for _, userID := range users {
		courseIDs := uniqueIDs(byUser[userID])
		var n int
		err := s.transaction(ctx, func(tx *gorm.DB) error {
			var err error
			if n, err = grantEnrollments(tx, userID, courseIDs, s.now()); err != nil {
				return err
			}
			return tx.Where("user_id = ? AND course_id IN ?", userID, courseIDs).Delete(&models.CartItem{}).Error
		})
		if err != nil {
			return repaired, err
		}
		repaired += n
		log.Printf("[PAYMENT] Reconciled %d enrollments for user %d", n, userID)
	}
	return repaired, nil
}

func (s *PaymentService) decorate(db *gorm.DB, payments []models.Payment, withUser bool) ([]PaymentView, error) {
	courseIDs := make([]uint, 0)
	userIDs := make([]uint, 0)
	for _, p := range payments {
		userIDs = append(userIDs, p.UserID)
		for _, item := range p.Items {
			courseIDs = append(courseIDs, item.CourseID)
		}
	}

	titles := make(map[uint]string)
	if len(courseIDs) > 0 {
		var courses []courseModels.Course
		if err := db.Select("id", "title").Where("id IN ?", uniqueIDs(courseIDs)).Find(&courses).Error; err != nil {
			return nil, err
		}
		for _, c := range courses {
			titles[c.ID] = c.Title
		}
	}

	buyers := make(map[uint]models.User)
	if withUser && len(userIDs) > 0 {
		var users []models.User
		if err := db.Select("id", "name", "email").Where("id IN ?", uniqueIDs(userIDs)).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			buyers[u.ID] = u
		}
	}

	views := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		for i := range p.Items {
			p.Items[i].CourseTitle = titles[p.Items[i].CourseID]
		}
		v := PaymentView{Payment: p}
		if u, ok := buyers[p.UserID]; ok {
			v.UserName = u.Name
			v.UserEmail = u.Email
		}
		views = append(views, v)
	}
	return views, nil
}

// ListByStatus pages through all payments, optionally filtered by status
func (s *PaymentService) ListByStatus(ctx context.Context, status string, page, limit int) ([]PaymentView, Pagination, error) {
	db := s.db.WithContext(ctx)
	page, limit, offset := utils.ParsePage(page, limit, 20, 100)

	q := db.Model(&models.Payment{})
	if status != "" {
		if !models.PaymentStatus(status).Valid() {
			return nil, Pagination{}, newError(KindValidation, "Unknown payment status %q", status)
		}
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "count payments")
	}
	var payments []models.Payment
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, Pagination{}, errors.Wrap(err, "list payments")
	}
	views, err := s.decorate(db, payments, true)
	if err != nil {
		return nil, Pagination{}, errors.Wrap(err, "decorate payments")
	}
	return views, newPagination(page, limit, total), nil
}

// ListPending returns the verification queue, oldest first
func (s *PaymentService) ListPending(ctx context.Context) ([]PaymentView, error) {
	db := s.db.WithContext(ctx)
	var payments []models.Payment
	if err := db.Preload("Items").
		Where("status = ?", models.PaymentStatusPendingVerification).
		Order("created_at ASC, id ASC").
		Find(&payments).Error; err != nil {
		return nil, errors.Wrap(err, "list pending payments")
	}
	views, err := s.decorate(db, payments, true)
	if err != nil {
		return nil, errors.Wrap(err, "decorate payments")
	}
	return views, nil
}

func (s *PaymentService) ListByUser(ctx context.Context, userID uint) ([]PaymentView, error) {
	db := s.db.WithContext(ctx)
	var payments []models.Payment
	if err := db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, errors.Wrap(err, "list user payments")
	}
	views, err := s.decorate(db, payments, false)
	if err != nil {
		return nil, errors.Wrap(err, "decorate payments")
	}
	return views, nil
}

func (s *PaymentService) get(ctx context.Context, scope func(*gorm.DB) *gorm.DB, withUser bool) (*PaymentView, error) {
	db := s.db.WithContext(ctx)
	var payment models.Payment
	if err := scope(db.Preload("Items")).First(&payment).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, errors.Wrap(err, "load payment")
	}
	views, err := s.decorate(db, []models.Payment{payment}, withUser)
	if err != nil {
		return nil, errors.Wrap(err, "decorate payment")
	}
	return &views[0], nil
}

// GetForUser returns a payment only to its owner
func (s *PaymentService) GetForUser(ctx context.Context, paymentID, userID uint) (*PaymentView, error) {
	return s.get(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND user_id = ?", paymentID, userID)
	}, false)
}

func (s *PaymentService) Get(ctx context.Context, paymentID uint) (*PaymentView, error) {
	return s.get(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", paymentID)
	}, true)
}
