package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, svc *Services, userID uint, utr string, couponCode string, courseIDs ...uint) (*models.Payment, error) {
	t.Helper()
	return svc.Payments.SubmitUTR(context.Background(), userID, SubmitUTRInput{
		CourseIDs:     courseIDs,
		UTRNumber:     utr,
		TransactionID: "TXN-" + utr,
		CouponCode:    couponCode,
	})
}

func TestSubmitUTRCreatesPendingPayment(t *testing.T) {
	svc, db := newTestServices(t)
	student := createUser(t, db, "s1@example.com", models.RoleStudent)
	a, _ := createCourse(t, db, "A", 1000, 1)
	b, _ := createCourse(t, db, "B", 500, 1)

	payment, err := submit(t, svc, student.ID, "123456789012", "", a.ID, b.ID, a.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPendingVerification, payment.Status)
	assert.True(t, decimal.NewFromInt(1500).Equal(payment.Amount))
	assert.True(t, decimal.NewFromInt(1500).Equal(payment.OriginalAmount))
	assert.Len(t, payment.Items, 2, "duplicate course ids collapse")
	assert.Equal(t, int64(0), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))
}

func TestSubmitUTRRejectsDuplicateAcrossUsersAndStatuses(t *testing.T) {
	svc, db := newTestServices(t)
	first := createUser(t, db, "first@example.com", models.RoleStudent)
	second := createUser(t, db, "second@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1000, 1)
	other, _ := createCourse(t, db, "B", 1000, 1)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)

	payment, err := submit(t, svc, first.ID, "UTR000000001", "", course.ID)
	require.NoError(t, err)

	_, err = submit(t, svc, second.ID, "UTR000000001", "", course.ID)
	assert.ErrorIs(t, err, ErrDuplicateUTR)

	_, err = svc.Payments.Reject(context.Background(), payment.ID, admin.ID, "bad reference")
	require.NoError(t, err)

	_, err = submit(t, svc, first.ID, "UTR000000001", "", other.ID)
	assert.ErrorIs(t, err, ErrDuplicateUTR, "a rejected payment still owns its UTR")
	assert.Equal(t, int64(1), countRows(t, db, &models.Payment{}, "utr_number = ?", "UTR000000001"))
}

func TestSubmitUTRValidatesCourses(t *testing.T) {
	svc, db := newTestServices(t)
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1000, 1)
	hidden, _ := createCourse(t, db, "Hidden", 1000, 1)
	require.NoError(t, db.Model(hidden).Update("is_published", false).Error)

	_, err := submit(t, svc, student.ID, "UTR000000002", "", course.ID, 9999)
	assert.ErrorIs(t, err, ErrCoursesNotFound)

	_, err = submit(t, svc, student.ID, "UTR000000003", "", hidden.ID)
	assert.ErrorIs(t, err, ErrCoursesNotFound)

	require.NoError(t, db.Create(&courseModels.Enrollment{UserID: student.ID, CourseID: course.ID, EnrolledAt: testClock}).Error)
	_, err = submit(t, svc, student.ID, "UTR000000004", "", course.ID)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	_, err = submit(t, svc, student.ID, "UTR000000005", "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Equal(t, int64(0), countRows(t, db, &models.Payment{}, "user_id = ?", student.ID), "no partial orders")
}

func TestVerifyGrantsEnrollmentsOnce(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	a, _ := createCourse(t, db, "A", 1000, 1)
	b, _ := createCourse(t, db, "B", 800, 1)

	payment, err := submit(t, svc, student.ID, "UTR000000010", "", a.ID, b.ID)
	require.NoError(t, err)

	verified, err := svc.Payments.Verify(ctx, payment.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, admin.ID, *verified.VerifiedBy)

	assert.Equal(t, int64(2), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))
	assert.Equal(t, 1, reloadCourse(t, db, a.ID).EnrollmentCount)

	_, err = svc.Payments.Verify(ctx, payment.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, reloadCourse(t, db, a.ID).EnrollmentCount, "second verify changes nothing")
	assert.Equal(t, int64(2), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))

	_, err = svc.Payments.Reject(ctx, payment.ID, admin.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Payments.Verify(ctx, 4242, admin.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestVerifyKeepsExistingEnrollment(t *testing.T) {
	svc, db := newTestServices(t)
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	a, _ := createCourse(t, db, "A", 1000, 1)
	b, _ := createCourse(t, db, "B", 1000, 1)

	payment, err := submit(t, svc, student.ID, "UTR000000011", "", a.ID, b.ID)
	require.NoError(t, err)

	// Enrolled some other way while the payment waited for review
	require.NoError(t, db.Create(&courseModels.Enrollment{UserID: student.ID, CourseID: a.ID, EnrolledAt: testClock, Progress: 40}).Error)

	_, err = svc.Payments.Verify(context.Background(), payment.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRows(t, db, &courseModels.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, a.ID))
	assert.Equal(t, int64(1), countRows(t, db, &courseModels.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, b.ID))
	assert.Equal(t, 0, reloadCourse(t, db, a.ID).EnrollmentCount, "existing enrollment does not bump the counter")
	assert.Equal(t, 1, reloadCourse(t, db, b.ID).EnrollmentCount)

	var kept courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, a.ID).First(&kept).Error)
	assert.Equal(t, 40.0, kept.Progress)
}

func TestCartLifecycleAcrossPaymentStates(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	a, _ := createCourse(t, db, "A", 1000, 1)
	b, _ := createCourse(t, db, "B", 1000, 1)
	addToCart(t, db, student.ID, a.ID)
	addToCart(t, db, student.ID, b.ID)

	rejected, err := submit(t, svc, student.ID, "UTR000000020", "", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), countRows(t, db, &models.CartItem{}, "user_id = ?", student.ID), "submit leaves the cart alone")

	_, err = svc.Payments.Reject(ctx, rejected.ID, admin.ID, "not received")
	require.NoError(t, err)
	assert.Equal(t, int64(2), countRows(t, db, &models.CartItem{}, "user_id = ?", student.ID), "reject leaves the cart alone")
	assert.Equal(t, int64(0), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))

	payment, err := submit(t, svc, student.ID, "UTR000000021", "", a.ID)
	require.NoError(t, err)
	_, err = svc.Payments.Verify(ctx, payment.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), countRows(t, db, &models.CartItem{}, "user_id = ?", student.ID), "verify clears the whole cart")
}

func TestConcurrentVerifySucceedsOnce(t *testing.T) {
	svc, db := newTestServices(t)
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	course, _ := createCourse(t, db, "A", 1000, 1)

	payment, err := submit(t, svc, student.ID, "UTR000000030", "", course.ID)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Payments.Verify(context.Background(), payment.ID, admin.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, reloadCourse(t, db, course.ID).EnrollmentCount)
}

func TestCouponRedeemedOnSubmit(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	first := createUser(t, db, "a@example.com", models.RoleStudent)
	second := createUser(t, db, "b@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1000, 1)

	limit := 1
	_, err := svc.Coupons.Create(ctx, CouponInput{Code: "save50", DiscountPercent: 50, UsageLimit: &limit})
	require.NoError(t, err)

	payment, err := submit(t, svc, first.ID, "UTR000000040", "SAVE50", course.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(payment.Amount))
	assert.True(t, decimal.NewFromInt(1000).Equal(payment.OriginalAmount))
	assert.Equal(t, 50, payment.DiscountPercent)

	var coupon models.Coupon
	require.NoError(t, db.Where("code = ?", "SAVE50").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsageCount, "counted at submission, before any verification")

	_, err = submit(t, svc, second.ID, "UTR000000041", "save50", course.ID)
	assert.ErrorIs(t, err, ErrCouponUnavailable)
	assert.Equal(t, int64(0), countRows(t, db, &models.Payment{}, "user_id = ?", second.ID))

	_, err = svc.Coupons.Validate(ctx, "SAVE50")
	assert.ErrorIs(t, err, ErrCouponUnavailable)
}

func TestCouponRedeemedOnVerify(t *testing.T) {
	db := newTestDB(t)
	opts := testOptions()
	opts.CouponRedeemOn = RedeemOnVerify
	svc := New(db, opts, nil)
	ctx := context.Background()

	student := createUser(t, db, "s@example.com", models.RoleStudent)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	course, _ := createCourse(t, db, "A", 999, 1)
	_, err := svc.Coupons.Create(ctx, CouponInput{Code: "TENOFF", DiscountPercent: 10})
	require.NoError(t, err)

	payment, err := submit(t, svc, student.ID, "UTR000000050", "tenoff", course.ID)
	require.NoError(t, err)
	assert.Equal(t, "899.1", payment.Amount.String())

	var coupon models.Coupon
	require.NoError(t, db.Where("code = ?", "TENOFF").First(&coupon).Error)
	assert.Equal(t, 0, coupon.UsageCount)

	_, err = svc.Payments.Verify(ctx, payment.ID, admin.ID)
	require.NoError(t, err)
	require.NoError(t, db.Where("code = ?", "TENOFF").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsageCount)
}

type fakeGateway struct {
	requests []utils.CheckoutSessionRequest
	err      error
}

func (f *fakeGateway) CreateCheckoutSession(req utils.CheckoutSessionRequest) (*utils.CheckoutSession, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &utils.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func checkoutEvent(paymentID string, sessionID string) *utils.CheckoutCompletedEvent {
	event := &utils.CheckoutCompletedEvent{Type: "checkout.session.completed"}
	event.Session.ID = sessionID
	event.Session.PaymentIntent = "pi_1"
	event.Session.ClientReferenceID = paymentID
	return event
}

func TestCheckoutWithGatewayAndWebhook(t *testing.T) {
	db := newTestDB(t)
	gateway := &fakeGateway{}
	svc := New(db, testOptions(), gateway)
	ctx := context.Background()

	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1200, 1)
	addToCart(t, db, student.ID, course.ID)

	result, err := svc.Payments.CreateCheckout(ctx, student, CheckoutInput{CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	assert.False(t, result.Mock)
	assert.Equal(t, "cs_test_1", result.SessionID)
	require.Len(t, gateway.requests, 1)
	assert.Equal(t, student.Email, gateway.requests[0].CustomerEmail)
	assert.True(t, decimal.NewFromInt(1200).Equal(gateway.requests[0].Amount))

	_, err = svc.Payments.CompleteMock(ctx, student.ID, result.PaymentID)
	assert.Equal(t, KindForbidden, KindOf(err))

	ref := decimal.NewFromInt(int64(result.PaymentID)).String()
	err = svc.Payments.HandleCheckoutEvent(ctx, checkoutEvent(ref, "cs_other"))
	assert.Equal(t, KindValidation, KindOf(err), "session id must match")

	require.NoError(t, svc.Payments.HandleCheckoutEvent(ctx, checkoutEvent(ref, "cs_test_1")))
	require.NoError(t, svc.Payments.HandleCheckoutEvent(ctx, checkoutEvent(ref, "cs_test_1")), "redelivery is acknowledged")

	var payment models.Payment
	require.NoError(t, db.First(&payment, result.PaymentID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "pi_1", payment.GatewayPaymentID)
	assert.Equal(t, int64(1), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))
	assert.Equal(t, 1, reloadCourse(t, db, course.ID).EnrollmentCount)
	assert.Equal(t, int64(0), countRows(t, db, &models.CartItem{}, "user_id = ?", student.ID))

	err = svc.Payments.HandleCheckoutEvent(ctx, checkoutEvent("987654", "cs_test_1"))
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCheckoutGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, testOptions(), &fakeGateway{err: errors.New("gateway down")})
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1200, 1)

	_, err := svc.Payments.CreateCheckout(context.Background(), student, CheckoutInput{CourseIDs: []uint{course.ID}})
	require.Error(t, err)
	assert.Equal(t, Kind(""), KindOf(err), "gateway failures are internal errors")
}

func TestMockCheckout(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	stranger := createUser(t, db, "x@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1200, 1)

	result, err := svc.Payments.CreateCheckout(ctx, student, CheckoutInput{CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	assert.True(t, result.Mock)

	_, err = svc.Payments.CompleteMock(ctx, stranger.ID, result.PaymentID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	payment, err := svc.Payments.CompleteMock(ctx, student.ID, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)

	_, err = svc.Payments.CompleteMock(ctx, student.ID, result.PaymentID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func couponUsage(t *testing.T, svc *Services, code string) int {
	t.Helper()
	var coupon models.Coupon
	require.NoError(t, svc.Coupons.db.Where("code = ?", code).First(&coupon).Error)
	return coupon.UsageCount
}

func TestCheckoutCountsCouponOnlyWhenPaid(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	first := createUser(t, db, "a@example.com", models.RoleStudent)
	second := createUser(t, db, "b@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1000, 1)

	limit := 1
	_, err := svc.Coupons.Create(ctx, CouponInput{Code: "SAVE50", DiscountPercent: 50, UsageLimit: &limit})
	require.NoError(t, err)

	abandoned, err := svc.Payments.CreateCheckout(ctx, first, CheckoutInput{CourseIDs: []uint{course.ID}, CouponCode: "SAVE50"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(abandoned.TotalAmount))
	assert.Equal(t, 0, couponUsage(t, svc, "SAVE50"), "an unpaid checkout keeps the coupon free")

	paid, err := svc.Payments.CreateCheckout(ctx, second, CheckoutInput{CourseIDs: []uint{course.ID}, CouponCode: "save50"})
	require.NoError(t, err)
	_, err = svc.Payments.CompleteMock(ctx, second.ID, paid.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 1, couponUsage(t, svc, "SAVE50"))

	// The limit is reached, the earlier session still settles without overshooting
	_, err = svc.Payments.CompleteMock(ctx, first.ID, abandoned.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 1, couponUsage(t, svc, "SAVE50"))
}

func TestCheckoutGatewayFailureKeepsCoupon(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, testOptions(), &fakeGateway{err: errors.New("gateway down")})
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1000, 1)

	limit := 1
	_, err := svc.Coupons.Create(ctx, CouponInput{Code: "ONCE", DiscountPercent: 10, UsageLimit: &limit})
	require.NoError(t, err)

	_, err = svc.Payments.CreateCheckout(ctx, student, CheckoutInput{CourseIDs: []uint{course.ID}, CouponCode: "ONCE"})
	require.Error(t, err)
	assert.Equal(t, 0, couponUsage(t, svc, "ONCE"))

	_, err = svc.Coupons.Validate(ctx, "ONCE")
	assert.NoError(t, err)
}

func TestCheckoutEventNeedsStoredSession(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	course, _ := createCourse(t, db, "A", 1200, 1)

	result, err := svc.Payments.CreateCheckout(ctx, student, CheckoutInput{CourseIDs: []uint{course.ID}})
	require.NoError(t, err)

	ref := decimal.NewFromInt(int64(result.PaymentID)).String()
	err = svc.Payments.HandleCheckoutEvent(ctx, checkoutEvent(ref, "cs_forged"))
	assert.Equal(t, KindValidation, KindOf(err))

	var payment models.Payment
	require.NoError(t, db.First(&payment, result.PaymentID).Error)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, int64(0), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))
}

func TestReconcileRestoresMissingEnrollments(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	a, _ := createCourse(t, db, "A", 1000, 1)
	b, _ := createCourse(t, db, "B", 1000, 1)

	payment, err := submit(t, svc, student.ID, "UTR000000060", "", a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.Payments.Verify(ctx, payment.ID, admin.ID)
	require.NoError(t, err)

	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, b.ID).Delete(&courseModels.Enrollment{}).Error)

	repaired, err := svc.Payments.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Equal(t, int64(2), countRows(t, db, &courseModels.Enrollment{}, "user_id = ?", student.ID))

	repaired, err = svc.Payments.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestPaymentListings(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	student := createUser(t, db, "s@example.com", models.RoleStudent)
	other := createUser(t, db, "o@example.com", models.RoleStudent)
	a, _ := createCourse(t, db, "Alpha", 1000, 1)
	b, _ := createCourse(t, db, "Beta", 1000, 1)

	p1, err := submit(t, svc, student.ID, "UTR000000070", "", a.ID)
	require.NoError(t, err)
	_, err = submit(t, svc, other.ID, "UTR000000071", "", b.ID)
	require.NoError(t, err)

	pending, err := svc.Payments.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "s@example.com", pending[0].UserEmail)
	assert.Equal(t, "Alpha", pending[0].Items[0].CourseTitle)

	views, page, err := svc.Payments.ListByStatus(ctx, "pending_verification", 1, 1)
	require.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	_, _, err = svc.Payments.ListByStatus(ctx, "refunded", 1, 10)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Payments.GetForUser(ctx, p1.ID, other.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	mine, err := svc.Payments.GetForUser(ctx, p1.ID, student.ID)
	require.NoError(t, err)
	assert.Empty(t, mine.UserEmail, "owners do not get the buyer block")
}
