package utils

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

// Reconciler repairs completed payments that are missing enrollments
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// CouponExpirer switches off coupons past their expiry
type CouponExpirer interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// RunReconciliation performs one reconciliation pass
func RunReconciliation(ctx context.Context, r Reconciler) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	repaired, err := r.Reconcile(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] Reconciliation failed: %v", err)
		return
	}
	if repaired > 0 {
		log.Printf("[SCHEDULER] Reconciliation restored %d enrollments", repaired)
	}
}

// RunCouponExpiry performs one coupon expiry pass
func RunCouponExpiry(ctx context.Context, e CouponExpirer) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	n, err := e.DeactivateExpired(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] Coupon expiry failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[SCHEDULER] Deactivated %d expired coupons", n)
	}
}

// InitializeMaintenanceScheduler registers the maintenance jobs and starts
// the cron runner. Callers stop it on shutdown.
func InitializeMaintenanceScheduler(ctx context.Context, reconcileSpec, couponSpec string, r Reconciler, e CouponExpirer) (*cron.Cron, error) {
	log.Println("[SCHEDULER] Initializing maintenance scheduler...")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger), cron.Recover(cron.DefaultLogger)))

	if _, err := c.AddFunc(reconcileSpec, func() {
		log.Println("[SCHEDULER] Running enrollment reconciliation...")
		RunReconciliation(ctx, r)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(couponSpec, func() {
		log.Println("[SCHEDULER] Running coupon expiry...")
		RunCouponExpiry(ctx, e)
	}); err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[SCHEDULER] Maintenance scheduler started - reconcile %q, coupon expiry %q", reconcileSpec, couponSpec)
	return c, nil
}
