package services

import (
	"context"
	"cyberdravida/config"
	"cyberdravida/database"
	"cyberdravida/utils"
	"time"

	"gorm.io/gorm"
)

const (
	RedeemOnSubmit = "submit"
	RedeemOnVerify = "verify"
)

// Options are the knobs shared by every service
type Options struct {
	Now            func() time.Time
	Tx             database.TxOptions
	Currency       string
	CouponRedeemOn string
	FrontendURL    string
	JWTKey         string
	JWTExpiry      time.Duration
	SaltRound      int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Now:            func() time.Time { return time.Now().UTC() },
		Tx:             database.TxOptions{MaxRetries: cfg.Database.TxRetries},
		Currency:       cfg.Currency,
		CouponRedeemOn: cfg.CouponRedeemOn,
		FrontendURL:    cfg.FrontendURL,
		JWTKey:         cfg.JWTKey,
		JWTExpiry:      cfg.JWTExpiry,
		SaltRound:      cfg.SaltRound,
	}
}

type base struct {
	db   *gorm.DB
	opts Options
}

func newBase(db *gorm.DB, opts Options) base {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.CouponRedeemOn == "" {
		opts.CouponRedeemOn = RedeemOnSubmit
	}
	return base{db: db, opts: opts}
}

func (b base) now() time.Time {
	return b.opts.Now()
}

func (b base) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return database.WithTransaction(ctx, b.db, b.opts.Tx, fn)
}

// Services bundles every service over one database handle
type Services struct {
	Auth         *AuthService
	Catalog      *CatalogService
	Cart         *CartService
	Coupons      *CouponService
	Payments     *PaymentService
	Enrollments  *EnrollmentService
	Certificates *CertificateService
	Dashboard    *DashboardService
}

// New wires the services. gateway may be nil when card payments are off.
func New(db *gorm.DB, opts Options, gateway CheckoutGateway) *Services {
	certs := NewCertificateService(db, opts)
	coupons := NewCouponService(db, opts)
	return &Services{
		Auth:         NewAuthService(db, opts),
		Catalog:      NewCatalogService(db, opts),
		Cart:         NewCartService(db, opts),
		Coupons:      coupons,
		Payments:     NewPaymentService(db, opts, coupons, gateway),
		Enrollments:  NewEnrollmentService(db, opts, certs),
		Certificates: certs,
		Dashboard:    NewDashboardService(db, opts),
	}
}

// Pagination is returned with every paged listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: utils.TotalPages(total, limit)}
}
