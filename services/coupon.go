package services

import (
	"context"
	"cyberdravida/database"
	"cyberdravida/models"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CouponService struct {
	base
}

func NewCouponService(db *gorm.DB, opts Options) *CouponService {
	return &CouponService{base: newBase(db, opts)}
}

// CouponQuote is what a client sees when checking a code
type CouponQuote struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discount_percent"`
}

type CouponInput struct {
	Code            string
	DiscountPercent int
	ExpiresAt       *time.Time
	UsageLimit      *int
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a code without consuming it
func (s *CouponService) Validate(ctx context.Context, code string) (*CouponQuote, error) {
	coupon, err := s.lookup(s.db.WithContext(ctx), code)
	if err != nil {
		return nil, err
	}
	return &CouponQuote{Code: coupon.Code, DiscountPercent: coupon.DiscountPercent}, nil
}

func (s *CouponService) lookup(tx *gorm.DB, code string) (*models.Coupon, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, ErrCouponUnavailable
	}
	var coupon models.Coupon
	if err := tx.Where("code = ?", code).First(&coupon).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCouponUnavailable
		}
		return nil, errors.Wrap(err, "load coupon")
	}
	if !coupon.Redeemable(s.now()) {
		return nil, ErrCouponUnavailable
	}
	return &coupon, nil
}

// Redeem consumes one use of the coupon inside tx. The increment is
// conditional on the usage limit so concurrent redemptions cannot overshoot.
func (s *CouponService) Redeem(tx *gorm.DB, code string) (*models.Coupon, error) {
	coupon, err := s.lookup(tx, code)
	if err != nil {
		return nil, err
	}
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", coupon.ID, true).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "redeem coupon")
	}
	if res.RowsAffected == 0 {
		return nil, ErrCouponUnavailable
	}
	coupon.UsageCount++
	return coupon, nil
}

func (s *CouponService) Create(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	code := normalizeCode(in.Code)
	if code == "" {
		return nil, newError(KindValidation, "Coupon code is required")
	}
	if in.DiscountPercent < 1 || in.DiscountPercent > 100 {
		return nil, newError(KindValidation, "Discount must be between 1 and 100")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return nil, newError(KindValidation, "Usage limit must be positive")
	}

	coupon := models.Coupon{
		Code:            code,
		DiscountPercent: in.DiscountPercent,
		ExpiresAt:       in.ExpiresAt,
		UsageLimit:      in.UsageLimit,
		IsActive:        true,
	}
	if err := s.db.WithContext(ctx).Create(&coupon).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrCouponExists
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	return &coupon, nil
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return coupons, nil
}

func (s *CouponService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete coupon")
	}
	if res.RowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// DeactivateExpired switches off active coupons whose expiry has passed
func (s *CouponService) DeactivateExpired(ctx context.Context) (int64, error) {
	var ids []uint
	var active []models.Coupon
	if err := s.db.WithContext(ctx).Where("is_active = ? AND expires_at IS NOT NULL", true).Find(&active).Error; err != nil {
		return 0, errors.Wrap(err, "load active coupons")
	}
	at := s.now()
	for _, c := range active {
		if !c.ExpiresAt.After(at) {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Coupon{}).Where("id IN ?", ids).Update("is_active", false)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deactivate coupons")
	}
	return res.RowsAffected, nil
}
