package services

import (
	"context"
	"cyberdravida/database"
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	base
}

func NewCartService(db *gorm.DB, opts Options) *CartService {
	return &CartService{base: newBase(db, opts)}
}

// CartLine is a cart or wishlist row joined with its course
type CartLine struct {
	ID             uint            `json:"id"`
	CourseID       uint            `json:"course_id"`
	AddedAt        time.Time       `json:"added_at"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Price          decimal.Decimal `json:"price"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	Thumbnail      string          `json:"thumbnail"`
	Level          string          `json:"level"`
	Duration       int             `json:"duration"`
	InstructorName string          `json:"instructor_name"`
}

type Cart struct {
	Items         []CartLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	OriginalTotal decimal.Decimal `json:"original_total"`
	Savings       decimal.Decimal `json:"savings"`
}

func lines(db *gorm.DB, table string, userID uint) ([]CartLine, error) {
	var out []CartLine
	err := db.Table(table).
		Select(table + `.id, ` + table + `.course_id, ` + table + `.added_at, courses.title, courses.slug,
			courses.price, courses.original_price, courses.thumbnail, courses.level, courses.duration,
			users.name AS instructor_name`).
		Joins("JOIN courses ON courses.id = " + table + ".course_id").
		Joins("LEFT JOIN users ON users.id = courses.instructor_id").
		Where(table+".user_id = ?", userID).
		Order(table + ".added_at DESC").
		Scan(&out).Error
	return out, err
}

func (s *CartService) Get(ctx context.Context, userID uint) (*Cart, error) {
	items, err := lines(s.db.WithContext(ctx), "cart_items", userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	cart := &Cart{Items: items, Total: decimal.Zero, OriginalTotal: decimal.Zero}
	for _, item := range items {
		cart.Total = cart.Total.Add(item.Price)
		if item.OriginalPrice.IsPositive() {
			cart.OriginalTotal = cart.OriginalTotal.Add(item.OriginalPrice)
		} else {
			cart.OriginalTotal = cart.OriginalTotal.Add(item.Price)
		}
	}
	cart.Savings = cart.OriginalTotal.Sub(cart.Total)
	return cart, nil
}

func publishedCourse(tx *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := tx.Where("id = ? AND is_published = ?", courseID, true).First(&course).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, errors.Wrap(err, "load course")
	}
	return &course, nil
}

// Add puts a published, not yet owned course in the cart
func (s *CartService) Add(ctx context.Context, userID, courseID uint) (*courseModels.Course, error) {
	var course *courseModels.Course
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if course, err = publishedCourse(tx, courseID); err != nil {
			return err
		}

		enrolled, err := enrolledCourseIDs(tx, userID, []uint{courseID})
		if err != nil {
			return errors.Wrap(err, "check enrollment")
		}
		if len(enrolled) > 0 {
			return ErrAlreadyEnrolled.WithDetails([]uint{courseID})
		}

		if err := tx.Create(&models.CartItem{UserID: userID, CourseID: courseID}).Error; err != nil {
			if database.IsDuplicate(err) {
				return ErrAlreadyInCart
			}
			return errors.Wrap(err, "add cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CartService) Remove(ctx context.Context, userID, courseID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.CartItem{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "remove cart item")
	}
	if res.RowsAffected == 0 {
		return ErrNotInCart
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func (s *CartService) Wishlist(ctx context.Context, userID uint) ([]CartLine, error) {
	items, err := lines(s.db.WithContext(ctx), "wishlist", userID)
	if err != nil {
		return nil, errors.Wrap(err, "load wishlist")
	}
	return items, nil
}

func (s *CartService) AddToWishlist(ctx context.Context, userID, courseID uint) (*courseModels.Course, error) {
	db := s.db.WithContext(ctx)
	course, err := publishedCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if err := db.Create(&models.WishlistItem{UserID: userID, CourseID: courseID}).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrAlreadyInWishlist
		}
		return nil, errors.Wrap(err, "add wishlist item")
	}
	return course, nil
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, courseID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "remove wishlist item")
	}
	if res.RowsAffected == 0 {
		return ErrNotInWishlist
	}
	return nil
}
