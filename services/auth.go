package services

import (
	"context"
	"cyberdravida/database"
	"cyberdravida/models"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthService struct {
	base
}

func NewAuthService(db *gorm.DB, opts Options) *AuthService {
	if opts.SaltRound == 0 {
		opts.SaltRound = bcrypt.DefaultCost
	}
	return &AuthService{base: newBase(db, opts)}
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

type ProfileUpdate struct {
	Name   *string
	Phone  *string
	Avatar *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a student account
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, newError(KindValidation, "Email, password, and name are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, newError(KindValidation, "Password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.SaltRound)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	hashStr := string(hash)

	user := models.User{
		Email:        email,
		PasswordHash: &hashStr,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         models.RoleStudent,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "create user")
	}
	return &user, nil
}

// Login checks the password of an account with a local credential
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrBadCredentials
		}
		return nil, errors.Wrap(err, "load user")
	}
	if user.PasswordHash == nil {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

func (s *AuthService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "load user")
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(KindValidation, "Name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*in.Avatar)
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	return s.Get(ctx, userID)
}

// ChangePassword replaces a local credential after checking the current one.
// Accounts without a local password cannot set one here.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < minPasswordLength {
		return newError(KindValidation, "New password must be at least %d characters", minPasswordLength)
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(current)); err != nil {
		return ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.opts.SaltRound)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error; err != nil {
		return errors.Wrap(err, "update password")
	}
	return nil
}
