package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"link_shortener/models"
)

const minPasswordLength = 6

var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidAccount = errors.New("email and password of at least 6 characters are required")
)

type Users struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUsers(db *gorm.DB, now func() time.Time) *Users {
	if now == nil {
		now = time.Now
	}
	return &Users{db: db, now: now}
}

func (u *Users) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || len(password) < minPasswordLength {
		return nil, ErrInvalidAccount
	}

	user := &models.User{Email: email, RegisteredAt: u.now().UTC()}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, storeError(ctx, "register user", err)
	}
	return user, nil
}

func (u *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, storeError(ctx, "authenticate user", err)
	}
	if !user.CheckPassword(password) {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

func (u *Users) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeError(ctx, "get user", err)
	}
	return &user, nil
}

// SetPremium toggles the premium flag of the acting user.
func (u *Users) SetPremium(ctx context.Context, actor *Actor, status bool) error {
	if actor == nil {
		return ErrUnauthorized
	}
	res := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", actor.ID).Update("is_premium", status)
	if res.Error != nil {
		return storeError(ctx, "set premium", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	actor.IsPremium = status
	return nil
}
