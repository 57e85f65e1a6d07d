package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	MarkVerified(ctx context.Context, id uint, token string) error
	SetResetToken(ctx context.Context, id uint, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, id uint, token, passwordBlob string) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		err = ErrDuplicate
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", outcome(err, ErrUserNotFound))
	return err
}

func (r *GormUserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "delete", outcome(err, ErrUserNotFound))
	return err
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.findOne(ctx, "find_by_id", "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_email", "email = ?", email)
}

func (r *GormUserRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_verification_token", "verification_token = ?", token)
}

func (r *GormUserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_reset_token", "reset_token = ?", token)
}

func (r *GormUserRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", op, outcome(err, ErrUserNotFound))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MarkVerified flips the verification flag and clears the token fields, but
// only while the stored token still equals token, so a token is consumed once.
func (r *GormUserRepository) MarkVerified(ctx context.Context, id uint, token string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND verification_token = ?", id, token).
		Updates(map[string]any{
			"is_verified":        true,
			"verification_token": nil,
			"token_expiry":       nil,
		})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "mark_verified", outcome(err, ErrUserNotFound))
	return err
}

func (r *GormUserRepository) SetResetToken(ctx context.Context, id uint, token string, expiry time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_token":        token,
			"reset_token_expiry": expiry,
		})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "set_reset_token", outcome(err, ErrUserNotFound))
	return err
}

// ResetPassword stores the new password blob and clears the reset token,
// conditional on the token still being the one on record.
func (r *GormUserRepository) ResetPassword(ctx context.Context, id uint, token, passwordBlob string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND reset_token = ?", id, token).
		Updates(map[string]any{
			"password":           passwordBlob,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "reset_password", outcome(err, ErrUserNotFound))
	return err
}
