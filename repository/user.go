package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/truongnh28/bookstore/domain"
)

type userRepository struct {
	database *gorm.DB
}

func (u *userRepository) GetByID(ctx context.Context, id uint) (User, error) {
	var user User
	err := u.database.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return user, err
}

func (u *userRepository) Debit(ctx context.Context, id uint, amount int64) error {
	return debitBalance(u.database.WithContext(ctx), id, amount)
}

func (u *userRepository) Credit(ctx context.Context, id uint, amount int64) error {
	res := u.database.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// debitBalance expresses "deduct only if covered" as a single conditional
// write, so concurrent debits against the same user serialize on the row
// instead of racing a read-then-write.
func debitBalance(tx *gorm.DB, id uint, amount int64) error {
	res := tx.Model(&User{}).
		Where("id = ? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var user User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
		return domain.ErrInsufficientBalance
	}
	return nil
}

type UserRepository interface {
	GetByID(ctx context.Context, id uint) (User, error)
	Debit(ctx context.Context, id uint, amount int64) error
	Credit(ctx context.Context, id uint, amount int64) error
}

func NewUserRepo(database *gorm.DB) UserRepository {
	return &userRepository{database: database}
}
