package repository

import (
	"context"

	"gorm.io/gorm"
)

type transactionRepository struct {
	database *gorm.DB
}

func (t *transactionRepository) Create(ctx context.Context, trx *Transaction) error {
	return t.database.WithContext(ctx).Create(trx).Error
}

func (t *transactionRepository) ListAll(ctx context.Context) ([]Transaction, error) {
	var transactions []Transaction
	err := t.database.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

func (t *transactionRepository) ListByUser(ctx context.Context, userID uint) ([]Transaction, error) {
	var transactions []Transaction
	err := t.database.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

type TransactionRepository interface {
	Create(ctx context.Context, trx *Transaction) error
	ListAll(ctx context.Context) ([]Transaction, error)
	ListByUser(ctx context.Context, userID uint) ([]Transaction, error)
}

func NewTransactionRepo(database *gorm.DB) TransactionRepository {
	return &transactionRepository{database: database}
}
