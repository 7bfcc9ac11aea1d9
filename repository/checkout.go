package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/truongnh28/bookstore/domain"
)

// Commit stages, named in PartialCommitError so operators see where the
// storage layer gave up.
const (
	stageDebit   = "debit_balance"
	stageReserve = "reserve_stock"
	stageClear   = "clear_cart"
	stageRecord  = "record_transaction"
)

type checkoutStore struct {
	database *gorm.DB
}

// Commit performs the settlement's four mutations as one database
// transaction: debit the buyer, decrement stock / bump total_sell, empty
// the cart, insert the transaction record. The stock and balance writes
// are conditional, so a competing checkout that got there first makes
// this one roll back with a clean business abort rather than a partial
// state.
func (s *checkoutStore) Commit(ctx context.Context, userID uint, items []TransactionItem, totalPrice int64) (Transaction, error) {
	trx := Transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalPrice: totalPrice,
		Items:      items,
	}

	err := s.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := debitBalance(tx, userID, totalPrice); err != nil {
			return commitErr(stageDebit, err)
		}

		lines := lo.Map(items, func(item TransactionItem, _ int) StockLine {
			return StockLine{BookID: item.BookID, Quantity: item.Quantity}
		})
		if err := deductStock(tx, lines); err != nil {
			return commitErr(stageReserve, err)
		}

		if err := clearCart(tx, userID); err != nil {
			return &domain.PartialCommitError{Stage: stageClear, Err: err}
		}
		if err := tx.Create(&trx).Error; err != nil {
			return &domain.PartialCommitError{Stage: stageRecord, Err: err}
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return trx, nil
}

// commitErr keeps business-rule failures as clean aborts; anything else
// becomes a PartialCommitError.
func commitErr(stage string, err error) error {
	if errors.Is(err, domain.ErrInsufficientBalance) ||
		errors.Is(err, domain.ErrOutOfStock) ||
		errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var unavailable *domain.UnavailableBooksError
	if errors.As(err, &unavailable) {
		return err
	}
	return &domain.PartialCommitError{Stage: stage, Err: err}
}

type CheckoutStore interface {
	Commit(ctx context.Context, userID uint, items []TransactionItem, totalPrice int64) (Transaction, error)
}

func NewCheckoutStore(database *gorm.DB) CheckoutStore {
	return &checkoutStore{database: database}
}
