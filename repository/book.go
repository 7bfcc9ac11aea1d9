package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/truongnh28/bookstore/domain"
)

// StockLine is one (book, quantity) entry of a batched stock mutation.
type StockLine struct {
	BookID   uint
	Quantity uint
}

type bookRepository struct {
	database *gorm.DB
}

func (b *bookRepository) GetByIDs(ctx context.Context, ids []uint) ([]Book, error) {
	var books []Book
	err := b.database.WithContext(ctx).
		Preload("Author").
		Where("id IN ?", ids).
		Find(&books).Error
	return books, err
}

func (b *bookRepository) GetEnabled(ctx context.Context, id uint) (Book, error) {
	var book Book
	err := b.database.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND disable = ?", id, false).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
	}
	if err == nil && book.Author.Disable {
		return Book{}, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
	}
	return book, err
}

func (b *bookRepository) DeductStock(ctx context.Context, lines []StockLine) error {
	return b.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deductStock(tx, lines)
	})
}

// deductStock validates every line before mutating any book, then applies
// conditional decrements. A RowsAffected of zero means another writer won
// the remaining stock between validation and update; the surrounding
// transaction rolls the whole batch back.
func deductStock(tx *gorm.DB, lines []StockLine) error {
	ids := lo.Map(lines, func(line StockLine, _ int) uint { return line.BookID })

	var books []Book
	if err := tx.Preload("Author").Where("id IN ?", ids).Find(&books).Error; err != nil {
		return err
	}
	byID := lo.KeyBy(books, func(b Book) uint { return b.ID })

	var merr *multierror.Error
	var unavailable []uint
	for _, line := range lines {
		book, ok := byID[line.BookID]
		switch {
		case !ok:
			merr = multierror.Append(merr, fmt.Errorf("book %d: %w", line.BookID, domain.ErrNotFound))
		case book.Disable || book.Author.Disable:
			unavailable = append(unavailable, line.BookID)
		case book.Stock < line.Quantity:
			merr = multierror.Append(merr, fmt.Errorf("book %d: %w", line.BookID, domain.ErrOutOfStock))
		}
	}
	if len(unavailable) != 0 {
		merr = multierror.Append(merr, &domain.UnavailableBooksError{BookIDs: unavailable})
	}
	if err := merr.ErrorOrNil(); err != nil {
		return err
	}

	for _, line := range lines {
		res := tx.Model(&Book{}).
			Where("id = ? AND disable = ? AND stock >= ?", line.BookID, false, line.Quantity).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("stock - ?", line.Quantity),
				"total_sell": gorm.Expr("total_sell + ?", line.Quantity),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("book %d: %w", line.BookID, domain.ErrOutOfStock)
		}
	}
	return nil
}

type BookRepository interface {
	GetByIDs(ctx context.Context, ids []uint) ([]Book, error)
	GetEnabled(ctx context.Context, id uint) (Book, error)
	DeductStock(ctx context.Context, lines []StockLine) error
}

func NewBookRepo(database *gorm.DB) BookRepository {
	return &bookRepository{database: database}
}
