package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truongnh28/bookstore/domain"
)

type discountRepository struct {
	database *gorm.DB
}

func (d *discountRepository) List(ctx context.Context) ([]Discount, error) {
	var discounts []Discount
	err := d.database.WithContext(ctx).
		Preload("Books").
		Preload("Authors").
		Find(&discounts).Error
	return discounts, err
}

func (d *discountRepository) GetByID(ctx context.Context, id uint) (Discount, error) {
	var discount Discount
	err := d.database.WithContext(ctx).
		Preload("Books").
		Preload("Authors").
		First(&discount, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Discount{}, fmt.Errorf("discount %d: %w", id, domain.ErrNotFound)
	}
	return discount, err
}

func (d *discountRepository) Create(ctx context.Context, discount *Discount) error {
	// Omit the association targets themselves so only join rows are
	// written; books and authors are catalog-owned.
	return d.database.WithContext(ctx).
		Omit("Books.*", "Authors.*").
		Create(discount).Error
}

func (d *discountRepository) Update(ctx context.Context, discount *Discount) error {
	return d.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(discount).Error; err != nil {
			return err
		}
		if err := tx.Model(discount).Omit("Books.*").
			Association("Books").Replace(discount.Books); err != nil {
			return err
		}
		return tx.Model(discount).Omit("Authors.*").
			Association("Authors").Replace(discount.Authors)
	})
}

func (d *discountRepository) Delete(ctx context.Context, id uint) error {
	res := d.database.WithContext(ctx).
		Select(clause.Associations).
		Delete(&Discount{Model: gorm.Model{ID: id}})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("discount %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// FindActive returns discounts whose validity window contains asOf and
// whose target set intersects the given books or authors, in catalog
// order.
func (d *discountRepository) FindActive(ctx context.Context, bookIDs, authorIDs []uint, asOf time.Time) ([]Discount, error) {
	var discounts []Discount
	err := d.database.WithContext(ctx).
		Distinct("discounts.*").
		Joins("LEFT JOIN discount_books ON discount_books.discount_id = discounts.id").
		Joins("LEFT JOIN discount_authors ON discount_authors.discount_id = discounts.id").
		Where("discounts.valid_from <= ? AND discounts.valid_to >= ?", asOf, asOf).
		Where("discount_books.book_id IN ? OR discount_authors.author_id IN ?", bookIDs, authorIDs).
		Preload("Books").
		Preload("Authors").
		Order("discounts.id").
		Find(&discounts).Error
	return discounts, err
}

// HasOverlapping reports whether a same-type discount that is still
// valid shares any target with targetIDs. Used at create/update time to
// keep at most one active discount per book or author per scope type.
func (d *discountRepository) HasOverlapping(ctx context.Context, discountType int, targetIDs []uint, excludeID uint, asOf time.Time) (bool, error) {
	joinTable := "discount_books"
	targetColumn := "discount_books.book_id"
	if discountType == domain.DiscountTypeAuthor {
		joinTable = "discount_authors"
		targetColumn = "discount_authors.author_id"
	}

	query := d.database.WithContext(ctx).Model(&Discount{}).
		Joins(fmt.Sprintf("JOIN %s ON %s.discount_id = discounts.id", joinTable, joinTable)).
		Where("discounts.type = ? AND discounts.valid_to >= ?", discountType, asOf).
		Where(fmt.Sprintf("%s IN ?", targetColumn), targetIDs)
	if excludeID != 0 {
		query = query.Where("discounts.id <> ?", excludeID)
	}

	var count int64
	if err := query.Distinct("discounts.id").Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type DiscountRepository interface {
	List(ctx context.Context) ([]Discount, error)
	GetByID(ctx context.Context, id uint) (Discount, error)
	Create(ctx context.Context, discount *Discount) error
	Update(ctx context.Context, discount *Discount) error
	Delete(ctx context.Context, id uint) error
	FindActive(ctx context.Context, bookIDs, authorIDs []uint, asOf time.Time) ([]Discount, error)
	HasOverlapping(ctx context.Context, discountType int, targetIDs []uint, excludeID uint, asOf time.Time) (bool, error)
}

func NewDiscountRepo(database *gorm.DB) DiscountRepository {
	return &discountRepository{database: database}
}
