package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truongnh28/bookstore/domain"
)

type cartRepository struct {
	database *gorm.DB
}

func (c *cartRepository) GetByUser(ctx context.Context, userID uint) (Cart, error) {
	var cart Cart
	err := c.database.WithContext(ctx).
		Preload("Items.Book.Author").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Cart{}, fmt.Errorf("cart of user %d: %w", userID, domain.ErrNotFound)
	}
	return cart, err
}

func (c *cartRepository) GetOrCreate(ctx context.Context, userID uint) (Cart, error) {
	var cart Cart
	err := c.database.WithContext(ctx).
		Where(Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return Cart{}, err
	}
	err = c.database.WithContext(ctx).
		Preload("Items.Book.Author").
		First(&cart, cart.ID).Error
	return cart, err
}

// UpsertItem merges quantities when the book is already a line item.
func (c *cartRepository) UpsertItem(ctx context.Context, cartID, bookID, quantity uint) error {
	item := CartItem{
		CartID:   cartID,
		BookID:   bookID,
		Quantity: quantity,
	}
	return c.database.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("quantity + ?", quantity),
			}),
		}).
		Create(&item).Error
}

func (c *cartRepository) SetItemQuantity(ctx context.Context, cartID, bookID, quantity uint) error {
	res := c.database.WithContext(ctx).Model(&CartItem{}).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book %d in cart %d: %w", bookID, cartID, domain.ErrNotFound)
	}
	return nil
}

func (c *cartRepository) DeleteItem(ctx context.Context, cartID, bookID uint) error {
	return c.database.WithContext(ctx).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Delete(&CartItem{}).Error
}

func (c *cartRepository) Clear(ctx context.Context, userID uint) error {
	return clearCart(c.database.WithContext(ctx), userID)
}

// clearCart empties the order list but keeps the cart row.
func clearCart(tx *gorm.DB, userID uint) error {
	var cart Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart of user %d: %w", userID, domain.ErrNotFound)
		}
		return err
	}
	return tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error
}

type CartRepository interface {
	GetByUser(ctx context.Context, userID uint) (Cart, error)
	GetOrCreate(ctx context.Context, userID uint) (Cart, error)
	UpsertItem(ctx context.Context, cartID, bookID, quantity uint) error
	SetItemQuantity(ctx context.Context, cartID, bookID, quantity uint) error
	DeleteItem(ctx context.Context, cartID, bookID uint) error
	Clear(ctx context.Context, userID uint) error
}

func NewCartRepo(database *gorm.DB) CartRepository {
	return &cartRepository{database: database}
}
