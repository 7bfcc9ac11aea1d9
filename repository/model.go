package repository

import (
	"time"

	"gorm.io/gorm"
)

type Author struct {
	gorm.Model
	Name    string `gorm:"type:varchar(255);column:name;not null"`
	Country string `gorm:"type:varchar(255);column:country"`
	Disable bool   `gorm:"column:disable;not null;default:false"`
}

// Book is catalog-owned; this core only mutates stock and total_sell.
// Prices are integer minor units.
type Book struct {
	gorm.Model
	Title     string `gorm:"type:varchar(255);column:title;not null"`
	Price     int64  `gorm:"column:price;not null"`
	Stock     uint   `gorm:"type:int unsigned;column:stock;not null"`
	TotalSell uint   `gorm:"type:int unsigned;column:total_sell;not null"`
	Disable   bool   `gorm:"column:disable;not null;default:false"`
	AuthorID  uint   `gorm:"column:author_id;not null"`
	Author    Author
}

type User struct {
	gorm.Model
	Name        string `gorm:"type:varchar(255);column:name;not null"`
	Email       string `gorm:"type:varchar(255);column:email;uniqueIndex"`
	PhoneNumber string `gorm:"type:varchar(32);column:phone_number"`
	District    string `gorm:"type:varchar(255);column:district"`
	Area        string `gorm:"type:varchar(255);column:area"`
	HouseNumber string `gorm:"type:varchar(64);column:house_number"`
	Balance     int64  `gorm:"column:balance;not null;default:0"`
}

type Cart struct {
	gorm.Model
	UserID uint       `gorm:"column:user_id;not null;uniqueIndex"`
	Items  []CartItem `gorm:"foreignKey:CartID"`
}

// CartItem rows are hard-deleted: a soft-delete column would keep the
// (cart_id, book_id) slot of idx_cart_book occupied and break re-adding
// a book after checkout or removal.
type CartItem struct {
	ID       uint `gorm:"primaryKey"`
	CartID   uint `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_book"`
	BookID   uint `gorm:"column:book_id;not null;uniqueIndex:idx_cart_book"`
	Quantity uint `gorm:"type:int unsigned;column:quantity;not null"`
	Book     Book
}

// Discount targets either books (type 1) or authors (type 2), never
// both, and carries exactly one of Percentage/Amount.
type Discount struct {
	gorm.Model
	Type       int       `gorm:"column:type;not null"`
	Percentage *float64  `gorm:"column:discount_percentage"`
	Amount     *int64    `gorm:"column:discount_amount"`
	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidTo    time.Time `gorm:"column:valid_to;not null"`
	Books      []Book    `gorm:"many2many:discount_books"`
	Authors    []Author  `gorm:"many2many:discount_authors"`
}

// Transaction is immutable once created.
type Transaction struct {
	ID         string            `gorm:"type:varchar(36);primaryKey"`
	UserID     uint              `gorm:"column:user_id;not null;index"`
	TotalPrice int64             `gorm:"column:total_price;not null"`
	Items      []TransactionItem `gorm:"foreignKey:TransactionID"`
	CreatedAt  time.Time
}

type TransactionItem struct {
	ID            uint   `gorm:"primaryKey"`
	TransactionID string `gorm:"type:varchar(36);column:transaction_id;not null;index"`
	BookID        uint   `gorm:"column:book_id;not null"`
	Quantity      uint   `gorm:"type:int unsigned;column:quantity;not null"`
	Price         int64  `gorm:"column:price;not null"`
	DiscountPrice *int64 `gorm:"column:discount_price"`
}
