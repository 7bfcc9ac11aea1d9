package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the already-authenticated caller handed in by the auth
// boundary. Exactly one of UserID/AdminID is set depending on Role.
type Principal struct {
	UserID     uint
	AdminID    uint
	Role       Role
	SuperAdmin bool
}

type CartItemRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	Quantity uint `json:"quantity" binding:"required,gt=0"`
}

type TopUpRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Discount scope types, mutually exclusive.
const (
	DiscountTypeBook   = 1
	DiscountTypeAuthor = 2
)

type CreateDiscountRequest struct {
	Type       int       `json:"type" binding:"required"`
	Books      []uint    `json:"books"`
	Authors    []uint    `json:"authors"`
	Percentage *float64  `json:"discount_percentage"`
	Amount     *int64    `json:"discount_amount"`
	ValidFrom  time.Time `json:"valid_from" binding:"required"`
	ValidTo    time.Time `json:"valid_to" binding:"required"`
}

// UpdateDiscountRequest carries partial changes; nil fields keep the
// stored value.
type UpdateDiscountRequest struct {
	DiscountID uint       `json:"discount_id" binding:"required"`
	Type       *int       `json:"type"`
	Books      []uint     `json:"books"`
	Authors    []uint     `json:"authors"`
	Percentage *float64   `json:"discount_percentage"`
	Amount     *int64     `json:"discount_amount"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
}

type DeleteDiscountRequest struct {
	DiscountID uint `json:"discount_id" binding:"required"`
}

// CartLine is the read-only cart projection joined with current catalog
// price and any active discount.
type CartLine struct {
	BookID        uint   `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Quantity      uint   `json:"quantity"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price,omitempty"`
}

type CartView struct {
	Lines      []CartLine `json:"lines"`
	TotalPrice int64      `json:"total_price"`
}
