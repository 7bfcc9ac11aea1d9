package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/truongnh28/bookstore/domain"
	"github.com/truongnh28/bookstore/repository"
)

// PriceResolver supplies effective discounted prices for the view
// projection.
type PriceResolver interface {
	Resolve(ctx context.Context, books []repository.Book, asOf time.Time) (map[uint]int64, error)
}

type Service struct {
	books    repository.BookRepository
	carts    repository.CartRepository
	resolver PriceResolver
}

func NewService(books repository.BookRepository, carts repository.CartRepository, resolver PriceResolver) *Service {
	return &Service{
		books:    books,
		carts:    carts,
		resolver: resolver,
	}
}

// Add puts quantity of a book into the user's cart, merging with an
// existing line. The stock check here is optimistic; checkout is the
// authoritative gate.
func (s *Service) Add(ctx context.Context, userID, bookID, quantity uint) error {
	book, err := s.books.GetEnabled(ctx, bookID)
	if err != nil {
		return err
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	var inCart uint
	if item, ok := lo.Find(cart.Items, func(item repository.CartItem) bool {
		return item.BookID == bookID
	}); ok {
		inCart = item.Quantity
	}
	if book.Stock < inCart+quantity {
		return fmt.Errorf("book %d: %w", bookID, domain.ErrOutOfStock)
	}

	return s.carts.UpsertItem(ctx, cart.ID, bookID, quantity)
}

// Remove decrements a line item, deleting it when it reaches zero.
func (s *Service) Remove(ctx context.Context, userID, bookID, quantity uint) error {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return err
	}

	item, ok := lo.Find(cart.Items, func(item repository.CartItem) bool {
		return item.BookID == bookID
	})
	if !ok {
		return fmt.Errorf("book %d not in cart: %w", bookID, domain.ErrNotFound)
	}
	if quantity > item.Quantity {
		return fmt.Errorf("cart holds %d of book %d: %w", item.Quantity, bookID, domain.ErrInvalidQuantity)
	}
	if quantity == item.Quantity {
		return s.carts.DeleteItem(ctx, cart.ID, bookID)
	}
	return s.carts.SetItemQuantity(ctx, cart.ID, bookID, item.Quantity-quantity)
}

// View returns the cart joined with current prices and active discounts.
// It never mutates.
func (s *Service) View(ctx context.Context, userID uint) (domain.CartView, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}

	books := lo.Map(cart.Items, func(item repository.CartItem, _ int) repository.Book {
		return item.Book
	})
	prices, err := s.resolver.Resolve(ctx, books, time.Now())
	if err != nil {
		return domain.CartView{}, err
	}

	view := domain.CartView{Lines: make([]domain.CartLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		line := domain.CartLine{
			BookID:   item.BookID,
			Title:    item.Book.Title,
			Author:   item.Book.Author.Name,
			Quantity: item.Quantity,
			Price:    item.Book.Price,
		}
		effective := item.Book.Price
		if discounted, ok := prices[item.BookID]; ok {
			discounted := discounted
			line.DiscountPrice = &discounted
			effective = discounted
		}
		view.TotalPrice += effective * int64(item.Quantity)
		view.Lines = append(view.Lines, line)
	}
	return view, nil
}
