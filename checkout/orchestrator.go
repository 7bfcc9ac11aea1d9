package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/truongnh28/bookstore/domain"
	"github.com/truongnh28/bookstore/log"
	"github.com/truongnh28/bookstore/repository"
)

type PriceResolver interface {
	Resolve(ctx context.Context, books []repository.Book, asOf time.Time) (map[uint]int64, error)
}

// IdempotencyGate fences duplicate settlement requests by client request
// id. Acquire returns false when the key is already held.
type IdempotencyGate interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type EventPublisher interface {
	TransactionSettled(ctx context.Context, trx repository.Transaction) error
}

type Orchestrator struct {
	users    repository.UserRepository
	carts    repository.CartRepository
	books    repository.BookRepository
	resolver PriceResolver
	store    repository.CheckoutStore
	gate     IdempotencyGate
	events   EventPublisher
}

// NewOrchestrator wires the settlement pipeline. gate and events are
// optional; pass nil to run without idempotency fencing or event
// emission.
func NewOrchestrator(
	users repository.UserRepository,
	carts repository.CartRepository,
	books repository.BookRepository,
	resolver PriceResolver,
	store repository.CheckoutStore,
	gate IdempotencyGate,
	events EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		users:    users,
		carts:    carts,
		books:    books,
		resolver: resolver,
		store:    store,
		gate:     gate,
		events:   events,
	}
}

// Settle converts the user's cart into a priced, stock-consistent
// transaction. Everything before the store commit is pure validation, so
// any abort leaves cart, balance and stock untouched; the commit itself
// re-checks stock and balance with conditional writes, which is where
// concurrent checkouts racing for the last copies are decided.
func (o *Orchestrator) Settle(ctx context.Context, userID uint, requestID string) (repository.Transaction, error) {
	logger := log.GetLogger(ctx)

	if o.gate != nil && requestID != "" {
		key := fmt.Sprintf("checkout:%d:%s", userID, requestID)
		held, err := o.gate.Acquire(ctx, key)
		if err != nil {
			return repository.Transaction{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !held {
			return repository.Transaction{}, domain.ErrDuplicateRequest
		}
		committed := false
		defer func() {
			// Aborts are no-ops, so the caller may retry with the
			// same request id.
			if !committed {
				if rerr := o.gate.Release(ctx, key); rerr != nil {
					logger.WithError(rerr).Errorf("release idempotency key %s: %s", key, rerr)
				}
			}
		}()
		return o.settle(ctx, userID, &committed)
	}
	var committed bool
	return o.settle(ctx, userID, &committed)
}

func (o *Orchestrator) settle(ctx context.Context, userID uint, committed *bool) (repository.Transaction, error) {
	logger := log.GetLogger(ctx)

	user, err := o.users.GetByID(ctx, userID)
	if err != nil {
		return repository.Transaction{}, err
	}
	if user.PhoneNumber == "" || user.District == "" || user.Area == "" || user.HouseNumber == "" {
		return repository.Transaction{}, domain.ErrIncompleteProfile
	}

	cart, err := o.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return repository.Transaction{}, domain.ErrEmptyCart
		}
		return repository.Transaction{}, err
	}
	if len(cart.Items) == 0 {
		return repository.Transaction{}, domain.ErrEmptyCart
	}

	disabled := lo.FilterMap(cart.Items, func(item repository.CartItem, _ int) (uint, bool) {
		return item.BookID, item.Book.Disable || item.Book.Author.Disable
	})
	if len(disabled) != 0 {
		return repository.Transaction{}, &domain.UnavailableBooksError{BookIDs: disabled}
	}

	// Cart lines can hold stale stock; re-fetch before pricing.
	bookIDs := lo.Map(cart.Items, func(item repository.CartItem, _ int) uint { return item.BookID })
	fresh, err := o.books.GetByIDs(ctx, bookIDs)
	if err != nil {
		return repository.Transaction{}, err
	}
	freshByID := lo.KeyBy(fresh, func(b repository.Book) uint { return b.ID })
	for _, item := range cart.Items {
		book, ok := freshByID[item.BookID]
		if !ok {
			return repository.Transaction{}, fmt.Errorf("book %d: %w", item.BookID, domain.ErrNotFound)
		}
		if book.Stock < item.Quantity {
			return repository.Transaction{}, fmt.Errorf("book %d: %w", item.BookID, domain.ErrOutOfStock)
		}
	}

	prices, err := o.resolver.Resolve(ctx, fresh, time.Now())
	if err != nil {
		return repository.Transaction{}, err
	}

	var totalPrice int64
	items := make([]repository.TransactionItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		book := freshByID[item.BookID]
		line := repository.TransactionItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    book.Price,
		}
		effective := book.Price
		if discounted, ok := prices[item.BookID]; ok {
			discounted := discounted
			line.DiscountPrice = &discounted
			effective = discounted
		}
		totalPrice += effective * int64(item.Quantity)
		items = append(items, line)
	}

	if user.Balance < totalPrice {
		return repository.Transaction{}, domain.ErrInsufficientBalance
	}

	trx, err := o.store.Commit(ctx, userID, items, totalPrice)
	if err != nil {
		return repository.Transaction{}, err
	}
	*committed = true

	if o.events != nil {
		if err := o.events.TransactionSettled(ctx, trx); err != nil {
			logger.WithError(err).Errorf("publish settled event for %s: %s", trx.ID, err)
		}
	}
	logger.Infof("settled transaction %s for user %d, total %d", trx.ID, userID, totalPrice)
	return trx, nil
}
