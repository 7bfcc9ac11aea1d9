package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/truongnh28/bookstore/domain"
	"github.com/truongnh28/bookstore/repository"
)

// store mimics the database: one mutex stands in for the transaction, so
// commits are all-or-nothing and serialized like conditional writes on a
// real table.
type store struct {
	mu           sync.Mutex
	users        map[uint]repository.User
	books        map[uint]repository.Book
	carts        map[uint][]repository.CartItem
	transactions []repository.Transaction
}

func (s *store) GetByID(ctx context.Context, id uint) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

func (s *store) Debit(ctx context.Context, id uint, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitLocked(id, amount)
}

func (s *store) Credit(ctx context.Context, id uint, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[id]
	user.Balance += amount
	s.users[id] = user
	return nil
}

func (s *store) debitLocked(id uint, amount int64) error {
	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if user.Balance < amount {
		return domain.ErrInsufficientBalance
	}
	user.Balance -= amount
	s.users[id] = user
	return nil
}

func (s *store) GetByUser(ctx context.Context, userID uint) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.carts[userID]
	if !ok {
		return repository.Cart{}, fmt.Errorf("cart of user %d: %w", userID, domain.ErrNotFound)
	}
	cart := repository.Cart{UserID: userID}
	for _, item := range items {
		item.Book = s.books[item.BookID]
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func (s *store) GetOrCreate(ctx context.Context, userID uint) (repository.Cart, error) {
	return s.GetByUser(ctx, userID)
}

func (s *store) UpsertItem(ctx context.Context, cartID, bookID, quantity uint) error {
	return nil
}

func (s *store) SetItemQuantity(ctx context.Context, cartID, bookID, quantity uint) error {
	return nil
}

func (s *store) DeleteItem(ctx context.Context, cartID, bookID uint) error {
	return nil
}

func (s *store) Clear(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = nil
	return nil
}

func (s *store) GetByIDs(ctx context.Context, ids []uint) ([]repository.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Book
	for _, id := range ids {
		if book, ok := s.books[id]; ok {
			out = append(out, book)
		}
	}
	return out, nil
}

func (s *store) GetEnabled(ctx context.Context, id uint) (repository.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[id]
	if !ok || book.Disable || book.Author.Disable {
		return repository.Book{}, fmt.Errorf("book %d: %w", id, domain.ErrNotFound)
	}
	return book, nil
}

func (s *store) DeductStock(ctx context.Context, lines []repository.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deductLocked(lines)
}

func (s *store) deductLocked(lines []repository.StockLine) error {
	for _, line := range lines {
		book, ok := s.books[line.BookID]
		if !ok {
			return fmt.Errorf("book %d: %w", line.BookID, domain.ErrNotFound)
		}
		if book.Disable || book.Author.Disable {
			return &domain.UnavailableBooksError{BookIDs: []uint{line.BookID}}
		}
		if book.Stock < line.Quantity {
			return fmt.Errorf("book %d: %w", line.BookID, domain.ErrOutOfStock)
		}
	}
	for _, line := range lines {
		book := s.books[line.BookID]
		book.Stock -= line.Quantity
		book.TotalSell += line.Quantity
		s.books[line.BookID] = book
	}
	return nil
}

func (s *store) Commit(ctx context.Context, userID uint, items []repository.TransactionItem, totalPrice int64) (repository.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.debitLocked(userID, totalPrice); err != nil {
		return repository.Transaction{}, err
	}
	lines := make([]repository.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, repository.StockLine{BookID: item.BookID, Quantity: item.Quantity})
	}
	if err := s.deductLocked(lines); err != nil {
		// roll the debit back, as the database transaction would
		user := s.users[userID]
		user.Balance += totalPrice
		s.users[userID] = user
		return repository.Transaction{}, err
	}
	s.carts[userID] = nil

	trx := repository.Transaction{
		ID:         fmt.Sprintf("trx-%d", len(s.transactions)+1),
		UserID:     userID,
		TotalPrice: totalPrice,
		Items:      items,
	}
	s.transactions = append(s.transactions, trx)
	return trx, nil
}

type memGate struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemGate() *memGate {
	return &memGate{keys: make(map[string]bool)}
}

func (g *memGate) Acquire(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *memGate) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

type staticResolver struct {
	prices map[uint]int64
}

func (r *staticResolver) Resolve(ctx context.Context, books []repository.Book, asOf time.Time) (map[uint]int64, error) {
	return r.prices, nil
}

type eventRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *eventRecorder) TransactionSettled(ctx context.Context, trx repository.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, trx.ID)
	return nil
}

func completeUser(id uint, balance int64) repository.User {
	return repository.User{
		Model:       gorm.Model{ID: id},
		Name:        "reader",
		PhoneNumber: "01700000000",
		District:    "Dhaka",
		Area:        "Banani",
		HouseNumber: "12A",
		Balance:     balance,
	}
}

func newStore() *store {
	return &store{
		users: map[uint]repository.User{
			1: completeUser(1, 1000),
		},
		books: map[uint]repository.Book{
			10: {
				Model:    gorm.Model{ID: 10},
				Title:    "The Go Programming Language",
				Price:    500,
				Stock:    2,
				AuthorID: 1,
				Author:   repository.Author{Model: gorm.Model{ID: 1}},
			},
		},
		carts: map[uint][]repository.CartItem{
			1: {{BookID: 10, Quantity: 2}},
		},
	}
}

func newOrchestrator(s *store, resolver PriceResolver, gate IdempotencyGate, events EventPublisher) *Orchestrator {
	if resolver == nil {
		resolver = &staticResolver{prices: map[uint]int64{}}
	}
	return NewOrchestrator(s, s, s, resolver, s, gate, events)
}

func TestSettle_EndToEnd(t *testing.T) {
	s := newStore()
	events := &eventRecorder{}
	orchestrator := newOrchestrator(s, nil, nil, events)

	trx, err := orchestrator.Settle(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if trx.TotalPrice != 1000 {
		t.Errorf("expected total 1000, got %d", trx.TotalPrice)
	}
	if got := s.users[1].Balance; got != 0 {
		t.Errorf("expected balance 0, got %d", got)
	}
	if got := s.books[10].Stock; got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	if got := s.books[10].TotalSell; got != 2 {
		t.Errorf("expected total_sell 2, got %d", got)
	}
	if len(s.carts[1]) != 0 {
		t.Errorf("expected cart to be cleared, got %d lines", len(s.carts[1]))
	}
	if len(s.transactions) != 1 {
		t.Fatalf("expected one transaction, got %d", len(s.transactions))
	}
	if len(events.ids) != 1 {
		t.Errorf("expected one settled event, got %d", len(events.ids))
	}

	_, err = orchestrator.Settle(context.Background(), 1, "")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("second settle on emptied cart: expected ErrEmptyCart, got %v", err)
	}
}

func TestSettle_InsufficientBalance(t *testing.T) {
	s := newStore()
	user := s.users[1]
	user.Balance = 500
	s.users[1] = user
	orchestrator := newOrchestrator(s, nil, nil, nil)

	_, err := orchestrator.Settle(context.Background(), 1, "")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	if got := s.users[1].Balance; got != 500 {
		t.Errorf("aborted settle must not change balance, got %d", got)
	}
	if got := s.books[10].Stock; got != 2 {
		t.Errorf("aborted settle must not change stock, got %d", got)
	}
	if len(s.carts[1]) != 1 {
		t.Errorf("aborted settle must keep the cart, got %d lines", len(s.carts[1]))
	}
}

func TestSettle_IncompleteProfile(t *testing.T) {
	s := newStore()
	user := s.users[1]
	user.PhoneNumber = ""
	s.users[1] = user
	orchestrator := newOrchestrator(s, nil, nil, nil)

	_, err := orchestrator.Settle(context.Background(), 1, "")
	if !errors.Is(err, domain.ErrIncompleteProfile) {
		t.Errorf("expected ErrIncompleteProfile, got: %v", err)
	}
}

func TestSettle_UnavailableBooks(t *testing.T) {
	s := newStore()
	book := s.books[10]
	book.Author.Disable = true
	s.books[10] = book
	orchestrator := newOrchestrator(s, nil, nil, nil)

	_, err := orchestrator.Settle(context.Background(), 1, "")
	var unavailable *domain.UnavailableBooksError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableBooksError, got: %v", err)
	}
	if len(unavailable.BookIDs) != 1 || unavailable.BookIDs[0] != 10 {
		t.Errorf("expected offending book 10, got %v", unavailable.BookIDs)
	}
	if got := s.books[10].Stock; got != 2 {
		t.Errorf("aborted settle must not change stock, got %d", got)
	}
}

func TestSettle_OutOfStock(t *testing.T) {
	s := newStore()
	book := s.books[10]
	book.Stock = 1
	s.books[10] = book
	orchestrator := newOrchestrator(s, nil, nil, nil)

	_, err := orchestrator.Settle(context.Background(), 1, "")
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Errorf("expected ErrOutOfStock, got: %v", err)
	}
}

func TestSettle_DiscountApplied(t *testing.T) {
	s := newStore()
	user := s.users[1]
	user.Balance = 900
	s.users[1] = user
	resolver := &staticResolver{prices: map[uint]int64{10: 450}}
	orchestrator := newOrchestrator(s, resolver, nil, nil)

	trx, err := orchestrator.Settle(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if trx.TotalPrice != 900 {
		t.Errorf("expected discounted total 900, got %d", trx.TotalPrice)
	}
	item := trx.Items[0]
	if item.Price != 500 {
		t.Errorf("expected list price 500 on record, got %d", item.Price)
	}
	if item.DiscountPrice == nil || *item.DiscountPrice != 450 {
		t.Errorf("expected discount price 450 on record, got %v", item.DiscountPrice)
	}
	if got := s.users[1].Balance; got != 0 {
		t.Errorf("expected balance 0 after discounted settle, got %d", got)
	}
}

func TestSettle_RaceForLastCopy(t *testing.T) {
	s := newStore()
	book := s.books[10]
	book.Stock = 1
	s.books[10] = book
	s.users[2] = completeUser(2, 1000)
	s.carts[1] = []repository.CartItem{{BookID: 10, Quantity: 1}}
	s.carts[2] = []repository.CartItem{{BookID: 10, Quantity: 1}}
	orchestrator := newOrchestrator(s, nil, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uint{1, 2} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = orchestrator.Settle(context.Background(), userID, "")
		}(i, userID)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || outOfStock != 1 {
		t.Errorf("expected exactly one winner and one ErrOutOfStock, got %d/%d", succeeded, outOfStock)
	}
	if got := s.books[10].Stock; got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	if len(s.transactions) != 1 {
		t.Errorf("expected one transaction, got %d", len(s.transactions))
	}
}

func TestSettle_DuplicateRequest(t *testing.T) {
	s := newStore()
	gate := newMemGate()
	orchestrator := newOrchestrator(s, nil, gate, nil)

	if _, err := orchestrator.Settle(context.Background(), 1, "req-1"); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	_, err := orchestrator.Settle(context.Background(), 1, "req-1")
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}
}

func TestSettle_AbortReleasesIdempotencyKey(t *testing.T) {
	s := newStore()
	user := s.users[1]
	user.Balance = 500
	s.users[1] = user
	gate := newMemGate()
	orchestrator := newOrchestrator(s, nil, gate, nil)

	_, err := orchestrator.Settle(context.Background(), 1, "req-1")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	// The abort was a no-op, so retrying with the same id must not be
	// treated as a duplicate.
	_, err = orchestrator.Settle(context.Background(), 1, "req-1")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("retry after abort: expected ErrInsufficientBalance, got: %v", err)
	}
}
