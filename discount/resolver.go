package discount

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/truongnh28/bookstore/repository"
)

type Resolver struct {
	discounts repository.DiscountRepository
}

func NewResolver(discounts repository.DiscountRepository) *Resolver {
	return &Resolver{discounts: discounts}
}

// Resolve returns the effective unit price for every book that has an
// active discount as of asOf. Books without an entry sell at list price.
// When several active discounts match one book, the first one in catalog
// order wins; creation-time checks keep that from happening, so this is
// a tie-break for the benign race, not a priority scheme.
func (r *Resolver) Resolve(ctx context.Context, books []repository.Book, asOf time.Time) (map[uint]int64, error) {
	prices := make(map[uint]int64, len(books))
	if len(books) == 0 {
		return prices, nil
	}

	bookIDs := lo.Map(books, func(b repository.Book, _ int) uint { return b.ID })
	authorIDs := lo.Uniq(lo.Map(books, func(b repository.Book, _ int) uint { return b.AuthorID }))

	active, err := r.discounts.FindActive(ctx, bookIDs, authorIDs, asOf)
	if err != nil {
		return nil, err
	}

	for _, book := range books {
		if d, ok := firstMatch(active, book, asOf); ok {
			prices[book.ID] = effectivePrice(book.Price, d)
		}
	}
	return prices, nil
}

func firstMatch(discounts []repository.Discount, book repository.Book, asOf time.Time) (repository.Discount, bool) {
	for _, d := range discounts {
		if asOf.Before(d.ValidFrom) || asOf.After(d.ValidTo) {
			continue
		}
		matchesBook := lo.ContainsBy(d.Books, func(b repository.Book) bool {
			return b.ID == book.ID
		})
		matchesAuthor := lo.ContainsBy(d.Authors, func(a repository.Author) bool {
			return a.ID == book.AuthorID
		})
		if matchesBook || matchesAuthor {
			return d, true
		}
	}
	return repository.Discount{}, false
}

// effectivePrice clamps at zero so a fixed amount larger than the list
// price never produces a negative charge. The percentage deduction
// truncates toward zero, so the charged price rounds up: 999 at 10%
// off charges 900, not 899.
func effectivePrice(price int64, d repository.Discount) int64 {
	var discounted int64
	switch {
	case d.Percentage != nil:
		discounted = price - int64(float64(price)*(*d.Percentage)/100)
	case d.Amount != nil:
		discounted = price - *d.Amount
	default:
		return price
	}
	if discounted < 0 {
		return 0
	}
	return discounted
}
