package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/truongnh28/bookstore/domain"
	"github.com/truongnh28/bookstore/repository"
)

type Service struct {
	discounts repository.DiscountRepository
}

func NewService(discounts repository.DiscountRepository) *Service {
	return &Service{discounts: discounts}
}

func (s *Service) List(ctx context.Context) ([]repository.Discount, error) {
	return s.discounts.List(ctx)
}

func (s *Service) Create(ctx context.Context, req domain.CreateDiscountRequest) (repository.Discount, error) {
	discount := repository.Discount{
		Type:       req.Type,
		Percentage: req.Percentage,
		Amount:     req.Amount,
		ValidFrom:  req.ValidFrom,
		ValidTo:    req.ValidTo,
		Books:      booksByID(req.Books),
		Authors:    authorsByID(req.Authors),
	}
	if err := validateShape(discount); err != nil {
		return repository.Discount{}, err
	}
	if err := s.checkOverlap(ctx, discount, 0); err != nil {
		return repository.Discount{}, err
	}
	if err := s.discounts.Create(ctx, &discount); err != nil {
		return repository.Discount{}, err
	}
	return discount, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateDiscountRequest) (repository.Discount, error) {
	discount, err := s.discounts.GetByID(ctx, req.DiscountID)
	if err != nil {
		return repository.Discount{}, err
	}

	if req.Percentage != nil && req.Amount != nil {
		return repository.Discount{}, fmt.Errorf("%w: discount carries either a percentage or an amount", domain.ErrValidation)
	}
	if req.Type != nil {
		discount.Type = *req.Type
	}
	if req.Percentage != nil {
		discount.Percentage = req.Percentage
		discount.Amount = nil
	}
	if req.Amount != nil {
		discount.Amount = req.Amount
		discount.Percentage = nil
	}
	if req.ValidFrom != nil {
		discount.ValidFrom = *req.ValidFrom
	}
	if req.ValidTo != nil {
		discount.ValidTo = *req.ValidTo
	}
	if req.Books != nil {
		discount.Books = booksByID(req.Books)
	}
	if req.Authors != nil {
		discount.Authors = authorsByID(req.Authors)
	}

	if err := validateShape(discount); err != nil {
		return repository.Discount{}, err
	}
	if err := s.checkOverlap(ctx, discount, discount.ID); err != nil {
		return repository.Discount{}, err
	}
	if err := s.discounts.Update(ctx, &discount); err != nil {
		return repository.Discount{}, err
	}
	return discount, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.discounts.Delete(ctx, id)
}

func (s *Service) checkOverlap(ctx context.Context, discount repository.Discount, excludeID uint) error {
	targetIDs := targetIDsOf(discount)
	overlapping, err := s.discounts.HasOverlapping(ctx, discount.Type, targetIDs, excludeID, time.Now())
	if err != nil {
		return err
	}
	if overlapping {
		return fmt.Errorf("active discount for the same target: %w", domain.ErrConflict)
	}
	return nil
}

func validateShape(d repository.Discount) error {
	switch d.Type {
	case domain.DiscountTypeBook:
		if len(d.Books) == 0 || len(d.Authors) != 0 {
			return fmt.Errorf("%w: book discount targets a non-empty book set and no authors", domain.ErrValidation)
		}
	case domain.DiscountTypeAuthor:
		if len(d.Authors) == 0 || len(d.Books) != 0 {
			return fmt.Errorf("%w: author discount targets a non-empty author set and no books", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %d", domain.ErrValidation, d.Type)
	}

	switch {
	case d.Percentage != nil && d.Amount != nil:
		return fmt.Errorf("%w: discount carries either a percentage or an amount", domain.ErrValidation)
	case d.Percentage != nil:
		if *d.Percentage <= 0 || *d.Percentage > 100 {
			return fmt.Errorf("%w: percentage must be in (0,100]", domain.ErrValidation)
		}
	case d.Amount != nil:
		if *d.Amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: discount carries either a percentage or an amount", domain.ErrValidation)
	}

	if !d.ValidFrom.Before(d.ValidTo) {
		return fmt.Errorf("%w: valid_from must precede valid_to", domain.ErrValidation)
	}
	return nil
}

func targetIDsOf(d repository.Discount) []uint {
	if d.Type == domain.DiscountTypeAuthor {
		return lo.Map(d.Authors, func(a repository.Author, _ int) uint { return a.ID })
	}
	return lo.Map(d.Books, func(b repository.Book, _ int) uint { return b.ID })
}

func booksByID(ids []uint) []repository.Book {
	return lo.Map(ids, func(id uint, _ int) repository.Book {
		return repository.Book{Model: gorm.Model{ID: id}}
	})
}

func authorsByID(ids []uint) []repository.Author {
	return lo.Map(ids, func(id uint, _ int) repository.Author {
		return repository.Author{Model: gorm.Model{ID: id}}
	})
}
