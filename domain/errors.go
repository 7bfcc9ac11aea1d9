package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("already exists")
	ErrOutOfStock          = errors.New("out of stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrIncompleteProfile   = errors.New("phone number and address required")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrValidation          = errors.New("invalid input")
)

// UnavailableBooksError rejects a whole checkout when any cart line
// references a disabled book or a book by a disabled author. It names
// every offending book so the user can fix the cart in one pass.
type UnavailableBooksError struct {
	BookIDs []uint
}

func (e *UnavailableBooksError) Error() string {
	return fmt.Sprintf("unavailable books in cart: %v", e.BookIDs)
}

// PartialCommitError marks a storage failure inside the commit phase.
// It is distinct from business-rule aborts so operators can tell "user
// did something invalid" apart from "system broke mid-commit".
type PartialCommitError struct {
	Stage string
	Err   error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("commit failed at %s: %s", e.Stage, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}
