package entities

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrNoRecipe          = errors.New("menu has no recipe")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError reports a rejected input. Nothing is mutated when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown ingredient, menu or dangling recipe reference
type NotFoundError struct {
	Kind string // "ingredient", "menu", "lot"
	Key  string
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NoRecipeError reports a menu that exists but has zero recipe lines
type NoRecipeError struct {
	MenuID MenuID
}

func (e *NoRecipeError) Error() string {
	return fmt.Sprintf("menu %s has no recipe lines", e.MenuID)
}

func (e *NoRecipeError) Is(target error) bool { return target == ErrNoRecipe }

// InsufficientStockError reports a deduction that the remaining lots cannot satisfy
type InsufficientStockError struct {
	IngredientID IngredientID
	Required     decimal.Decimal
	Available    decimal.Decimal
	Shortfall    decimal.Decimal
}

// NewInsufficientStockError creates an InsufficientStockError with the shortfall derived
func NewInsufficientStockError(id IngredientID, required, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		IngredientID: id,
		Required:     required,
		Available:    available,
		Shortfall:    required.Sub(available),
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %s, available %s, short %s",
		e.IngredientID, e.Required, e.Available, e.Shortfall)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
