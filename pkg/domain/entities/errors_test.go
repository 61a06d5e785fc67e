package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			"validation",
			NewValidationError("qty", "must be positive"),
			ErrValidation,
			"validation failed on qty: must be positive",
		},
		{
			"not found",
			NewNotFoundError("menu", "M9"),
			ErrNotFound,
			"menu not found: M9",
		},
		{
			"no recipe",
			&NoRecipeError{MenuID: "M1"},
			ErrNoRecipe,
			"menu M1 has no recipe lines",
		},
		{
			"insufficient stock",
			NewInsufficientStockError("ING1", decimal.NewFromInt(99999), decimal.NewFromInt(50)),
			ErrInsufficientStock,
			"insufficient stock for ING1: required 99999, available 50, short 99949",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("recording sale: %w", tc.err)
			if !errors.Is(wrapped, tc.sentinel) {
				t.Errorf("Expected wrapped error to match sentinel %v", tc.sentinel)
			}
			if tc.err.Error() != tc.message {
				t.Errorf("Expected message %q, got %q", tc.message, tc.err.Error())
			}
		})
	}
}

func TestInsufficientStockError_Shortfall(t *testing.T) {
	err := NewInsufficientStockError("ING1", decimal.NewFromInt(99999), decimal.NewFromInt(50))

	var stockErr *InsufficientStockError
	if !errors.As(fmt.Errorf("wrap: %w", err), &stockErr) {
		t.Fatal("Expected errors.As to find *InsufficientStockError")
	}
	if !stockErr.Shortfall.Equal(decimal.NewFromInt(99949)) {
		t.Errorf("Expected shortfall 99949, got %s", stockErr.Shortfall)
	}
}
