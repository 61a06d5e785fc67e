package sales

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarkupTable_For(t *testing.T) {
	table := MarkupTable{"default": decimal.RequireFromString("1.5"), "grab": decimal.NewFromInt(2)}

	testCases := []struct {
		platform string
		want     string
	}{
		{"grab", "2"},
		{" GRAB ", "2"},
		{"walk-in", "1.5"},
		{"", "1.5"},
	}
	for _, tc := range testCases {
		if got := table.For(tc.platform); got.String() != tc.want {
			t.Errorf("For(%q): expected %s, got %s", tc.platform, tc.want, got)
		}
	}

	if got := (MarkupTable{}).For("grab"); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected empty table to fall back to 1, got %s", got)
	}
}
