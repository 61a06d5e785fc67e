package sales

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPlatform names the markup applied to platforms without their own entry
const DefaultPlatform = "default"

// MarkupTable maps a sales platform to the multiplier applied to cost when an
// ingredient sale carries no price. Keys are matched case-insensitively.
type MarkupTable map[string]decimal.Decimal

// For returns the platform's markup, then the default entry, then 1
func (t MarkupTable) For(platform string) decimal.Decimal {
	if m, ok := t[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return m
	}
	if m, ok := t[DefaultPlatform]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}
