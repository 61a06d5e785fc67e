// Package recipe turns a menu sale into per-ingredient stock requirements.
package recipe

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/application/services/ledger"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/domain/services"
)

// IngredientFinder resolves a recipe line's ingredient reference
type IngredientFinder interface {
	Find(ctx context.Context, key string) (*entities.Ingredient, error)
	All(ctx context.Context) ([]*entities.Ingredient, error)
}

// CostSource returns the current unit cost of an ingredient
type CostSource interface {
	CurrentCost(ctx context.Context, id entities.IngredientID) (decimal.Decimal, error)
}

// LineConversion traces one recipe line through the unit converter
type LineConversion struct {
	Line     entities.RecipeLine `json:"line"`
	NeedQty  decimal.Decimal     `json:"need_qty"`
	StockQty decimal.Decimal     `json:"stock_qty"`
	Note     string              `json:"note"`
}

// Expansion is a menu sale broken down into stock-unit requirements. Requirements
// has one entry per distinct ingredient in order of first appearance, with zero
// quantities dropped.
type Expansion struct {
	Menu         entities.Menu             `json:"menu"`
	Servings     decimal.Decimal           `json:"servings"`
	Lines        []LineConversion          `json:"lines"`
	Requirements []ledger.Requirement      `json:"requirements"`
	Warnings     []entities.UnitAssumption `json:"warnings,omitempty"`
}

// PlateCost is the cost of one menu portion at current weighted-average costs
type PlateCost struct {
	Menu    entities.Menu                             `json:"menu"`
	Cost    decimal.Decimal                           `json:"cost"`
	PerItem map[entities.IngredientID]decimal.Decimal `json:"per_ingredient"`
	Margin  decimal.Decimal                           `json:"margin"`
}

type Service struct {
	menus       repositories.MenuRepository
	ingredients IngredientFinder
	converter   *services.UnitConverter
	validator   *services.RecipeValidator
	logger      *zap.Logger
}

func NewService(menus repositories.MenuRepository, ingredients IngredientFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	converter := services.NewUnitConverter()
	return &Service{
		menus:       menus,
		ingredients: ingredients,
		converter:   converter,
		validator:   services.NewRecipeValidator(converter),
		logger:      logger,
	}
}

// FindMenu resolves a menu by id or name, case-insensitively. An id match beats a
// name match; among equal matches the first inserted menu wins.
func (s *Service) FindMenu(ctx context.Context, key string) (*entities.Menu, error) {
	menus, err := s.menus.GetAllMenus(ctx)
	if err != nil {
		return nil, err
	}
	var best *entities.Menu
	bestRank := entities.NoMatch
	for _, m := range menus {
		if rank := m.Match(key); rank > bestRank {
			best, bestRank = m, rank
			if rank == entities.IDMatch {
				break
			}
		}
	}
	if best == nil {
		return nil, entities.NewNotFoundError("menu", key)
	}
	return best, nil
}

// ExpandSale computes the stock each ingredient loses when servings of the menu are
// sold. A missing menu or ingredient is an error, as is a menu without lines.
func (s *Service) ExpandSale(ctx context.Context, menuKey string, servings decimal.Decimal) (*Expansion, error) {
	if !servings.IsPositive() {
		return nil, entities.NewValidationError("servings", fmt.Sprintf("servings must be positive, got %s", servings))
	}
	menu, err := s.FindMenu(ctx, menuKey)
	if err != nil {
		return nil, err
	}
	lines, err := s.menus.GetRecipeLines(ctx, menu.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &entities.NoRecipeError{MenuID: menu.ID}
	}

	exp := &Expansion{
		Menu:     *menu,
		Servings: servings,
		Lines:    make([]LineConversion, 0, len(lines)),
	}
	index := make(map[entities.IngredientID]int)
	for _, line := range lines {
		ing, err := s.ingredients.Find(ctx, string(line.IngredientID))
		if err != nil {
			return nil, fmt.Errorf("menu %s: %w", menu.ID, err)
		}

		need := line.QtyPerServing.Mul(servings)
		conv := s.converter.ToStockUnits(need, line.Unit, ing)
		exp.Lines = append(exp.Lines, LineConversion{Line: line, NeedQty: need, StockQty: conv.StockQty, Note: conv.Note()})
		if conv.Assumption != nil {
			exp.Warnings = append(exp.Warnings, *conv.Assumption)
			s.logger.Warn("recipe unit assumed 1:1",
				zap.String("menu_id", string(menu.ID)),
				zap.String("ingredient_id", string(ing.ID)),
				zap.String("unit", conv.SourceUnit))
		}
		if !conv.StockQty.IsPositive() {
			continue
		}

		if i, ok := index[ing.ID]; ok {
			exp.Requirements[i].Qty = exp.Requirements[i].Qty.Add(conv.StockQty)
			continue
		}
		index[ing.ID] = len(exp.Requirements)
		exp.Requirements = append(exp.Requirements, ledger.Requirement{IngredientID: ing.ID, Qty: conv.StockQty})
	}

	if len(exp.Requirements) == 0 {
		return nil, entities.NewValidationError("servings", fmt.Sprintf("menu %s moves no stock", menu.ID))
	}
	return exp, nil
}

// PlateCost prices one serving of the menu at the ingredients' current costs
func (s *Service) PlateCost(ctx context.Context, menuKey string, costs CostSource) (*PlateCost, error) {
	exp, err := s.ExpandSale(ctx, menuKey, decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	pc := &PlateCost{Menu: exp.Menu, PerItem: make(map[entities.IngredientID]decimal.Decimal, len(exp.Requirements))}
	for _, r := range exp.Requirements {
		unit, err := costs.CurrentCost(ctx, r.IngredientID)
		if err != nil {
			return nil, err
		}
		cost := unit.Mul(r.Qty)
		pc.PerItem[r.IngredientID] = cost
		pc.Cost = pc.Cost.Add(cost)
	}
	pc.Margin = exp.Menu.Price.Sub(pc.Cost)
	return pc, nil
}

// Validate checks every menu, recipe line and referenced ingredient without changing anything
func (s *Service) Validate(ctx context.Context) (*services.ValidationResult, error) {
	menus, err := s.menus.GetAllMenus(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.menus.GetAllRecipeLines(ctx)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.ingredients.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(menus, lines, ingredients), nil
}
