// Package seed applies a CSV seed directory to the kitchen through the services,
// so imported purchases go through the ledger like any other.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/application/dto"
	"github.com/vsinha/kitchenledger/pkg/application/services/catalog"
	"github.com/vsinha/kitchenledger/pkg/application/services/sales"
	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/repositories/csv"
)

// Summary counts what an import changed
type Summary struct {
	IngredientsCreated int                       `json:"ingredients_created"`
	IngredientsUpdated int                       `json:"ingredients_updated"`
	Menus              int                       `json:"menus"`
	RecipeLines        int                       `json:"recipe_lines"`
	Purchases          int                       `json:"purchases"`
	Warnings           []entities.UnitAssumption `json:"warnings,omitempty"`
}

type Importer struct {
	catalog  *catalog.Service
	menus    repositories.MenuRepository
	recorder *sales.Recorder
	logger   *zap.Logger
}

func NewImporter(cat *catalog.Service, menus repositories.MenuRepository, recorder *sales.Recorder, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{catalog: cat, menus: menus, recorder: recorder, logger: logger}
}

// Import upserts ingredients and menus, adds recipe lines not already present, and
// records every purchase. It stops at the first failure; earlier rows stay applied.
func (im *Importer) Import(ctx context.Context, s *csv.Seed) (*Summary, error) {
	sum := &Summary{}

	for _, ing := range s.Ingredients {
		_, created, err := im.catalog.Upsert(ctx, string(ing.ID), entities.IngredientPatch{
			Name:            &ing.Name,
			StockUnit:       &ing.StockUnit,
			BuyUnit:         &ing.BuyUnit,
			BuyToStockRatio: &ing.BuyToStockRatio,
			MinStock:        &ing.MinStock,
		})
		if err != nil {
			return sum, fmt.Errorf("ingredient %s: %w", ing.ID, err)
		}
		if created {
			sum.IngredientsCreated++
		} else {
			sum.IngredientsUpdated++
		}
	}

	for _, m := range s.Menus {
		if err := im.menus.SaveMenu(ctx, m); err != nil {
			return sum, fmt.Errorf("menu %s: %w", m.ID, err)
		}
		sum.Menus++
	}

	existing, err := im.menus.GetAllRecipeLines(ctx)
	if err != nil {
		return sum, err
	}
	for _, line := range s.Recipes {
		if containsLine(existing, *line) {
			continue
		}
		if err := im.menus.AddRecipeLine(ctx, *line); err != nil {
			return sum, fmt.Errorf("recipe line %s/%s: %w", line.MenuID, line.IngredientID, err)
		}
		existing = append(existing, *line)
		sum.RecipeLines++
	}

	for i, p := range s.Purchases {
		res, err := im.recorder.RecordPurchase(ctx, dto.PurchaseRequest{
			Ingredient: p.Ingredient,
			Qty:        p.Qty,
			Unit:       p.Unit,
			TotalPrice: p.TotalPrice,
			Date:       p.PurchaseDate,
		})
		if err != nil {
			return sum, fmt.Errorf("purchase %d (%s): %w", i+1, p.Ingredient, err)
		}
		sum.Warnings = append(sum.Warnings, res.Warnings...)
		sum.Purchases++
	}

	im.logger.Info("seed imported",
		zap.Int("ingredients_created", sum.IngredientsCreated),
		zap.Int("ingredients_updated", sum.IngredientsUpdated),
		zap.Int("menus", sum.Menus),
		zap.Int("recipe_lines", sum.RecipeLines),
		zap.Int("purchases", sum.Purchases))
	return sum, nil
}

func containsLine(lines []entities.RecipeLine, l entities.RecipeLine) bool {
	for _, x := range lines {
		if x.MenuID == l.MenuID && x.IngredientID == l.IngredientID &&
			x.QtyPerServing.Equal(l.QtyPerServing) && x.Unit == l.Unit && x.Note == l.Note {
			return true
		}
	}
	return false
}
