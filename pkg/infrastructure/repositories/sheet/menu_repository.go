package sheet

import (
	"context"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
)

// MenuRepository stores menus in the Menu table and their lines in MenuRecipes
type MenuRepository struct {
	book *Book
}

var _ repositories.MenuRepository = (*MenuRepository)(nil)

func (r *MenuRepository) GetMenu(ctx context.Context, id entities.MenuID) (*entities.Menu, error) {
	all, err := r.GetAllMenus(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range all {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, entities.NewNotFoundError("menu", string(id))
}

func (r *MenuRepository) GetAllMenus(ctx context.Context) ([]*entities.Menu, error) {
	rows, err := r.book.store.ReadAll(ctx, TableMenu)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Menu, 0, len(rows))
	for _, row := range rows {
		price, err := parseDecimal(TableMenu, "price", row)
		if err != nil {
			return nil, err
		}
		out = append(out, &entities.Menu{
			ID:    entities.MenuID(row.Get("menu_id")),
			Name:  row.Get("name"),
			Price: price,
		})
	}
	return out, nil
}

func (r *MenuRepository) SaveMenu(ctx context.Context, menu *entities.Menu) error {
	values := map[string]string{
		"menu_id": string(menu.ID),
		"name":    menu.Name,
		"price":   menu.Price.String(),
	}
	ref, found, err := r.book.lookup(ctx, TableMenu, "menu_id", string(menu.ID))
	if err != nil {
		return err
	}
	if found {
		return r.book.updateCells(ctx, TableMenu, ref, values)
	}
	ref, err = r.book.store.AppendRow(ctx, TableMenu, values)
	if err != nil {
		return err
	}
	r.book.remember(TableMenu, string(menu.ID), ref)
	return nil
}

func (r *MenuRepository) GetRecipeLines(ctx context.Context, id entities.MenuID) ([]entities.RecipeLine, error) {
	all, err := r.GetAllRecipeLines(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.RecipeLine, 0)
	for _, line := range all {
		if line.MenuID == id {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *MenuRepository) GetAllRecipeLines(ctx context.Context) ([]entities.RecipeLine, error) {
	rows, err := r.book.store.ReadAll(ctx, TableRecipes)
	if err != nil {
		return nil, err
	}
	out := make([]entities.RecipeLine, 0, len(rows))
	for _, row := range rows {
		qty, err := parseDecimal(TableRecipes, "qty_per_serving", row)
		if err != nil {
			return nil, err
		}
		out = append(out, entities.RecipeLine{
			MenuID:        entities.MenuID(row.Get("menu_id")),
			IngredientID:  entities.IngredientID(row.Get("ingredient_id")),
			QtyPerServing: qty,
			Unit:          row.Get("unit"),
			Note:          row.Get("note"),
		})
	}
	return out, nil
}

func (r *MenuRepository) AddRecipeLine(ctx context.Context, line entities.RecipeLine) error {
	_, err := r.book.store.AppendRow(ctx, TableRecipes, map[string]string{
		"menu_id":         string(line.MenuID),
		"ingredient_id":   string(line.IngredientID),
		"qty_per_serving": line.QtyPerServing.String(),
		"unit":            line.Unit,
		"note":            line.Note,
	})
	return err
}
