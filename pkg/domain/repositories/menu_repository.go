package repositories

import (
	"context"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// MenuRepository provides access to menus and their recipe lines
type MenuRepository interface {
	GetMenu(ctx context.Context, id entities.MenuID) (*entities.Menu, error)
	// GetAllMenus returns menus in insertion order.
	GetAllMenus(ctx context.Context) ([]*entities.Menu, error)
	SaveMenu(ctx context.Context, menu *entities.Menu) error
	// GetRecipeLines returns the menu's lines in insertion order.
	GetRecipeLines(ctx context.Context, id entities.MenuID) ([]entities.RecipeLine, error)
	AddRecipeLine(ctx context.Context, line entities.RecipeLine) error
	// GetAllRecipeLines returns every line, including lines of unknown menus.
	GetAllRecipeLines(ctx context.Context) ([]entities.RecipeLine, error)
}
