package memory

import (
	"context"
	"sync"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
	"github.com/vsinha/kitchenledger/pkg/domain/repositories"
)

// MenuRepository provides in-memory menu and recipe storage
type MenuRepository struct {
	mu       sync.RWMutex
	menus    []entities.Menu
	menusMap map[entities.MenuID]int
	lines    []entities.RecipeLine
	// lineIndex maps a menu to positions in lines, in insertion order.
	lineIndex map[entities.MenuID][]int
}

// NewMenuRepository creates a new in-memory menu repository
func NewMenuRepository() *MenuRepository {
	return &MenuRepository{
		menusMap:  make(map[entities.MenuID]int),
		lineIndex: make(map[entities.MenuID][]int),
	}
}

// Verify interface compliance
var _ repositories.MenuRepository = (*MenuRepository)(nil)

func (r *MenuRepository) GetMenu(_ context.Context, id entities.MenuID) (*entities.Menu, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.menusMap[id]
	if !exists {
		return nil, entities.NewNotFoundError("menu", string(id))
	}
	menu := r.menus[index]
	return &menu, nil
}

func (r *MenuRepository) GetAllMenus(_ context.Context) ([]*entities.Menu, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Menu, 0, len(r.menus))
	for i := range r.menus {
		menu := r.menus[i]
		out = append(out, &menu)
	}
	return out, nil
}

func (r *MenuRepository) SaveMenu(_ context.Context, menu *entities.Menu) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.menusMap[menu.ID]; exists {
		r.menus[index] = *menu
		return nil
	}
	r.menusMap[menu.ID] = len(r.menus)
	r.menus = append(r.menus, *menu)
	return nil
}

func (r *MenuRepository) GetRecipeLines(_ context.Context, id entities.MenuID) ([]entities.RecipeLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.RecipeLine, 0, len(r.lineIndex[id]))
	for _, i := range r.lineIndex[id] {
		out = append(out, r.lines[i])
	}
	return out, nil
}

// AddRecipeLine stores a line even when its menu is unknown; the validator reports those.
func (r *MenuRepository) AddRecipeLine(_ context.Context, line entities.RecipeLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lineIndex[line.MenuID] = append(r.lineIndex[line.MenuID], len(r.lines))
	r.lines = append(r.lines, line)
	return nil
}

// GetAllRecipeLines returns every stored line in insertion order
func (r *MenuRepository) GetAllRecipeLines(_ context.Context) ([]entities.RecipeLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.RecipeLine(nil), r.lines...), nil
}
