package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/kitchenledger/pkg/domain/entities"
)

// RecipeIssueKind classifies a recipe data problem
type RecipeIssueKind string

const (
	IssueDanglingIngredient RecipeIssueKind = "dangling_ingredient"
	IssueUnknownMenu        RecipeIssueKind = "unknown_menu"
	IssueNonPositiveQty     RecipeIssueKind = "non_positive_qty"
	IssueUnrecognizedUnit   RecipeIssueKind = "unrecognized_unit"
	IssueEmptyRecipe        RecipeIssueKind = "empty_recipe"
	IssueKeyCollision       RecipeIssueKind = "key_collision"
)

// Blocking reports whether the issue makes a sale through the menu fail
func (k RecipeIssueKind) Blocking() bool {
	switch k {
	case IssueDanglingIngredient, IssueUnknownMenu, IssueEmptyRecipe:
		return true
	default:
		return false
	}
}

// RecipeIssue describes one problem found in menu, recipe or catalog data
type RecipeIssue struct {
	Kind         RecipeIssueKind
	MenuID       entities.MenuID
	IngredientID entities.IngredientID
	Detail       string
}

// ValidationResult contains the results of recipe validation
type ValidationResult struct {
	Issues []RecipeIssue
	Errors []string
}

// HasBlockingIssues reports whether any issue would make a sale fail
func (r *ValidationResult) HasBlockingIssues() bool {
	for _, issue := range r.Issues {
		if issue.Kind.Blocking() {
			return true
		}
	}
	return false
}

// RecipeValidator checks recipe data integrity against the catalog without mutating anything
type RecipeValidator struct {
	converter *UnitConverter
}

// NewRecipeValidator creates a new recipe validator
func NewRecipeValidator(converter *UnitConverter) *RecipeValidator {
	return &RecipeValidator{converter: converter}
}

// Validate performs validation on menus, their recipe lines and the referenced ingredients
func (v *RecipeValidator) Validate(
	menus []*entities.Menu,
	lines []entities.RecipeLine,
	ingredients []*entities.Ingredient,
) *ValidationResult {
	result := &ValidationResult{
		Issues: make([]RecipeIssue, 0),
		Errors: make([]string, 0),
	}

	menuIDs := make(map[entities.MenuID]bool, len(menus))
	lineCount := make(map[entities.MenuID]int, len(menus))
	for _, menu := range menus {
		menuIDs[menu.ID] = true
	}

	for _, line := range lines {
		if !menuIDs[line.MenuID] {
			v.add(result, RecipeIssue{
				Kind:         IssueUnknownMenu,
				MenuID:       line.MenuID,
				IngredientID: line.IngredientID,
				Detail:       fmt.Sprintf("recipe line references unknown menu %s", line.MenuID),
			})
			continue
		}
		lineCount[line.MenuID]++

		ing := ResolveIngredient(ingredients, string(line.IngredientID))
		if ing == nil {
			v.add(result, RecipeIssue{
				Kind:         IssueDanglingIngredient,
				MenuID:       line.MenuID,
				IngredientID: line.IngredientID,
				Detail:       fmt.Sprintf("menu %s references unknown ingredient %s", line.MenuID, line.IngredientID),
			})
			continue
		}

		if !line.QtyPerServing.IsPositive() {
			v.add(result, RecipeIssue{
				Kind:         IssueNonPositiveQty,
				MenuID:       line.MenuID,
				IngredientID: line.IngredientID,
				Detail:       fmt.Sprintf("quantity per serving is %s; the line never deducts stock", line.QtyPerServing),
			})
			continue
		}

		conv := v.converter.ToStockUnits(decimal.NewFromInt(1), line.Unit, ing)
		if conv.Assumption != nil {
			v.add(result, RecipeIssue{
				Kind:         IssueUnrecognizedUnit,
				MenuID:       line.MenuID,
				IngredientID: line.IngredientID,
				Detail:       conv.Note(),
			})
		}
	}

	for _, menu := range menus {
		if lineCount[menu.ID] == 0 {
			v.add(result, RecipeIssue{
				Kind:   IssueEmptyRecipe,
				MenuID: menu.ID,
				Detail: fmt.Sprintf("menu %s has no recipe lines", menu.ID),
			})
		}
	}

	for _, issue := range v.DetectKeyCollisions(ingredients) {
		v.add(result, issue)
	}

	return result
}

// DetectKeyCollisions finds ingredients whose id equals another ingredient's id or
// name case-insensitively. Lookups resolve these deterministically, but the data is
// ambiguous to whoever typed the key.
func (v *RecipeValidator) DetectKeyCollisions(ingredients []*entities.Ingredient) []RecipeIssue {
	issues := make([]RecipeIssue, 0)
	seenID := make(map[string]entities.IngredientID, len(ingredients))
	seenName := make(map[string]entities.IngredientID, len(ingredients))

	for _, ing := range ingredients {
		id := strings.ToLower(strings.TrimSpace(string(ing.ID)))
		name := strings.ToLower(strings.TrimSpace(ing.Name))

		if other, exists := seenID[id]; exists {
			issues = append(issues, RecipeIssue{
				Kind:         IssueKeyCollision,
				IngredientID: ing.ID,
				Detail:       fmt.Sprintf("id %s duplicates id of %s", ing.ID, other),
			})
		} else if other, exists := seenName[id]; exists && other != ing.ID {
			issues = append(issues, RecipeIssue{
				Kind:         IssueKeyCollision,
				IngredientID: ing.ID,
				Detail:       fmt.Sprintf("id %s equals the name of %s", ing.ID, other),
			})
		}
		if other, exists := seenID[name]; exists && other != ing.ID {
			issues = append(issues, RecipeIssue{
				Kind:         IssueKeyCollision,
				IngredientID: ing.ID,
				Detail:       fmt.Sprintf("name %q equals the id of %s", ing.Name, other),
			})
		}

		seenID[id] = ing.ID
		if _, exists := seenName[name]; !exists {
			seenName[name] = ing.ID
		}
	}

	return issues
}

// ResolveIngredient applies the catalog lookup rule: an id match beats a name match,
// and the first inserted ingredient wins a tie.
func ResolveIngredient(ingredients []*entities.Ingredient, key string) *entities.Ingredient {
	var best *entities.Ingredient
	bestRank := entities.NoMatch
	for _, ing := range ingredients {
		if rank := ing.Match(key); rank > bestRank {
			best, bestRank = ing, rank
			if rank == entities.IDMatch {
				break
			}
		}
	}
	return best
}

func (v *RecipeValidator) add(result *ValidationResult, issue RecipeIssue) {
	result.Issues = append(result.Issues, issue)
	if issue.Kind.Blocking() {
		result.Errors = append(result.Errors, issue.Detail)
	}
}
