package nutrition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type RecipeIngredient struct {
	Ingredient string
	Quantity   Quantity
}

type Recipe struct {
	ID          uuid.UUID
	Name        string
	Serves      int
	Ingredients []RecipeIngredient
}

func NewRecipe(name string, serves int, ingredients ...RecipeIngredient) *Recipe {
	return &Recipe{
		ID:          uuid.New(),
		Name:        name,
		Serves:      serves,
		Ingredients: ingredients,
	}
}

// TotalCost sums the cost of every ingredient line.
func (r *Recipe) TotalCost(ctx context.Context, reg *Registry, sys *UnitSystem) (float64, error) {
	var total float64
	for _, line := range r.Ingredients {
		ing, err := reg.Ingredient(ctx, line.Ingredient)
		if err != nil {
			return 0, fmt.Errorf("recipe %s: %w", r.Name, err)
		}
		cost, err := ing.CostOf(sys, line.Quantity)
		if err != nil {
			return 0, fmt.Errorf("recipe %s: %w", r.Name, err)
		}
		total += cost
	}
	return total, nil
}

// NutrientTotal sums a nutrient over the recipe, in grams. Ingredients with
// no data for the nutrient contribute nothing.
func (r *Recipe) NutrientTotal(ctx context.Context, reg *Registry, sys *UnitSystem, nutrient string) (float64, error) {
	var total float64
	for _, line := range r.Ingredients {
		ing, err := reg.Ingredient(ctx, line.Ingredient)
		if err != nil {
			return 0, fmt.Errorf("recipe %s: %w", r.Name, err)
		}
		if _, ok := ing.Nutrients[nutrient]; !ok {
			continue
		}
		amount, err := ing.NutrientAmount(sys, nutrient, line.Quantity)
		if err != nil {
			return 0, fmt.Errorf("recipe %s: %w", r.Name, err)
		}
		v, _ := amount.Value()
		total += v
	}
	return total, nil
}

func (r *Recipe) PerServing(v float64) float64 {
	if r.Serves <= 0 {
		return v
	}
	return v / float64(r.Serves)
}
