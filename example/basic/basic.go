package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nutrition"
)

func main() {
	ctx := context.Background()

	// Open a SQLite store and seed it with the built in catalog
	dir, err := os.MkdirTemp("", "nutrition-basic")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	store, err := nutrition.OpenStore(filepath.Join(dir, "nutrition.db"))
	if err != nil {
		panic(err)
	}
	defer store.Close()

	catalog, err := nutrition.DefaultCatalog()
	if err != nil {
		panic(err)
	}
	if err := store.ImportCatalog(ctx, catalog); err != nil {
		panic(err)
	}

	// Route every lookup through one registry so units are shared
	reg := nutrition.NewRegistry()
	store.Install(reg)

	sys, err := nutrition.NewUnitSystemFromRegistry(ctx, reg)
	if err != nil {
		panic(err)
	}

	unit := func(name string) *nutrition.Unit {
		u, err := reg.Unit(ctx, name)
		if err != nil {
			panic(err)
		}
		return u
	}

	// Plain catalog conversion
	kg, err := sys.ConvertQuantity(nutrition.NewQuantity(unit("gram"), 2000), "kilogram")
	if err != nil {
		panic(err)
	}
	fmt.Printf("2000 g is %s\n", kg)

	// Mass and volume are separate islands until an ingredient bridges them
	if _, err := sys.ConvertQuantity(nutrition.NewQuantity(unit("cup"), 1), "gram"); err != nil {
		fmt.Println("cup -> gram:", err)
	}

	// Flour knows its own density
	flour := nutrition.NewIngredient("flour")
	flour.Cost = 1.8
	flour.CostQuantity = nutrition.NewQuantity(unit("kilogram"), 1)
	if err := flour.AddConversion(nutrition.MustUnitConversion(
		nutrition.NewQuantity(unit("cup"), 1),
		nutrition.NewQuantity(unit("gram"), 125),
	)); err != nil {
		panic(err)
	}
	flour.Nutrients["protein"] = nutrition.NutrientRatio{
		Nutrient: nutrition.NewQuantity(unit("gram"), 10),
		Subject:  nutrition.NewQuantity(unit("gram"), 100),
	}
	if err := store.SaveIngredient(ctx, flour); err != nil {
		panic(err)
	}

	grams, err := flour.ConvertQuantity(sys, nutrition.NewQuantity(unit("tablespoon"), 3), "gram")
	if err != nil {
		panic(err)
	}
	fmt.Printf("3 tbsp of flour is %s\n", grams)
	fmt.Printf("flour can be measured in %v\n", flour.AvailableUnitNames(sys))

	// A recipe resolves its ingredients through the registry
	bread := nutrition.NewRecipe("flatbread", 4, nutrition.RecipeIngredient{
		Ingredient: "flour",
		Quantity:   nutrition.NewQuantity(unit("cup"), 2),
	})
	cost, err := bread.TotalCost(ctx, reg, sys)
	if err != nil {
		panic(err)
	}
	protein, err := bread.NutrientTotal(ctx, reg, sys, "protein")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s: cost %.2f (%.2f per serving), protein %.1f g\n",
		bread.Name, cost, bread.PerServing(cost), protein)
}
