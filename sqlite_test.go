package nutrition

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "nutrition.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func importedStore(t *testing.T) (*Store, *CatalogFile) {
	t.Helper()
	s := openTestStore(t)
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, s.ImportCatalog(context.Background(), cat))
	return s, cat
}

func TestStore_ImportCatalog(t *testing.T) {
	s, cat := importedStore(t)
	ctx := context.Background()

	u, err := s.LoadUnit(ctx, "pound")
	require.NoError(t, err)
	require.Equal(t, UnitTypeMass, u.Type)
	require.Equal(t, "lbs", u.PluralAbbr)
	require.Equal(t, []string{"pounds"}, u.Aliases)

	_, err = s.LoadUnit(ctx, "furlong")
	require.ErrorIs(t, err, ErrUnitNotFound)

	pairs, err := s.ConversionPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, len(cat.Conversions()))
	for i, c := range cat.Conversions() {
		require.Equal(t, c.UnitNames(), pairs[i])
	}

	// Importing again replaces rather than duplicates.
	require.NoError(t, s.ImportCatalog(ctx, cat))
	pairs, err = s.ConversionPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, len(cat.Conversions()))
}

func TestStore_Catalog(t *testing.T) {
	s, cat := importedStore(t)

	got, err := s.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Units(), len(cat.Units()))
	for i, u := range cat.Units() {
		require.True(t, u.Equal(got.Units()[i]))
	}
	require.Len(t, got.Conversions(), len(cat.Conversions()))
	for i, c := range cat.Conversions() {
		require.True(t, c.Equal(got.Conversions()[i]), c.String())
	}
}

func TestStore_LoadConversion(t *testing.T) {
	s, cat := importedStore(t)
	ctx := context.Background()

	c, err := s.LoadConversion(ctx, unitMap{"gram": gram, "kilogram": kilogram}, NewUnitPair("kilogram", "gram"))
	require.NoError(t, err)
	want, _ := cat.Conversion(NewUnitPair("gram", "kilogram"))
	require.True(t, want.Equal(c))
	q, err := c.Quantity("gram")
	require.NoError(t, err)
	require.Same(t, gram, q.Unit())

	_, err = s.LoadConversion(ctx, unitMap{}, NewUnitPair("cup", "gram"))
	require.ErrorIs(t, err, ErrUnitConversionNotFound)
}

func apple(t *testing.T, reg *Registry) *Ingredient {
	t.Helper()
	ctx := context.Background()
	unit := func(name string) *Unit {
		u, err := reg.Unit(ctx, name)
		require.NoError(t, err)
		return u
	}
	ing := NewIngredient("apple")
	ing.Cost = 3
	ing.CostQuantity = NewQuantity(unit("kilogram"), 1)
	ing.Flags = []string{"vegan", "fruit"}
	require.NoError(t, ing.AddConversion(conv(t, NewQuantity(unit("whole"), 1), NewQuantity(unit("gram"), 182))))
	require.NoError(t, ing.AddConversion(conv(t, NewQuantity(unit("cup"), 1), NewQuantity(unit("gram"), 125))))
	ing.Nutrients["fibre"] = NutrientRatio{
		Nutrient: NewQuantity(unit("gram"), 2.4),
		Subject:  NewQuantity(unit("gram"), 100),
	}
	return ing
}

func TestStore_Ingredient(t *testing.T) {
	s, _ := importedStore(t)
	reg := NewRegistry()
	s.Install(reg)
	ctx := context.Background()

	ing := apple(t, reg)
	require.NoError(t, s.SaveIngredient(ctx, ing))

	got, err := reg.Ingredient(ctx, "apple")
	require.NoError(t, err)
	require.Equal(t, ing.ID, got.ID)
	require.Equal(t, 3.0, got.Cost)
	require.True(t, got.CostQuantity.Equal(ing.CostQuantity))
	require.Equal(t, []string{"vegan", "fruit"}, got.Flags)
	require.Len(t, got.Conversions(), 2)
	for i, c := range ing.Conversions() {
		require.True(t, c.Equal(got.Conversions()[i]))
	}
	require.Equal(t, ing.Nutrients, got.Nutrients)

	kg, err := reg.Unit(ctx, "kilogram")
	require.NoError(t, err)
	require.Same(t, kg, got.CostQuantity.Unit())

	again, err := reg.Ingredient(ctx, "apple")
	require.NoError(t, err)
	require.Same(t, got, again)

	_, err = reg.Ingredient(ctx, "durian")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveIngredientReplaces(t *testing.T) {
	s, _ := importedStore(t)
	reg := NewRegistry()
	s.Install(reg)
	ctx := context.Background()

	ing := apple(t, reg)
	ing.ID = uuid.Nil
	require.NoError(t, s.SaveIngredient(ctx, ing))
	require.NotEqual(t, uuid.Nil, ing.ID)

	require.NoError(t, ing.RemoveConversion(NewUnitPair("cup", "gram")))
	ing.Cost = 4
	require.NoError(t, s.SaveIngredient(ctx, ing))

	got, err := s.LoadIngredient(ctx, reg, "apple")
	require.NoError(t, err)
	require.Equal(t, 4.0, got.Cost)
	require.Len(t, got.Conversions(), 1)
}

func TestStore_SaveIngredientUndefinedConversion(t *testing.T) {
	s, _ := importedStore(t)
	ing := NewIngredient("mystery")
	require.NoError(t, ing.AddConversion(conv(t, UndefinedQuantity(whole), NewQuantity(gram, 10))))

	err := s.SaveIngredient(context.Background(), ing)
	require.ErrorIs(t, err, ErrUndefinedConversion)
}

func TestStore_RegistryDrivesUnitSystem(t *testing.T) {
	s, _ := importedStore(t)
	reg := NewRegistry()
	s.Install(reg)
	ctx := context.Background()

	sys, err := NewUnitSystemFromRegistry(ctx, reg)
	require.NoError(t, err)

	kg, err := reg.Unit(ctx, "kilogram")
	require.NoError(t, err)
	got, err := sys.ConvertQuantity(NewQuantity(kg, 1.5), "gram")
	require.NoError(t, err)
	v, err := got.Value()
	require.NoError(t, err)
	require.InDelta(t, 1500, v, 1e-9)

	g, err := reg.Unit(ctx, "gram")
	require.NoError(t, err)
	require.Same(t, g, got.Unit())
}

func TestStore_ValuesWithCommasSurviveReload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	floz := &Unit{Name: "fluid ounce", Type: UnitTypeVolume, Aliases: []string{"fl oz, US", "ounce (fluid)"}}
	ml := &Unit{Name: "millilitre", Type: UnitTypeVolume}
	cat, err := NewCatalog(nil, []*Unit{floz, ml}, []*UnitConversion{
		conv(t, NewQuantity(floz, 1), NewQuantity(ml, 29.5735)),
	})
	require.NoError(t, err)
	require.NoError(t, s.ImportCatalog(ctx, cat))

	u, err := s.LoadUnit(ctx, "fluid ounce")
	require.NoError(t, err)
	require.Equal(t, []string{"fl oz, US", "ounce (fluid)"}, u.Aliases)

	ing := NewIngredient("yoghurt")
	ing.Flags = []string{"low-fat, greek", "vegetarian"}
	require.NoError(t, s.SaveIngredient(ctx, ing))
	got, err := s.LoadIngredient(ctx, unitMap{"fluid ounce": floz, "millilitre": ml}, "yoghurt")
	require.NoError(t, err)
	require.Equal(t, []string{"low-fat, greek", "vegetarian"}, got.Flags)
}

func TestStore_DeleteIngredientCascades(t *testing.T) {
	s, _ := importedStore(t)
	reg := NewRegistry()
	s.Install(reg)
	ctx := context.Background()

	ing := apple(t, reg)
	require.NoError(t, s.SaveIngredient(ctx, ing))
	require.NoError(t, s.DeleteIngredient(ctx, "apple"))

	_, err := s.LoadIngredient(ctx, reg, "apple")
	require.ErrorIs(t, err, ErrNotFound)
	for _, table := range []string{"ingredient_conversions", "ingredient_flags", "ingredient_nutrients"} {
		var n int
		require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n))
		require.Zero(t, n, table)
	}

	require.ErrorIs(t, s.DeleteIngredient(ctx, "apple"), ErrNotFound)
}

func TestStore_ForeignKeysEnforced(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`INSERT INTO ingredient_flags (ingredient_id, flag, position) VALUES ('missing', 'vegan', 0)`)
	require.Error(t, err)
}
