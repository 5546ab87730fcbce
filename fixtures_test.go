package nutrition

import (
	"testing"
)

var (
	gram       = &Unit{Name: "gram", Type: UnitTypeMass, SingularAbbr: "g", PluralAbbr: "g"}
	kilogram   = &Unit{Name: "kilogram", Type: UnitTypeMass, SingularAbbr: "kg", PluralAbbr: "kg"}
	milligram  = &Unit{Name: "milligram", Type: UnitTypeMass, SingularAbbr: "mg", PluralAbbr: "mg"}
	millilitre = &Unit{Name: "millilitre", Type: UnitTypeVolume, SingularAbbr: "ml", PluralAbbr: "ml"}
	litre      = &Unit{Name: "litre", Type: UnitTypeVolume, SingularAbbr: "l", PluralAbbr: "l"}
	cup        = &Unit{Name: "cup", Type: UnitTypeVolume, SingularAbbr: "cup", PluralAbbr: "cups"}
	whole      = &Unit{Name: "whole", Type: UnitTypeCount, SingularAbbr: "whole", PluralAbbr: "whole"}
)

func conv(t testing.TB, a Quantity, b Quantity) *UnitConversion {
	t.Helper()
	c, err := NewUnitConversion(a, b)
	if err != nil {
		t.Fatalf("NewUnitConversion(%s, %s): %v", a, b, err)
	}
	return c
}

// globalCatalog is the two-island catalog from the conversion scenarios:
// gram <-> kilogram and millilitre <-> litre, with nothing bridging them.
func globalCatalog(t testing.TB) []*UnitConversion {
	return []*UnitConversion{
		conv(t, NewQuantity(gram, 1000), NewQuantity(kilogram, 1)),
		conv(t, NewQuantity(millilitre, 1000), NewQuantity(litre, 1)),
	}
}
