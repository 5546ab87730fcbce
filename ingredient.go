package nutrition

import (
	"fmt"

	"github.com/google/uuid"
)

// ConversionSupplier provides the conversions that only hold for one entity,
// such as "1 whole = 182 gram" for apples.
type ConversionSupplier interface {
	Conversions() []*UnitConversion
}

type Flag struct {
	Name        string
	Description string
}

// Nutrient is a named nutrient, optionally grouped under a parent such as
// "fat" for "saturated fat".
type Nutrient struct {
	Name   string
	Parent string
}

// NutrientRatio reads "Nutrient per Subject", e.g. 3 gram protein per 100 gram.
type NutrientRatio struct {
	Nutrient Quantity
	Subject  Quantity
}

type Ingredient struct {
	ID           uuid.UUID
	Name         string
	Cost         float64
	CostQuantity Quantity // amount the Cost buys
	Nutrients    map[string]NutrientRatio
	Flags        []string

	conversions []*UnitConversion
}

func NewIngredient(name string) *Ingredient {
	return &Ingredient{
		ID:        uuid.New(),
		Name:      name,
		Nutrients: make(map[string]NutrientRatio),
	}
}

func (i *Ingredient) Conversions() []*UnitConversion {
	return i.conversions
}

func (i *Ingredient) AddConversion(c *UnitConversion) error {
	for _, existing := range i.conversions {
		if existing.UnitNames() == c.UnitNames() {
			return fmt.Errorf("%w: %s for %s", ErrDuplicateConversion, c.UnitNames(), i.Name)
		}
	}
	i.conversions = append(i.conversions, c)
	return nil
}

func (i *Ingredient) RemoveConversion(pair UnitPair) error {
	for n, existing := range i.conversions {
		if existing.UnitNames() == pair {
			i.conversions = append(i.conversions[:n:n], i.conversions[n+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s for %s", ErrConversionNotFound, pair, i.Name)
}

func (i *Ingredient) ConvertQuantity(sys *UnitSystem, q Quantity, toUnit string) (Quantity, error) {
	return sys.ConvertQuantity(q, toUnit, i.conversions...)
}

// AvailableUnitNames lists the units this ingredient can be measured in.
func (i *Ingredient) AvailableUnitNames(sys *UnitSystem) []string {
	return sys.AvailableUnitNames(DefaultBaseUnit, i.conversions...)
}

// CostOf prices q using the ingredient's Cost per CostQuantity.
func (i *Ingredient) CostOf(sys *UnitSystem, q Quantity) (float64, error) {
	per, err := i.CostQuantity.Value()
	if err != nil {
		return 0, fmt.Errorf("cost of %s: %w", i.Name, err)
	}
	if per == 0 {
		return 0, fmt.Errorf("cost of %s: cost quantity is zero", i.Name)
	}
	inCostUnit, err := i.ConvertQuantity(sys, q, i.CostQuantity.UnitName())
	if err != nil {
		return 0, fmt.Errorf("cost of %s: %w", i.Name, err)
	}
	v, _ := inCostUnit.Value()
	return i.Cost * v / per, nil
}

// NutrientAmount returns how much of a nutrient q of this ingredient holds,
// in grams.
func (i *Ingredient) NutrientAmount(sys *UnitSystem, nutrient string, q Quantity) (Quantity, error) {
	ratio, ok := i.Nutrients[nutrient]
	if !ok {
		return Quantity{}, fmt.Errorf("%w: nutrient %q for %s", ErrNotFound, nutrient, i.Name)
	}
	subject, err := i.ConvertQuantity(sys, ratio.Subject, DefaultBaseUnit)
	if err != nil {
		return Quantity{}, fmt.Errorf("nutrient %s of %s: %w", nutrient, i.Name, err)
	}
	amount, err := i.ConvertQuantity(sys, ratio.Nutrient, DefaultBaseUnit)
	if err != nil {
		return Quantity{}, fmt.Errorf("nutrient %s of %s: %w", nutrient, i.Name, err)
	}
	grams, err := i.ConvertQuantity(sys, q, DefaultBaseUnit)
	if err != nil {
		return Quantity{}, fmt.Errorf("nutrient %s of %s: %w", nutrient, i.Name, err)
	}
	subjectGrams, _ := subject.Value()
	if subjectGrams == 0 {
		return Quantity{}, fmt.Errorf("nutrient %s of %s: subject quantity is zero", nutrient, i.Name)
	}
	amountGrams, _ := amount.Value()
	qGrams, _ := grams.Value()
	return amount.WithValue(amountGrams * qGrams / subjectGrams), nil
}
