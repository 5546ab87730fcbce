package nutrition

import (
	"fmt"
)

// UnitPair is an unordered pair of unit names, stored with A <= B so that both
// directions of a conversion share one key.
type UnitPair struct {
	A string
	B string
}

func NewUnitPair(x, y string) UnitPair {
	if y < x {
		x, y = y, x
	}
	return UnitPair{A: x, B: y}
}

func (p UnitPair) Contains(name string) bool {
	return p.A == name || p.B == name
}

func (p UnitPair) String() string {
	return p.A + "|" + p.B
}

// UnitConversion states that two quantities on different units are
// equivalent, e.g. 1000 gram = 1 kilogram. It has no direction.
type UnitConversion struct {
	sides [2]Quantity
}

func NewUnitConversion(a, b Quantity) (*UnitConversion, error) {
	if a.Unit() == nil || b.Unit() == nil {
		return nil, fmt.Errorf("conversion quantities need a unit")
	}
	if a.UnitName() == b.UnitName() {
		return nil, fmt.Errorf("%w: %s", ErrIdenticalUnits, a.UnitName())
	}
	return &UnitConversion{sides: [2]Quantity{a, b}}, nil
}

// MustUnitConversion is NewUnitConversion for fixtures and static catalogs.
func MustUnitConversion(a, b Quantity) *UnitConversion {
	c, err := NewUnitConversion(a, b)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *UnitConversion) IsDefined() bool {
	return c.sides[0].IsDefined() && c.sides[1].IsDefined()
}

func (c *UnitConversion) UnitNames() UnitPair {
	return NewUnitPair(c.sides[0].UnitName(), c.sides[1].UnitName())
}

// Sides returns the two quantities in construction order.
func (c *UnitConversion) Sides() (Quantity, Quantity) {
	return c.sides[0], c.sides[1]
}

func (c *UnitConversion) index(unitName string) (int, error) {
	switch unitName {
	case c.sides[0].UnitName():
		return 0, nil
	case c.sides[1].UnitName():
		return 1, nil
	}
	return 0, &UnitNotInConversionError{Unit: unitName, Pair: c.UnitNames()}
}

func (c *UnitConversion) Quantity(unitName string) (Quantity, error) {
	i, err := c.index(unitName)
	if err != nil {
		return Quantity{}, err
	}
	return c.sides[i], nil
}

// Other returns the unit on the opposite side of unitName.
func (c *UnitConversion) Other(unitName string) (*Unit, error) {
	i, err := c.index(unitName)
	if err != nil {
		return nil, err
	}
	return c.sides[1-i].Unit(), nil
}

// RatioFrom is the factor that turns an amount of unitName into an amount of
// the other unit.
func (c *UnitConversion) RatioFrom(unitName string) (float64, error) {
	i, err := c.index(unitName)
	if err != nil {
		return 0, err
	}
	from, err := c.sides[i].Value()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedConversion, c.UnitNames())
	}
	to, err := c.sides[1-i].Value()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedConversion, c.UnitNames())
	}
	if from == 0 {
		return 0, fmt.Errorf("%w: %s has a zero amount", ErrUndefinedConversion, c.UnitNames())
	}
	return to / from, nil
}

// ForwardRatio is the amount of the second unit per one of the first.
func (c *UnitConversion) ForwardRatio() (float64, error) {
	return c.RatioFrom(c.sides[0].UnitName())
}

func (c *UnitConversion) ReverseRatio() (float64, error) {
	r, err := c.ForwardRatio()
	if err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, fmt.Errorf("%w: %s has a zero amount", ErrUndefinedConversion, c.UnitNames())
	}
	return 1 / r, nil
}

// Convert moves q to the other side of the conversion.
func (c *UnitConversion) Convert(q Quantity) (Quantity, error) {
	i, err := c.index(q.UnitName())
	if err != nil {
		return Quantity{}, err
	}
	ratio, err := c.RatioFrom(q.UnitName())
	if err != nil {
		return Quantity{}, err
	}
	v, err := q.Value()
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantity(c.sides[1-i].Unit(), v*ratio), nil
}

// Equal matches conversions regardless of the order their sides were given in.
func (c *UnitConversion) Equal(other *UnitConversion) bool {
	if c == nil || other == nil {
		return c == other
	}
	a, b := other.sides[0], other.sides[1]
	if c.sides[0].UnitName() != a.UnitName() {
		a, b = b, a
	}
	return c.sides[0].Equal(a) && c.sides[1].Equal(b)
}

func (c *UnitConversion) String() string {
	return c.sides[0].String() + " = " + c.sides[1].String()
}
