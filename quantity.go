package nutrition

import (
	"strconv"
)

// Quantity pairs a unit with an optional value. An undefined quantity is a
// placeholder that has a unit but no amount yet.
type Quantity struct {
	unit    *Unit
	value   float64
	defined bool
}

func NewQuantity(unit *Unit, value float64) Quantity {
	return Quantity{unit: unit, value: value, defined: true}
}

func UndefinedQuantity(unit *Unit) Quantity {
	return Quantity{unit: unit}
}

func (q Quantity) Unit() *Unit {
	return q.unit
}

// UnitName returns "" for the zero Quantity.
func (q Quantity) UnitName() string {
	if q.unit == nil {
		return ""
	}
	return q.unit.Name
}

func (q Quantity) IsDefined() bool {
	return q.defined
}

func (q Quantity) Value() (float64, error) {
	if !q.defined {
		return 0, ErrValueNotSet
	}
	return q.value, nil
}

func (q Quantity) WithValue(value float64) Quantity {
	return NewQuantity(q.unit, value)
}

func (q Quantity) Equal(other Quantity) bool {
	if !q.unit.Equal(other.unit) || q.defined != other.defined {
		return false
	}
	return !q.defined || q.value == other.value
}

func (q Quantity) String() string {
	amount := "?"
	if q.defined {
		amount = strconv.FormatFloat(q.value, 'g', -1, 64)
	}
	if q.unit == nil {
		return amount
	}
	return amount + " " + q.unit.Abbreviation(q.value)
}
