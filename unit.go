package nutrition

import (
	"fmt"
	"strings"
)

// DefaultBaseUnit is the unit amounts are normalised to before nutrient and
// cost aggregation.
const DefaultBaseUnit = "gram"

type UnitType int

const (
	UnitTypeMass UnitType = iota + 1
	UnitTypeVolume
	UnitTypeCount
)

func (t UnitType) String() string {
	switch t {
	case UnitTypeMass:
		return "mass"
	case UnitTypeVolume:
		return "volume"
	case UnitTypeCount:
		return "count"
	default:
		return "unknown"
	}
}

func ParseUnitType(s string) (UnitType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mass":
		return UnitTypeMass, nil
	case "volume":
		return UnitTypeVolume, nil
	case "count", "grouping":
		return UnitTypeCount, nil
	}
	return 0, fmt.Errorf("unknown unit type %q", s)
}

// Unit is a named measurement unit. Units are created once by a Registry
// loader and never modified afterwards.
type Unit struct {
	Name         string
	Type         UnitType
	SingularAbbr string
	PluralAbbr   string
	Aliases      []string // informational, never used for lookups
}

func (u *Unit) Equal(other *Unit) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Name == other.Name && u.Type == other.Type
}

// Abbreviation picks the singular form for exactly one of the unit.
func (u *Unit) Abbreviation(value float64) string {
	abbr := u.PluralAbbr
	if value == 1 {
		abbr = u.SingularAbbr
	}
	if abbr == "" {
		return u.Name
	}
	return abbr
}

func (u *Unit) String() string {
	return u.Name
}
