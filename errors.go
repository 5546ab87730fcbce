package nutrition

import (
	"errors"
	"fmt"
)

var (
	ErrValueNotSet            = errors.New("quantity value is not set")
	ErrIdenticalUnits         = errors.New("conversion units must differ")
	ErrUndefinedConversion    = errors.New("conversion is not fully defined")
	ErrUnitNotInConversion    = errors.New("unit is not part of conversion")
	ErrConversionUnavailable  = errors.New("no conversion available between units")
	ErrDuplicateConversion    = errors.New("conversion already present")
	ErrConversionNotFound     = errors.New("conversion not found")
	ErrLoaderNotConfigured    = errors.New("registry loader not configured")
	ErrUnitNotFound           = errors.New("unit not found")
	ErrUnitConversionNotFound = errors.New("unit conversion not found")
	ErrNotFound               = errors.New("not found")

	ErrInvalidCatalog            = errors.New("invalid catalog")
	ErrUnsupportedCatalogVersion = errors.New("unsupported catalog version")
)

// ConversionUnavailableError reports that no chain of conversions links two units.
type ConversionUnavailableError struct {
	From string
	To   string
}

func (e *ConversionUnavailableError) Error() string {
	return fmt.Sprintf("cannot convert %q to %q: %v", e.From, e.To, ErrConversionUnavailable)
}

func (e *ConversionUnavailableError) Is(target error) bool {
	return target == ErrConversionUnavailable
}

// UnitNotInConversionError reports a unit that matches neither side of a conversion.
type UnitNotInConversionError struct {
	Unit string
	Pair UnitPair
}

func (e *UnitNotInConversionError) Error() string {
	return fmt.Sprintf("unit %q is not part of conversion %s", e.Unit, e.Pair)
}

func (e *UnitNotInConversionError) Is(target error) bool {
	return target == ErrUnitNotInConversion
}
