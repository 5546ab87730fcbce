package nutritionmsgpack

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"

	"nutrition"
)

type Unit struct {
	Name     string   `msgpack:"name,omitempty"`
	Type     string   `msgpack:"type,omitempty"`
	Singular string   `msgpack:"singular,omitempty"`
	Plural   string   `msgpack:"plural,omitempty"`
	Aliases  []string `msgpack:"aliases,omitempty"`
}

type UnitConversion struct {
	FromUnit  string  `msgpack:"from_unit,omitempty"`
	FromValue float64 `msgpack:"from_value"`
	ToUnit    string  `msgpack:"to_unit,omitempty"`
	ToValue   float64 `msgpack:"to_value"`
}

type Catalog struct {
	Version     string           `msgpack:"version,omitempty"`
	Units       []Unit           `msgpack:"units,omitempty"`
	Conversions []UnitConversion `msgpack:"conversions,omitempty"`
	DatetimeMs  int64            `msgpack:"date,omitempty"`
}

func NewUnit(u *nutrition.Unit) Unit {
	return Unit{
		Name:     u.Name,
		Type:     u.Type.String(),
		Singular: u.SingularAbbr,
		Plural:   u.PluralAbbr,
		Aliases:  u.Aliases,
	}
}

func ToUnit(u *Unit) (*nutrition.Unit, error) {
	typ, err := nutrition.ParseUnitType(u.Type)
	if err != nil {
		return nil, fmt.Errorf("unit %q: %w", u.Name, err)
	}
	return &nutrition.Unit{
		Name:         u.Name,
		Type:         typ,
		SingularAbbr: u.Singular,
		PluralAbbr:   u.Plural,
		Aliases:      u.Aliases,
	}, nil
}

func NewUnitConversion(c *nutrition.UnitConversion) UnitConversion {
	from, to := c.Sides()
	fv, _ := from.Value()
	tv, _ := to.Value()
	return UnitConversion{
		FromUnit:  from.UnitName(),
		FromValue: fv,
		ToUnit:    to.UnitName(),
		ToValue:   tv,
	}
}

// ToUnitConversion rebuilds a conversion with units taken from units.
func ToUnitConversion(c *UnitConversion, units map[string]*nutrition.Unit) (*nutrition.UnitConversion, error) {
	from, ok := units[c.FromUnit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", nutrition.ErrUnitNotFound, c.FromUnit)
	}
	to, ok := units[c.ToUnit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", nutrition.ErrUnitNotFound, c.ToUnit)
	}
	return nutrition.NewUnitConversion(nutrition.NewQuantity(from, c.FromValue), nutrition.NewQuantity(to, c.ToValue))
}

func NewCatalog(cat *nutrition.CatalogFile) Catalog {
	out := Catalog{
		Version:    cat.Version.String(),
		DatetimeMs: time.Now().UnixMilli(),
	}
	for _, u := range cat.Units() {
		out.Units = append(out.Units, NewUnit(u))
	}
	for _, c := range cat.Conversions() {
		out.Conversions = append(out.Conversions, NewUnitConversion(c))
	}
	return out
}

func ToCatalog(c *Catalog) (*nutrition.CatalogFile, error) {
	var version *semver.Version
	if c.Version != "" {
		v, err := semver.NewVersion(c.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: version %q: %v", nutrition.ErrInvalidCatalog, c.Version, err)
		}
		version = v
	}
	units := make([]*nutrition.Unit, 0, len(c.Units))
	byName := make(map[string]*nutrition.Unit, len(c.Units))
	for i := range c.Units {
		u, err := ToUnit(&c.Units[i])
		if err != nil {
			return nil, err
		}
		units = append(units, u)
		byName[u.Name] = u
	}
	convs := make([]*nutrition.UnitConversion, 0, len(c.Conversions))
	for i := range c.Conversions {
		conv, err := ToUnitConversion(&c.Conversions[i], byName)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return nutrition.NewCatalog(version, units, convs)
}

func MarshalCatalog(cat *nutrition.CatalogFile) ([]byte, error) {
	c := NewCatalog(cat)
	return msgpack.Marshal(&c)
}

func UnmarshalCatalog(b []byte) (*nutrition.CatalogFile, error) {
	var c Catalog
	if err := msgpack.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return ToCatalog(&c)
}
