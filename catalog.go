package nutrition

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"nutrition/internal/log"
)

// CatalogVersionConstraint is the range of catalog file versions this
// package reads.
const CatalogVersionConstraint = "^1"

//go:embed catalog/default.yaml
var defaultCatalogYAML []byte

type unitDoc struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Singular string   `yaml:"singular,omitempty"`
	Plural   string   `yaml:"plural,omitempty"`
	Aliases  []string `yaml:"aliases,omitempty,flow"`
}

type quantityDoc struct {
	Unit  string  `yaml:"unit"`
	Value float64 `yaml:"value"`
}

type catalogDoc struct {
	Version     string          `yaml:"version"`
	Units       []unitDoc       `yaml:"units"`
	Conversions [][]quantityDoc `yaml:"conversions"`
}

// CatalogFile is a validated set of units and global conversions.
type CatalogFile struct {
	Version     *semver.Version
	units       []*Unit
	byName      map[string]*Unit
	conversions []*UnitConversion
	byPair      map[UnitPair]*UnitConversion
}

// NewCatalog checks that every conversion refers to a listed unit and that no
// unit or pair appears twice.
func NewCatalog(version *semver.Version, units []*Unit, conversions []*UnitConversion) (*CatalogFile, error) {
	if version == nil {
		version = semver.MustParse("1.0.0")
	}
	if err := checkCatalogVersion(version); err != nil {
		return nil, err
	}
	c := &CatalogFile{
		Version: version,
		byName:  make(map[string]*Unit, len(units)),
		byPair:  make(map[UnitPair]*UnitConversion, len(conversions)),
	}
	for _, u := range units {
		if u.Name == "" {
			return nil, fmt.Errorf("%w: unit without a name", ErrInvalidCatalog)
		}
		if _, dup := c.byName[u.Name]; dup {
			return nil, fmt.Errorf("%w: unit %q listed twice", ErrInvalidCatalog, u.Name)
		}
		c.byName[u.Name] = u
		c.units = append(c.units, u)
	}
	for _, conv := range conversions {
		pair := conv.UnitNames()
		for _, name := range []string{pair.A, pair.B} {
			if _, ok := c.byName[name]; !ok {
				return nil, fmt.Errorf("%w: conversion %s uses undeclared unit %q", ErrInvalidCatalog, pair, name)
			}
		}
		if _, err := conv.ReverseRatio(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		if _, dup := c.byPair[pair]; dup {
			return nil, fmt.Errorf("%w: %v: %s", ErrInvalidCatalog, ErrDuplicateConversion, pair)
		}
		c.byPair[pair] = conv
		c.conversions = append(c.conversions, conv)
	}
	return c, nil
}

func checkCatalogVersion(v *semver.Version) error {
	constraint, err := semver.NewConstraint(CatalogVersionConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedCatalogVersion, v, CatalogVersionConstraint)
	}
	return nil
}

func ParseCatalog(r io.Reader) (*CatalogFile, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if doc.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidCatalog)
	}
	version, err := semver.NewVersion(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %v", ErrInvalidCatalog, doc.Version, err)
	}

	units := make([]*Unit, 0, len(doc.Units))
	byName := make(map[string]*Unit, len(doc.Units))
	for _, ud := range doc.Units {
		typ, err := ParseUnitType(ud.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: unit %q: %v", ErrInvalidCatalog, ud.Name, err)
		}
		u := &Unit{
			Name:         ud.Name,
			Type:         typ,
			SingularAbbr: ud.Singular,
			PluralAbbr:   ud.Plural,
			Aliases:      ud.Aliases,
		}
		units = append(units, u)
		if _, dup := byName[u.Name]; !dup {
			byName[u.Name] = u
		}
	}

	conversions := make([]*UnitConversion, 0, len(doc.Conversions))
	for i, cd := range doc.Conversions {
		if len(cd) != 2 {
			return nil, fmt.Errorf("%w: conversion %d has %d sides", ErrInvalidCatalog, i, len(cd))
		}
		var sides [2]Quantity
		for j, qd := range cd {
			u, ok := byName[qd.Unit]
			if !ok {
				return nil, fmt.Errorf("%w: conversion %d uses undeclared unit %q", ErrInvalidCatalog, i, qd.Unit)
			}
			sides[j] = NewQuantity(u, qd.Value)
		}
		conv, err := NewUnitConversion(sides[0], sides[1])
		if err != nil {
			return nil, fmt.Errorf("%w: conversion %d: %v", ErrInvalidCatalog, i, err)
		}
		conversions = append(conversions, conv)
	}

	return NewCatalog(version, units, conversions)
}

func LoadCatalogFile(path string) (*CatalogFile, error) {
	f, err := os.Open(path) //nolint:gosec // G304: catalog path is user supplied
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info(log.CatCatalog, "catalog loaded", "path", path, "units", len(c.units), "conversions", len(c.conversions))
	return c, nil
}

// DefaultCatalog returns the catalog shipped with the package.
func DefaultCatalog() (*CatalogFile, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalogYAML))
}

func (c *CatalogFile) Units() []*Unit {
	return append([]*Unit(nil), c.units...)
}

func (c *CatalogFile) Conversions() []*UnitConversion {
	return append([]*UnitConversion(nil), c.conversions...)
}

func (c *CatalogFile) Unit(name string) (*Unit, bool) {
	u, ok := c.byName[name]
	return u, ok
}

func (c *CatalogFile) Conversion(pair UnitPair) (*UnitConversion, bool) {
	conv, ok := c.byPair[pair]
	return conv, ok
}

// Install points the registry's unit and conversion loaders at this catalog.
func (c *CatalogFile) Install(reg *Registry) {
	reg.SetUnitLoader(func(ctx context.Context, name string) (*Unit, error) {
		u, ok := c.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
		}
		return u, nil
	})
	reg.SetConversionLoader(func(ctx context.Context, pair UnitPair) (*UnitConversion, error) {
		conv, ok := c.byPair[pair]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnitConversionNotFound, pair)
		}
		return conv, nil
	})
	reg.SetConversionIndexLoader(func(ctx context.Context) ([]UnitPair, error) {
		pairs := make([]UnitPair, 0, len(c.conversions))
		for _, conv := range c.conversions {
			pairs = append(pairs, conv.UnitNames())
		}
		return pairs, nil
	})
}

// WriteYAML writes the catalog in the format ParseCatalog reads.
func (c *CatalogFile) WriteYAML(w io.Writer) error {
	doc := catalogDoc{Version: c.Version.String()}
	for _, u := range c.units {
		doc.Units = append(doc.Units, unitDoc{
			Name:     u.Name,
			Type:     u.Type.String(),
			Singular: u.SingularAbbr,
			Plural:   u.PluralAbbr,
			Aliases:  u.Aliases,
		})
	}
	for _, conv := range c.conversions {
		a, b := conv.Sides()
		av, _ := a.Value()
		bv, _ := b.Value()
		doc.Conversions = append(doc.Conversions, []quantityDoc{
			{Unit: a.UnitName(), Value: av},
			{Unit: b.UnitName(), Value: bv},
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}
