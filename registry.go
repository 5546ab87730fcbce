package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"nutrition/internal/cache"
)

// Loader fetches one named value for the Registry. Returning a nil value with
// a nil error means the name does not exist.
type Loader[V any] func(ctx context.Context, name string) (V, error)

// ConversionLoader fetches the global conversion for a pair of units.
type ConversionLoader func(ctx context.Context, pair UnitPair) (*UnitConversion, error)

// ConversionIndexLoader lists every pair that has a global conversion, in
// catalog order.
type ConversionIndexLoader func(ctx context.Context) ([]UnitPair, error)

type category[V comparable] struct {
	name     string
	notFound error
	mu       sync.RWMutex
	loader   func(ctx context.Context, key string) (V, error)
	values   *cache.ReadThrough[V]
}

func newCategory[V comparable](name string, notFound error) *category[V] {
	return &category[V]{
		name:     name,
		notFound: notFound,
		values:   cache.NewReadThrough(cache.NewStore[V](name, cache.NoExpiration, 0)),
	}
}

func (c *category[V]) setLoader(fn func(ctx context.Context, key string) (V, error)) {
	c.mu.Lock()
	c.loader = fn
	c.mu.Unlock()
}

func (c *category[V]) get(ctx context.Context, key string) (V, error) {
	var zero V
	c.mu.RLock()
	load := c.loader
	c.mu.RUnlock()
	if load == nil {
		return zero, fmt.Errorf("%w: %s", ErrLoaderNotConfigured, c.name)
	}
	return c.values.Get(ctx, key, func(ctx context.Context) (V, error) {
		v, err := load(ctx, key)
		if err != nil {
			if errors.Is(err, c.notFound) {
				return zero, err
			}
			return zero, fmt.Errorf("loading %s %q: %w", c.name, key, err)
		}
		if v == zero {
			return zero, fmt.Errorf("%w: %s", c.notFound, key)
		}
		return v, nil
	})
}

func (c *category[V]) reset() {
	c.values.Store().Flush()
}

// Registry hands out one shared instance per name for units, conversions and
// the domain objects built on them. Values are loaded on first use through the
// injected loaders and kept until Reset.
type Registry struct {
	units       *category[*Unit]
	conversions *category[*UnitConversion]
	flags       *category[*Flag]
	nutrients   *category[*Nutrient]
	ingredients *category[*Ingredient]
	recipes     *category[*Recipe]

	mu    sync.RWMutex
	index ConversionIndexLoader
}

func NewRegistry() *Registry {
	return &Registry{
		units:       newCategory[*Unit]("unit", ErrUnitNotFound),
		conversions: newCategory[*UnitConversion]("unit conversion", ErrUnitConversionNotFound),
		flags:       newCategory[*Flag]("flag", ErrNotFound),
		nutrients:   newCategory[*Nutrient]("nutrient", ErrNotFound),
		ingredients: newCategory[*Ingredient]("ingredient", ErrNotFound),
		recipes:     newCategory[*Recipe]("recipe", ErrNotFound),
	}
}

func (r *Registry) SetUnitLoader(fn Loader[*Unit]) {
	r.units.setLoader(fn)
}

func (r *Registry) SetConversionLoader(fn ConversionLoader) {
	r.conversions.setLoader(func(ctx context.Context, key string) (*UnitConversion, error) {
		pair, err := parsePairKey(key)
		if err != nil {
			return nil, err
		}
		return fn(ctx, pair)
	})
}

func (r *Registry) SetConversionIndexLoader(fn ConversionIndexLoader) {
	r.mu.Lock()
	r.index = fn
	r.mu.Unlock()
}

func (r *Registry) SetFlagLoader(fn Loader[*Flag]) {
	r.flags.setLoader(fn)
}

func (r *Registry) SetNutrientLoader(fn Loader[*Nutrient]) {
	r.nutrients.setLoader(fn)
}

func (r *Registry) SetIngredientLoader(fn Loader[*Ingredient]) {
	r.ingredients.setLoader(fn)
}

func (r *Registry) SetRecipeLoader(fn Loader[*Recipe]) {
	r.recipes.setLoader(fn)
}

func (r *Registry) Unit(ctx context.Context, name string) (*Unit, error) {
	return r.units.get(ctx, name)
}

// UnitConversion returns the global conversion between two units, whichever
// order they are given in.
func (r *Registry) UnitConversion(ctx context.Context, a, b string) (*UnitConversion, error) {
	return r.conversions.get(ctx, pairKey(NewUnitPair(a, b)))
}

// GlobalConversions loads every catalog conversion in index order.
func (r *Registry) GlobalConversions(ctx context.Context) ([]*UnitConversion, error) {
	r.mu.RLock()
	index := r.index
	r.mu.RUnlock()
	if index == nil {
		return nil, fmt.Errorf("%w: conversion index", ErrLoaderNotConfigured)
	}
	pairs, err := index(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	convs := make([]*UnitConversion, 0, len(pairs))
	for _, p := range pairs {
		c, err := r.UnitConversion(ctx, p.A, p.B)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, nil
}

func (r *Registry) Flag(ctx context.Context, name string) (*Flag, error) {
	return r.flags.get(ctx, name)
}

func (r *Registry) Nutrient(ctx context.Context, name string) (*Nutrient, error) {
	return r.nutrients.get(ctx, name)
}

func (r *Registry) Ingredient(ctx context.Context, name string) (*Ingredient, error) {
	return r.ingredients.get(ctx, name)
}

func (r *Registry) Recipe(ctx context.Context, name string) (*Recipe, error) {
	return r.recipes.get(ctx, name)
}

// Reset drops every loaded value. Loaders stay configured.
func (r *Registry) Reset() {
	r.units.reset()
	r.conversions.reset()
	r.flags.reset()
	r.nutrients.reset()
	r.ingredients.reset()
	r.recipes.reset()
}

// pairKey quotes both names so that no unit name can make two pairs share a
// cache key.
func pairKey(p UnitPair) string {
	return strconv.Quote(p.A) + strconv.Quote(p.B)
}

func parsePairKey(key string) (UnitPair, error) {
	qa, err := strconv.QuotedPrefix(key)
	if err != nil {
		return UnitPair{}, fmt.Errorf("bad pair key %q: %w", key, err)
	}
	a, err := strconv.Unquote(qa)
	if err != nil {
		return UnitPair{}, fmt.Errorf("bad pair key %q: %w", key, err)
	}
	b, err := strconv.Unquote(key[len(qa):])
	if err != nil {
		return UnitPair{}, fmt.Errorf("bad pair key %q: %w", key, err)
	}
	return UnitPair{A: a, B: b}, nil
}
