package nutrition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

const (
	resultOK          = "ok"
	resultIdentity    = "identity"
	resultUnavailable = "unavailable"
	resultError       = "error"
)

// UnitSystem converts quantities by chaining conversions from the global
// catalog and from entity specific conversions.
//
// Any change to the contributing conversions rebuilds the whole graph and
// drops every cached path. That is O(E) per mutation, which is fine for
// catalogs of a few hundred conversions.
type UnitSystem struct {
	mu      sync.RWMutex
	global  []*UnitConversion
	entity  []*UnitConversion
	graph   *graph
	paths   *gocache.Cache
	metrics *Metrics
}

type Option func(*UnitSystem)

func WithMetrics(m *Metrics) Option {
	return func(s *UnitSystem) {
		s.metrics = m
	}
}

func NewUnitSystem(global []*UnitConversion, opts ...Option) *UnitSystem {
	s := &UnitSystem{
		global: append([]*UnitConversion(nil), global...),
		paths:  gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rebuild()
	return s
}

// NewUnitSystemFromRegistry builds a UnitSystem over every global conversion
// the registry's catalog knows about.
func NewUnitSystemFromRegistry(ctx context.Context, reg *Registry, opts ...Option) (*UnitSystem, error) {
	global, err := reg.GlobalConversions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global conversions: %w", err)
	}
	return NewUnitSystem(global, opts...), nil
}

// rebuild must be called with mu held for writing.
func (s *UnitSystem) rebuild() {
	s.graph = newGraph(s.global, s.entity)
	s.paths.Flush()
	s.metrics.observeRebuild()
}

// ReloadGlobal swaps in a new global catalog, keeping entity conversions.
func (s *UnitSystem) ReloadGlobal(global []*UnitConversion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = append([]*UnitConversion(nil), global...)
	s.rebuild()
}

func (s *UnitSystem) AddEntityConversion(c *UnitConversion) error {
	if c == nil {
		return fmt.Errorf("%w: nil conversion", ErrUndefinedConversion)
	}
	if !c.IsDefined() {
		return fmt.Errorf("%w: %s", ErrUndefinedConversion, c.UnitNames())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := c.UnitNames()
	for _, set := range [][]*UnitConversion{s.global, s.entity} {
		for _, existing := range set {
			if existing.UnitNames() == pair {
				return fmt.Errorf("%w: %s", ErrDuplicateConversion, pair)
			}
		}
	}
	s.entity = append(s.entity, c)
	s.rebuild()
	return nil
}

// RemoveEntityConversion drops the entity conversion covering the same pair
// of units as c.
func (s *UnitSystem) RemoveEntityConversion(c *UnitConversion) error {
	if c == nil {
		return fmt.Errorf("%w: nil conversion", ErrConversionNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := c.UnitNames()
	for i, existing := range s.entity {
		if existing.UnitNames() != pair {
			continue
		}
		s.entity = append(s.entity[:i:i], s.entity[i+1:]...)
		s.rebuild()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrConversionNotFound, pair)
}

func (s *UnitSystem) EntityConversions() []*UnitConversion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*UnitConversion(nil), s.entity...)
}

// AvailableUnitNames lists every unit reachable from start, including start
// itself, sorted by name.
func (s *UnitSystem) AvailableUnitNames(start string, entity ...*UnitConversion) []string {
	if start == "" {
		start = DefaultBaseUnit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.graphWith(entity)
	id, ok := g.ids[start]
	if !ok {
		return []string{start}
	}
	reached := g.reachable(id)
	names := make([]string, 0, len(reached))
	for _, n := range reached {
		names = append(names, g.units[n].Name)
	}
	sort.Strings(names)
	return names
}

// ConvertQuantity returns q expressed in toUnit. A quantity already in toUnit
// is returned untouched.
func (s *UnitSystem) ConvertQuantity(q Quantity, toUnit string, entity ...*UnitConversion) (Quantity, error) {
	if q.UnitName() == toUnit {
		s.metrics.observeConversion(resultIdentity)
		return q, nil
	}
	value, err := q.Value()
	if err != nil {
		s.metrics.observeConversion(resultError)
		return Quantity{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	g, steps, err := s.findPath(q.UnitName(), toUnit, entity)
	if err != nil {
		result := resultError
		if errors.Is(err, ErrConversionUnavailable) {
			result = resultUnavailable
		}
		s.metrics.observeConversion(result)
		return Quantity{}, err
	}
	s.metrics.observeConversion(resultOK)
	return NewQuantity(g.units[g.ids[toUnit]], value*g.ratio(steps)), nil
}

func (s *UnitSystem) CanConvertUnits(from, to string, entity ...*UnitConversion) bool {
	if from == to {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, _, err := s.findPath(from, to, entity)
	return err == nil
}

// Path returns the conversions a conversion from one unit to another goes
// through, in traversal order.
func (s *UnitSystem) Path(from, to string, entity ...*UnitConversion) ([]*UnitConversion, error) {
	if from == to {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, steps, err := s.findPath(from, to, entity)
	if err != nil {
		return nil, err
	}
	convs := make([]*UnitConversion, 0, len(steps))
	for _, st := range steps {
		convs = append(convs, g.edges[st.edge].conv)
	}
	return convs, nil
}

// graphWith must be called with mu held.
func (s *UnitSystem) graphWith(entity []*UnitConversion) *graph {
	if len(entity) == 0 {
		return s.graph
	}
	return s.graph.extend(entity)
}

// findPath must be called with mu held. Only searches over the system's own
// graph are cached; per-call conversions produce a throwaway graph. Cache keys
// use interned ids, which stay valid until the next rebuild flushes the cache.
func (s *UnitSystem) findPath(from, to string, entity []*UnitConversion) (*graph, []step, error) {
	g := s.graphWith(entity)
	fromID, okFrom := g.ids[from]
	toID, okTo := g.ids[to]
	if !okFrom || !okTo {
		return nil, nil, &ConversionUnavailableError{From: from, To: to}
	}

	cacheable := len(entity) == 0
	key := strconv.Itoa(fromID) + ":" + strconv.Itoa(toID)
	if cacheable {
		if cached, ok := s.paths.Get(key); ok {
			s.metrics.observePathCache(true)
			return g, cached.([]step), nil
		}
		s.metrics.observePathCache(false)
	}

	steps, ok := g.search(fromID, toID)
	if !ok {
		return nil, nil, &ConversionUnavailableError{From: from, To: to}
	}
	if cacheable {
		s.paths.Set(key, steps, gocache.NoExpiration)
	}
	return g, steps, nil
}
