package nutrition

// edge is one undirected conversion. ratio is the amount of b per one of a;
// walking from b to a uses its reciprocal.
type edge struct {
	a, b  int
	ratio float64
	conv  *UnitConversion
}

// step is an edge taken in a direction during a search.
type step struct {
	edge    int
	forward bool
}

// graph interns units by name into small integer ids. Adjacency lists keep
// edge insertion order so searches are deterministic.
type graph struct {
	ids   map[string]int
	units []*Unit
	edges []edge
	adj   [][]int
}

func newGraph(conversions ...[]*UnitConversion) *graph {
	g := &graph{ids: make(map[string]int)}
	for _, set := range conversions {
		for _, c := range set {
			g.add(c)
		}
	}
	return g
}

func (g *graph) intern(u *Unit) int {
	if id, ok := g.ids[u.Name]; ok {
		return id
	}
	id := len(g.units)
	g.ids[u.Name] = id
	g.units = append(g.units, u)
	g.adj = append(g.adj, nil)
	return id
}

// add skips conversions that cannot produce a ratio.
func (g *graph) add(c *UnitConversion) bool {
	ratio, err := c.ForwardRatio()
	if err != nil || ratio == 0 {
		return false
	}
	first, second := c.Sides()
	a := g.intern(first.Unit())
	b := g.intern(second.Unit())
	g.edges = append(g.edges, edge{a: a, b: b, ratio: ratio, conv: c})
	idx := len(g.edges) - 1
	g.adj[a] = append(g.adj[a], idx)
	g.adj[b] = append(g.adj[b], idx)
	return true
}

// extend returns a copy of g with extra conversions appended after the
// existing edges. g itself is left untouched.
func (g *graph) extend(extra []*UnitConversion) *graph {
	cp := &graph{
		ids:   make(map[string]int, len(g.ids)),
		units: append([]*Unit(nil), g.units...),
		edges: append([]edge(nil), g.edges...),
		adj:   make([][]int, len(g.adj)),
	}
	for name, id := range g.ids {
		cp.ids[name] = id
	}
	for i, list := range g.adj {
		cp.adj[i] = append([]int(nil), list...)
	}
	for _, c := range extra {
		cp.add(c)
	}
	return cp
}

func (g *graph) neighbour(node int, e edge) (int, bool) {
	if e.a == node {
		return e.b, true
	}
	return e.a, false
}

// search runs a breadth-first search and returns the steps from one unit to
// another. The target is accepted the first time it is dequeued.
func (g *graph) search(from, to int) ([]step, bool) {
	visited := make([]bool, len(g.units))
	prev := make([]step, len(g.units))
	visited[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node == to {
			return g.backtrack(from, to, prev), true
		}
		for _, ei := range g.adj[node] {
			next, forward := g.neighbour(node, g.edges[ei])
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = step{edge: ei, forward: forward}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func (g *graph) backtrack(from, to int, prev []step) []step {
	var steps []step
	for node := to; node != from; {
		s := prev[node]
		steps = append(steps, s)
		e := g.edges[s.edge]
		if s.forward {
			node = e.a
		} else {
			node = e.b
		}
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// ratio multiplies the per-edge factors in traversal order without rounding.
func (g *graph) ratio(steps []step) float64 {
	r := 1.0
	for _, s := range steps {
		e := g.edges[s.edge]
		if s.forward {
			r *= e.ratio
		} else {
			r /= e.ratio
		}
	}
	return r
}

func (g *graph) reachable(from int) []int {
	visited := make([]bool, len(g.units))
	visited[from] = true
	order := []int{from}
	for i := 0; i < len(order); i++ {
		node := order[i]
		for _, ei := range g.adj[node] {
			next, _ := g.neighbour(node, g.edges[ei])
			if !visited[next] {
				visited[next] = true
				order = append(order, next)
			}
		}
	}
	return order
}
