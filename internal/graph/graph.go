package graph

import "sort"

// Graph is the result of a discovery run: components as nodes keyed by name
// and their relationships as edges.
type Graph struct {
	Container string           `json:"container"`
	Nodes     map[string]*Node `json:"components"`
	Edges     []Edge           `json:"relationships"`
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: []Edge{},
	}
}

// AddNode adds or replaces a node.
func (g *Graph) AddNode(n *Node) {
	if n == nil {
		return
	}
	g.Nodes[n.Name] = n
}

// AddEdge adds an edge between two known nodes. Edges with an unknown end
// or pointing back at their source are dropped.
func (g *Graph) AddEdge(e Edge) bool {
	if e.From == e.To {
		return false
	}
	if _, ok := g.Nodes[e.From]; !ok {
		return false
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return false
	}
	g.Edges = append(g.Edges, e)
	return true
}

// Names returns the node names sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDependencies returns all nodes that the given node depends on.
func (g *Graph) GetDependencies(name string) []*Node {
	var deps []*Node
	seen := make(map[string]bool)
	for _, edge := range g.Edges {
		if edge.From == name && !seen[edge.To] {
			if node, ok := g.Nodes[edge.To]; ok {
				seen[edge.To] = true
				deps = append(deps, node)
			}
		}
	}
	return deps
}

// GetDependents returns all nodes that depend on the given node.
func (g *Graph) GetDependents(name string) []*Node {
	var deps []*Node
	seen := make(map[string]bool)
	for _, edge := range g.Edges {
		if edge.To == name && !seen[edge.From] {
			if node, ok := g.Nodes[edge.From]; ok {
				seen[edge.From] = true
				deps = append(deps, node)
			}
		}
	}
	return deps
}

// EdgesFrom returns the outgoing edges of name in creation order.
func (g *Graph) EdgesFrom(name string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}
