// Package dag holds the stage dependency graph: explicit nodes and adjacency
// with a separate ordering and validation pass.
package dag

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"go-tennis-pipeline/internal/model"
)

// Graph is a directed graph of stage ids. Each id maps to a graph node whose
// numeric id is its insertion position, which is used to break ties when
// ordering.
type Graph struct {
	g     *simple.DirectedGraph
	nodes []string
	index map[string]int64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewDirectedGraph(),
		index: make(map[string]int64),
	}
}

// AddNode registers a stage id.
func (g *Graph) AddNode(id string) error {
	if id == "" {
		return &model.ConfigurationError{Field: "stage", Reason: "empty stage id"}
	}
	if pos, ok := g.index[id]; ok {
		return model.NewConfigurationError(id, "duplicate stage id (first declared at position %d)", pos)
	}
	n := simple.Node(len(g.nodes))
	g.g.AddNode(n)
	g.index[id] = n.ID()
	g.nodes = append(g.nodes, id)
	return nil
}

// AddEdge makes to depend on from.
func (g *Graph) AddEdge(from, to string) error {
	f, ok := g.index[from]
	if !ok {
		return model.NewConfigurationError(from, "unknown stage")
	}
	t, ok := g.index[to]
	if !ok {
		return model.NewConfigurationError(to, "unknown stage")
	}
	if f == t {
		return model.NewConfigurationError(from, "stage cannot depend on itself")
	}
	if g.g.HasEdgeFromTo(f, t) {
		return nil
	}
	g.g.SetEdge(g.g.NewEdge(simple.Node(f), simple.Node(t)))
	return nil
}

// Chain builds a graph in which every stage depends on exactly its immediate
// predecessor. The first stage has no dependencies and the last is a sink.
func Chain(ids ...string) (*Graph, error) {
	if len(ids) == 0 {
		return nil, &model.ConfigurationError{Field: "chain", Reason: "empty stage sequence"}
	}
	g := New()
	for i, id := range ids {
		if err := g.AddNode(id); err != nil {
			return nil, err
		}
		if i > 0 {
			if err := g.AddEdge(ids[i-1], id); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns the node ids in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// DependsOn returns the direct dependencies of id in declaration order.
func (g *Graph) DependsOn(id string) []string {
	n, ok := g.index[id]
	if !ok {
		return []string{}
	}
	deps := graph.NodesOf(g.g.To(n))
	byDeclaration(deps)
	return g.names(deps)
}

// Roots returns the nodes without dependencies.
func (g *Graph) Roots() []string {
	var out []string
	for i, id := range g.nodes {
		if g.g.To(int64(i)).Len() == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns the nodes nothing depends on.
func (g *Graph) Sinks() []string {
	var out []string
	for i, id := range g.nodes {
		if g.g.From(int64(i)).Len() == 0 {
			out = append(out, id)
		}
	}
	return out
}

// TopologicalOrder returns the nodes so that every node follows its
// dependencies. Ties between independent nodes are broken by declaration
// order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	sorted, err := topo.SortStabilized(g.g, byDeclaration)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) && len(cycles) > 0 {
			cycle := cycles[0]
			byDeclaration(cycle)
			return nil, model.NewConfigurationError(g.nodes[cycle[0].ID()],
				"dependency cycle through %v", g.names(cycle))
		}
		return nil, err
	}
	return g.names(sorted), nil
}

// ValidatePath checks that the graph is a simple path from a single begin
// stage to a single end stage: no branching, no cycles, nothing disconnected.
func (g *Graph) ValidatePath() error {
	if len(g.nodes) == 0 {
		return &model.ConfigurationError{Field: "graph", Reason: "no stages"}
	}
	if roots := g.Roots(); len(roots) != 1 {
		return model.NewConfigurationError("graph", "expected exactly one begin stage, found %d", len(roots))
	}
	if sinks := g.Sinks(); len(sinks) != 1 {
		return model.NewConfigurationError("graph", "expected exactly one end stage, found %d", len(sinks))
	}
	for i, id := range g.nodes {
		if out := g.g.From(int64(i)).Len(); out > 1 {
			return model.NewConfigurationError(id, "stage fans out to %d stages", out)
		}
		if in := g.g.To(int64(i)).Len(); in > 1 {
			return model.NewConfigurationError(id, "stage joins %d stages", in)
		}
	}
	if _, err := g.TopologicalOrder(); err != nil {
		return err
	}
	return nil
}

func (g *Graph) names(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.nodes[n.ID()]
	}
	return out
}

// byDeclaration sorts nodes by insertion position.
func byDeclaration(nodes []graph.Node) {
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
}
