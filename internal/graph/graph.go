package graph

import (
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// Build constructs a Graph from node ids and edges. Edges naming unknown
// nodes and repeated ordered pairs are dropped and reported; the first
// occurrence of a pair wins. Repeated node ids keep their first index.
func Build(ids []string, edges []Edge) (*Graph, []Rejected) {
	g := &Graph{
		Index:  make(map[string]int, len(ids)),
		Adj:    make(map[string][]Edge),
		RevAdj: make(map[string][]Edge),
	}

	for _, id := range ids {
		if _, ok := g.Index[id]; ok {
			continue
		}
		g.Index[id] = len(g.Order)
		g.Order = append(g.Order, id)
	}

	var rejected []Rejected
	edgeSet := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if _, ok := g.Index[e.From]; !ok {
			rejected = append(rejected, Rejected{Edge: e, Reason: ReasonUnknownPredecessor})
			continue
		}
		if _, ok := g.Index[e.To]; !ok {
			rejected = append(rejected, Rejected{Edge: e, Reason: ReasonUnknownSuccessor})
			continue
		}
		key := [2]string{e.From, e.To}
		if edgeSet[key] {
			rejected = append(rejected, Rejected{Edge: e, Reason: ReasonDuplicate})
			continue
		}
		edgeSet[key] = true
		g.Adj[e.From] = append(g.Adj[e.From], e)
		g.RevAdj[e.To] = append(g.RevAdj[e.To], e)
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	return g, rejected
}

// FromDependencies builds a Graph over work items and their dependencies.
func FromDependencies(items []domain.WorkItem, deps []domain.Dependency) (*Graph, []Rejected) {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return Build(ids, EdgesOf(deps))
}

// EdgesOf converts stored dependencies to graph edges.
func EdgesOf(deps []domain.Dependency) []Edge {
	edges := make([]Edge, len(deps))
	for i, d := range deps {
		edges[i] = Edge{From: d.PredecessorID, To: d.SuccessorID, Type: d.DependencyType, Lag: d.LeadLagDays}
	}
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Order)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.Index[id]
	return ok
}

// HasEdge reports whether the ordered pair from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	for _, e := range g.Adj[from] {
		if e.To == to {
			return true
		}
	}
	return false
}

// Filter returns a new Graph containing only nodes matching the predicate,
// in their original order. Edges touching a dropped node are dropped.
func (g *Graph) Filter(keep func(id string) bool) *Graph {
	var ids []string
	for _, id := range g.Order {
		if keep(id) {
			ids = append(ids, id)
		}
	}
	var edges []Edge
	for _, id := range g.Order {
		for _, e := range g.Adj[id] {
			if keep(e.From) && keep(e.To) {
				edges = append(edges, e)
			}
		}
	}
	filtered, _ := Build(ids, edges)
	return filtered
}
