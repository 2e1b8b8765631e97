package graph

import "github.com/steilerDev/cornerstone-sub004/internal/domain"

// Edge is a typed precedence constraint between two nodes.
type Edge struct {
	From string
	To   string
	Type domain.DependencyType
	Lag  int // positive lag, negative lead
}

// Graph is a directed graph of scheduling nodes (work items and milestone gates).
// Adjacency lists preserve the order edges were supplied in.
type Graph struct {
	Order  []string          // node ids in input order
	Index  map[string]int    // node id -> input index
	Adj    map[string][]Edge // node -> outgoing edges (successors)
	RevAdj map[string][]Edge // node -> incoming edges (predecessors)
	Roots  []string          // nodes with no predecessors
	Leaves []string          // nodes with no successors
}

// Rejected is an edge dropped while building the graph.
type Rejected struct {
	Edge   Edge
	Reason string
}

const (
	ReasonUnknownPredecessor = "unknown predecessor"
	ReasonUnknownSuccessor   = "unknown successor"
	ReasonDuplicate          = "duplicate edge"
)
