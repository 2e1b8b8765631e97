package graph

import (
	"testing"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

func fs(from, to string) Edge {
	return Edge{From: from, To: to, Type: domain.FinishToStart}
}

func TestBuild_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	g, rejected := Build(
		[]string{"a", "b", "c", "d"},
		[]Edge{fs("a", "b"), fs("a", "c"), fs("b", "d"), fs("c", "d")},
	)
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}

	if g.NodeCount() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NodeCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "d" {
		t.Errorf("expected leaves=[d], got %v", g.Leaves)
	}
	if adj := g.Adj["a"]; len(adj) != 2 || adj[0].To != "b" || adj[1].To != "c" {
		t.Errorf("expected a -> [b c] in insertion order, got %v", adj)
	}
	if rev := g.RevAdj["d"]; len(rev) != 2 {
		t.Errorf("expected d to have 2 predecessors, got %v", rev)
	}
	if g.Index["c"] != 2 {
		t.Errorf("expected index of c = 2, got %d", g.Index["c"])
	}
}

func TestBuild_SingleNode(t *testing.T) {
	g, _ := Build([]string{"x"}, nil)

	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "x" {
		t.Errorf("expected roots=[x], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "x" {
		t.Errorf("expected leaves=[x], got %v", g.Leaves)
	}
}

func TestBuild_UnknownAndDuplicateEdgesRejected(t *testing.T) {
	g, rejected := Build(
		[]string{"a", "b"},
		[]Edge{fs("a", "z"), fs("y", "b"), fs("a", "b"), {From: "a", To: "b", Type: domain.StartToStart}},
	)

	if len(g.Adj["a"]) != 1 || g.Adj["a"][0].Type != domain.FinishToStart {
		t.Errorf("expected only the first a -> b edge, got %v", g.Adj["a"])
	}
	want := []string{ReasonUnknownSuccessor, ReasonUnknownPredecessor, ReasonDuplicate}
	if len(rejected) != len(want) {
		t.Fatalf("expected %d rejections, got %v", len(want), rejected)
	}
	for i, r := range rejected {
		if r.Reason != want[i] {
			t.Errorf("rejection %d: expected %q, got %q", i, want[i], r.Reason)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	g, rejected := Build(nil, nil)
	if g.NodeCount() != 0 || len(rejected) != 0 {
		t.Errorf("expected empty graph, got %d nodes, %v", g.NodeCount(), rejected)
	}
	if g.DetectCycle() != nil || g.CycleNodes() != nil {
		t.Error("empty graph cannot have a cycle")
	}
}

func TestFromDependencies(t *testing.T) {
	items := []domain.WorkItem{{ID: "f"}, {ID: "r"}}
	deps := []domain.Dependency{{PredecessorID: "f", SuccessorID: "r", DependencyType: domain.FinishToStart, LeadLagDays: 2}}

	g, _ := FromDependencies(items, deps)
	if !g.HasEdge("f", "r") || g.HasEdge("r", "f") {
		t.Errorf("expected f -> r only, got %v", g.Adj)
	}
	if g.Adj["f"][0].Lag != 2 {
		t.Errorf("expected lag 2, got %d", g.Adj["f"][0].Lag)
	}
}

func TestFilter(t *testing.T) {
	// A -> B -> C
	g, _ := Build([]string{"a", "b", "c"}, []Edge{fs("a", "b"), fs("b", "c")})

	filtered := g.Filter(func(id string) bool { return id != "b" })

	if filtered.NodeCount() != 2 {
		t.Errorf("expected 2 nodes after filter, got %d", filtered.NodeCount())
	}
	if filtered.Has("b") {
		t.Error("node b should have been filtered out")
	}
	if len(filtered.Adj["a"]) != 0 {
		t.Errorf("edges through b should be dropped, got %v", filtered.Adj["a"])
	}
}
