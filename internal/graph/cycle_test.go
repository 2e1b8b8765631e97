package graph

import (
	"reflect"
	"testing"
)

func TestPathToCycle_SelfReference(t *testing.T) {
	g, _ := Build([]string{"a"}, nil)

	got := g.PathToCycle("a", "a")
	if !reflect.DeepEqual(got, []string{"a", "a"}) {
		t.Errorf("expected [a a], got %v", got)
	}
}

func TestPathToCycle_DirectReverse(t *testing.T) {
	// existing A -> B; candidate B -> A
	g, _ := Build([]string{"a", "b"}, []Edge{fs("a", "b")})

	got := g.PathToCycle("b", "a")
	if !reflect.DeepEqual(got, []string{"a", "b", "a"}) {
		t.Errorf("expected [a b a], got %v", got)
	}
}

func TestPathToCycle_LongChain(t *testing.T) {
	// A -> B -> C -> D; candidate D -> A
	g, _ := Build([]string{"a", "b", "c", "d"}, []Edge{fs("a", "b"), fs("b", "c"), fs("c", "d")})

	got := g.PathToCycle("d", "a")
	if !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "a"}) {
		t.Errorf("expected [a b c d a], got %v", got)
	}
}

func TestPathToCycle_Safe(t *testing.T) {
	// A -> B, A -> C; candidate B -> C is fine
	g, _ := Build([]string{"a", "b", "c"}, []Edge{fs("a", "b"), fs("a", "c")})

	if got := g.PathToCycle("b", "c"); got != nil {
		t.Errorf("expected no cycle, got %v", got)
	}
	if got := g.PathToCycle("a", "c"); got != nil {
		t.Errorf("parallel edge is not a cycle, got %v", got)
	}
}

func TestPathToCycle_SkipsDeadBranches(t *testing.T) {
	// X -> B, A -> B, B -> C; candidate C -> A
	g, _ := Build([]string{"x", "a", "b", "c"}, []Edge{fs("x", "b"), fs("a", "b"), fs("b", "c")})

	got := g.PathToCycle("c", "a")
	if !reflect.DeepEqual(got, []string{"a", "b", "c", "a"}) {
		t.Errorf("expected [a b c a], got %v", got)
	}
}

func TestDetectCycle_NoCycle(t *testing.T) {
	g, _ := Build([]string{"a", "b"}, []Edge{fs("a", "b")})

	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_WithCycle(t *testing.T) {
	// A -> B -> C -> A
	g, _ := Build([]string{"a", "b", "c"}, []Edge{fs("a", "b"), fs("b", "c"), fs("c", "a")})

	cycle := g.DetectCycle()
	if !reflect.DeepEqual(cycle, []string{"a", "b", "c", "a"}) {
		t.Errorf("expected [a b c a], got %v", cycle)
	}
}

func TestDetectCycle_SelfLoop(t *testing.T) {
	g, _ := Build([]string{"a", "b"}, []Edge{fs("a", "b"), fs("b", "b")})

	cycle := g.DetectCycle()
	if !reflect.DeepEqual(cycle, []string{"b", "b"}) {
		t.Errorf("expected [b b], got %v", cycle)
	}
}

func TestCycleNodes(t *testing.T) {
	// A -> B -> C -> B (cycle B/C), C -> D, E alone with self loop
	g, _ := Build(
		[]string{"a", "b", "c", "d", "e"},
		[]Edge{fs("a", "b"), fs("b", "c"), fs("c", "b"), fs("c", "d"), fs("e", "e")},
	)

	got := g.CycleNodes()
	if !reflect.DeepEqual(got, []string{"b", "c", "e"}) {
		t.Errorf("expected [b c e], got %v", got)
	}
}

func TestCycleNodes_Acyclic(t *testing.T) {
	// Diamond: A -> B, A -> C, B -> D, C -> D
	g, _ := Build(
		[]string{"a", "b", "c", "d"},
		[]Edge{fs("a", "b"), fs("a", "c"), fs("b", "d"), fs("c", "d")},
	)

	if got := g.CycleNodes(); got != nil {
		t.Errorf("expected no cycle nodes, got %v", got)
	}
}

func TestCycleNodes_AgreesWithPathToCycle(t *testing.T) {
	// Adding each candidate edge to an acyclic graph creates a cycle exactly
	// when PathToCycle says so.
	ids := []string{"a", "b", "c", "d"}
	base := []Edge{fs("a", "b"), fs("b", "c"), fs("a", "d")}
	g, _ := Build(ids, base)

	for _, from := range ids {
		for _, to := range ids {
			if from == to {
				continue
			}
			path := g.PathToCycle(from, to)
			withEdge, _ := Build(ids, append(append([]Edge{}, base...), fs(from, to)))
			hasCycle := withEdge.CycleNodes() != nil
			if hasCycle != (path != nil) {
				t.Errorf("%s -> %s: PathToCycle=%v, CycleNodes cycle=%v", from, to, path, hasCycle)
			}
		}
	}
}
