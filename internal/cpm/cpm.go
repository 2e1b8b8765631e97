package cpm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/graph"
)

// node is the scheduling state of a work item or gate. Dates are day numbers.
type node struct {
	id    string
	index int
	item  *domain.WorkItem // nil for gates
	gate  *Gate            // nil for work items

	span          int  // finish - start
	assumedLength bool // duration was missing

	es, ef    int
	ls, lf    int
	scheduled bool
}

func (n *node) early() window { return window{start: n.es, finish: n.ef} }
func (n *node) late() window  { return window{start: n.ls, finish: n.lf} }
func (n *node) float() int    { return n.ls - n.es }

type scheduler struct {
	in       Input
	g        *graph.Graph
	nodes    map[string]*node
	order    []string // nodes released by the topological sort
	warnings []string
}

// Schedule runs the critical path method over a snapshot.
// It never fails: inconsistencies in the input are reported as warnings,
// and a cyclic graph yields a partial schedule with CycleNodes set.
func Schedule(in Input) *Result {
	if in.Mode == "" {
		in.Mode = ModeFull
	}
	s := &scheduler{in: in, nodes: make(map[string]*node)}
	s.build()

	result := &Result{
		ScheduledItems: []ScheduledItem{},
		CriticalPath:   []string{},
		CycleNodes:     []string{},
	}

	s.order = topoSort(s.g)
	cycleNodes := s.g.CycleNodes()
	cyclic := len(cycleNodes) > 0
	if cyclic {
		for _, id := range cycleNodes {
			if s.nodes[id].item != nil {
				result.CycleNodes = append(result.CycleNodes, id)
			}
		}
		path := s.g.DetectCycle()
		for i, id := range path {
			path[i] = s.label(id)
		}
		s.warnf("Circular dependency detected: %s; critical path analysis unavailable",
			strings.Join(path, " → "))
		if blocked := s.blockedByCycle(cycleNodes); blocked > 0 {
			s.warnf("%d work item(s) depend on the cycle and were not scheduled", blocked)
		}
	}

	s.forward()
	if in.Mode == ModeFull && !cyclic {
		s.backward()
		result.CriticalPath = s.criticalPath()
	}
	s.itemWarnings()

	for _, id := range s.g.Order {
		n := s.nodes[id]
		if !n.scheduled {
			continue
		}
		if n.gate != nil {
			result.Gates = append(result.Gates, ScheduledGate{
				ID:         n.id,
				Date:       domain.DateFromDay(n.es),
				IsCritical: in.Mode == ModeFull && !cyclic && n.float() == 0,
			})
			continue
		}
		prevStart, prevEnd := n.item.CurrentDates()
		item := ScheduledItem{
			WorkItemID:         n.id,
			PreviousStartDate:  prevStart,
			PreviousEndDate:    prevEnd,
			ScheduledStartDate: domain.DateFromDay(n.es),
			ScheduledEndDate:   domain.DateFromDay(n.ef),
		}
		if in.Mode == ModePreview {
			if item.Moved() {
				result.ScheduledItems = append(result.ScheduledItems, item)
			}
			continue
		}
		if !cyclic {
			f := n.float()
			item.TotalFloat = &f
			item.IsCritical = f == 0
		}
		result.ScheduledItems = append(result.ScheduledItems, item)
	}

	result.Warnings = s.warnings
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return result
}

// label names a node in warnings: work items by id, gates by name.
func (s *scheduler) label(id string) string {
	if n, ok := s.nodes[id]; ok && n.gate != nil && n.gate.Name != "" {
		return n.gate.Name
	}
	return id
}

func (s *scheduler) warnf(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// build indexes work items and gates and assembles the graph.
func (s *scheduler) build() {
	ids := make([]string, 0, len(s.in.WorkItems)+len(s.in.Gates))
	for i := range s.in.WorkItems {
		w := &s.in.WorkItems[i]
		if _, dup := s.nodes[w.ID]; dup {
			s.warnf("duplicate work item %s ignored", w.ID)
			continue
		}
		days, assumed := duration(w)
		s.nodes[w.ID] = &node{id: w.ID, item: w, span: max(days-1, 0), assumedLength: assumed}
		ids = append(ids, w.ID)
	}
	for i := range s.in.Gates {
		gt := &s.in.Gates[i]
		if _, dup := s.nodes[gt.ID]; dup {
			s.warnf("duplicate node %s ignored", gt.ID)
			continue
		}
		s.nodes[gt.ID] = &node{id: gt.ID, gate: gt}
		ids = append(ids, gt.ID)
	}

	edges := graph.EdgesOf(s.in.Dependencies)
	for _, d := range s.in.Dependencies {
		if !d.DependencyType.IsValid() {
			s.warnf("dependency %s -> %s has unknown type %q; treating as %s",
				d.PredecessorID, d.SuccessorID, d.DependencyType, domain.FinishToStart)
		}
	}
	edges = append(edges, GateEdges(s.in.Gates)...)

	var rejected []graph.Rejected
	s.g, rejected = graph.Build(ids, edges)
	for _, r := range rejected {
		switch r.Reason {
		case graph.ReasonDuplicate:
			s.warnf("duplicate dependency %s -> %s ignored", r.Edge.From, r.Edge.To)
		case graph.ReasonUnknownPredecessor:
			s.warnf("dependency %s -> %s ignored: unknown item %s", r.Edge.From, r.Edge.To, r.Edge.From)
		default:
			s.warnf("dependency %s -> %s ignored: unknown item %s", r.Edge.From, r.Edge.To, r.Edge.To)
		}
	}
	for id, n := range s.nodes {
		n.index = s.g.Index[id]
	}
}

// GateEdges returns the edges that tie gates into the graph: each
// contributor finishes no later than its gate (FF 0) and each dependent
// starts no earlier (SS 0).
func GateEdges(gates []Gate) []graph.Edge {
	var edges []graph.Edge
	for _, gt := range gates {
		for _, c := range gt.Contributors {
			edges = append(edges, graph.Edge{From: c, To: gt.ID, Type: domain.FinishToFinish})
		}
		for _, d := range gt.Dependents {
			edges = append(edges, graph.Edge{From: gt.ID, To: d, Type: domain.StartToStart})
		}
	}
	return edges
}

// duration resolves the length of a work item in days.
func duration(w *domain.WorkItem) (days int, assumed bool) {
	if w.DurationDays != nil {
		return *w.DurationDays, false
	}
	if w.StartDate != nil && w.EndDate != nil {
		return w.EndDate.DaysSince(*w.StartDate) + 1, false
	}
	return 1, true
}

// topoSort performs Kahn's algorithm. Ready nodes are released in input
// order. On a cyclic graph it returns the acyclic prefix it could release.
func topoSort(g *graph.Graph) []string {
	inDegree := make(map[string]int, len(g.Order))
	order := make([]string, 0, len(g.Order))
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
	}

	queue := append([]string(nil), g.Roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var newReady []string
		for _, e := range g.Adj[id] {
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				newReady = append(newReady, e.To)
			}
		}
		sort.Slice(newReady, func(i, j int) bool {
			return g.Index[newReady[i]] < g.Index[newReady[j]]
		})
		queue = append(queue, newReady...)
	}
	return order
}

// blockedByCycle counts work items the sort could not release that are not
// themselves on a cycle.
func (s *scheduler) blockedByCycle(cycleNodes []string) int {
	released := make(map[string]bool, len(s.order)+len(cycleNodes))
	for _, id := range s.order {
		released[id] = true
	}
	for _, id := range cycleNodes {
		released[id] = true
	}
	blocked := 0
	for _, id := range s.g.Order {
		if !released[id] && s.nodes[id].item != nil {
			blocked++
		}
	}
	return blocked
}

// forward computes earliest start/finish for every released node.
func (s *scheduler) forward() {
	today := s.in.Today.Day()
	for _, id := range s.order {
		n := s.nodes[id]

		es, bounded := 0, false
		floor := func(day int) {
			if !bounded || day > es {
				es = day
			}
			bounded = true
		}

		if w := n.item; w != nil {
			if w.StartDate != nil {
				floor(w.StartDate.Day())
			}
			if w.StartAfter != nil {
				floor(w.StartAfter.Day())
			}
		}
		if n.gate != nil && !n.gate.Floor.IsZero() {
			floor(n.gate.Floor.Day())
		}
		for _, e := range s.g.RevAdj[id] {
			p := s.nodes[e.From]
			floor(ruleFor(e.Type).startFloor(p.early(), e.Lag, n.span))
		}
		if !bounded {
			es = today
		}

		n.es = es
		n.ef = es + n.span
		n.scheduled = true
	}
}

// backward computes latest start/finish, seeded at the project finish.
// Only work items set the project finish; a gate past it gets negative float.
func (s *scheduler) backward() {
	finish, found := 0, false
	for _, id := range s.order {
		n := s.nodes[id]
		if n.item != nil && (!found || n.ef > finish) {
			finish, found = n.ef, true
		}
	}
	if !found {
		for _, id := range s.order {
			finish = max(finish, s.nodes[id].ef)
		}
	}

	for i := len(s.order) - 1; i >= 0; i-- {
		n := s.nodes[s.order[i]]
		lf := finish
		for _, e := range s.g.Adj[n.id] {
			succ := s.nodes[e.To]
			lf = min(lf, ruleFor(e.Type).finishCeiling(succ.late(), e.Lag, n.span))
		}
		n.lf = lf
		n.ls = lf - n.span
	}
}

// criticalPath returns the chain of zero-float work items that determines the
// project finish, in dependency order. The chain ends at the critical item
// with the latest finish (ties: the one that ends a chain, then the lower
// input index) and follows driving predecessors backward: critical
// predecessors whose edge floor equals the item's earliest start. Ties
// between drivers prefer the later finish, then the lower input index.
func (s *scheduler) criticalPath() []string {
	better := func(a, b *node) bool {
		if a.ef != b.ef {
			return a.ef > b.ef
		}
		return a.index < b.index
	}

	// Among items finishing last, prefer one no critical successor extends.
	open := func(n *node) bool {
		for _, e := range s.g.Adj[n.id] {
			if s.nodes[e.To].float() == 0 {
				return false
			}
		}
		return true
	}

	var end *node
	for _, id := range s.order {
		n := s.nodes[id]
		if n.item == nil || n.float() != 0 {
			continue
		}
		switch {
		case end == nil, n.ef > end.ef:
			end = n
		case n.ef == end.ef && open(n) != open(end):
			if open(n) {
				end = n
			}
		case n.ef == end.ef && n.index < end.index:
			end = n
		}
	}
	if end == nil {
		return []string{}
	}

	var chain []string
	for cur := end; cur != nil; {
		if cur.item != nil {
			chain = append(chain, cur.id)
		}
		var next *node
		for _, e := range s.g.RevAdj[cur.id] {
			p := s.nodes[e.From]
			if p.float() != 0 {
				continue
			}
			if ruleFor(e.Type).startFloor(p.early(), e.Lag, cur.span) != cur.es {
				continue
			}
			if next == nil || better(p, next) {
				next = p
			}
		}
		cur = next
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// itemWarnings reports assumed durations and missed startBefore ceilings,
// in input order.
func (s *scheduler) itemWarnings() {
	for _, id := range s.g.Order {
		n := s.nodes[id]
		if n.item == nil || !n.scheduled {
			continue
		}
		if n.assumedLength {
			s.warnf("%s has no duration; assuming 1 day", id)
		}
		if sb := n.item.StartBefore; sb != nil && n.es > sb.Day() {
			s.warnf("%s cannot start before %s; earliest start is %s",
				id, sb, domain.DateFromDay(n.es))
		}
	}
}
