package graph

// PathToCycle reports whether adding the edge predecessor -> successor would
// close a cycle. It returns nil when the edge is safe; otherwise one concrete
// cycle in dependency order, starting and ending at successor. A self edge
// yields [id, id].
//
// The search walks backward from predecessor along existing predecessor
// edges; reaching successor means successor already precedes predecessor.
func (g *Graph) PathToCycle(predecessor, successor string) []string {
	if predecessor == successor {
		return []string{predecessor, predecessor}
	}

	type frame struct {
		id   string
		next int
	}
	visited := map[string]bool{predecessor: true}
	stack := []frame{{id: predecessor}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.id == successor {
			// stack holds predecessor <- ... <- successor; reverse it into
			// dependency order and close the loop with the new edge.
			cycle := make([]string, 0, len(stack)+1)
			for i := len(stack) - 1; i >= 0; i-- {
				cycle = append(cycle, stack[i].id)
			}
			return append(cycle, successor)
		}

		preds := g.RevAdj[top.id]
		if top.next >= len(preds) {
			stack = stack[:len(stack)-1]
			continue
		}
		p := preds[top.next].From
		top.next++
		if visited[p] {
			continue
		}
		visited[p] = true
		stack = append(stack, frame{id: p})
	}
	return nil
}

// DetectCycle returns a cycle path if one exists, or nil if the graph is acyclic.
// The path starts and ends with the same node.
// Uses DFS with coloring: white (unvisited), gray (on the stack), black (done).
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	type frame struct {
		id   string
		edge int
	}
	color := make(map[string]int, len(g.Order))

	for _, root := range g.Order {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := g.Adj[top.id]
			if top.edge >= len(out) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := out[top.edge].To
			top.edge++

			switch color[next] {
			case gray:
				// Gray nodes are exactly the stack; the cycle runs from next to top.
				start := 0
				for i := range stack {
					if stack[i].id == next {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start+1)
				for _, f := range stack[start:] {
					cycle = append(cycle, f.id)
				}
				return append(cycle, next)
			case white:
				color[next] = gray
				stack = append(stack, frame{id: next})
			}
		}
	}
	return nil
}

// CycleNodes returns every node that lies on a cycle, in input order:
// members of strongly connected components with more than one node, plus
// nodes with a self edge. Tarjan's algorithm with an explicit call stack.
func (g *Graph) CycleNodes() []string {
	type frame struct {
		id   string
		edge int
	}

	index := make(map[string]int, len(g.Order))
	low := make(map[string]int, len(g.Order))
	onStack := make(map[string]bool)
	inCycle := make(map[string]bool)
	var stack []string
	counter := 0

	visit := func(id string) {
		index[id] = counter
		low[id] = counter
		counter++
		stack = append(stack, id)
		onStack[id] = true
	}

	for _, root := range g.Order {
		if _, seen := index[root]; seen {
			continue
		}
		visit(root)
		calls := []frame{{id: root}}

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			out := g.Adj[top.id]
			if top.edge < len(out) {
				w := out[top.edge].To
				top.edge++
				if w == top.id {
					inCycle[w] = true
				}
				if _, seen := index[w]; !seen {
					visit(w)
					calls = append(calls, frame{id: w})
				} else if onStack[w] {
					low[top.id] = min(low[top.id], index[w])
				}
				continue
			}

			v := top.id
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].id
				low[parent] = min(low[parent], low[v])
			}
			if low[v] != index[v] {
				continue
			}

			// v is the root of a component; pop it off.
			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			if len(component) > 1 {
				for _, w := range component {
					inCycle[w] = true
				}
			}
		}
	}

	if len(inCycle) == 0 {
		return nil
	}
	nodes := make([]string, 0, len(inCycle))
	for _, id := range g.Order {
		if inCycle[id] {
			nodes = append(nodes, id)
		}
	}
	return nodes
}
