package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
)

// Cycle is a feedback loop in the link graph.
//
// Cycles are warnings, not errors. Feedback loops are legal while editing;
// they only affect how chain completeness is judged.
type Cycle struct {
	Path    []ir.NodeID `json:"path"` // [a, b, a]
	Message string      `json:"message"`
}

// adjacency maps a node to the targets of its outgoing links in link-id order.
type adjacency map[ir.NodeID][]ir.NodeID

// forwardAdjacency builds the forward adjacency from the link table.
func forwardAdjacency(g *graph.Graph) adjacency {
	adj := make(adjacency, g.NodeCount())
	for _, n := range g.Nodes() {
		adj[n.ID] = []ir.NodeID{}
	}
	for _, l := range g.Links() {
		adj[l.OriginID] = append(adj[l.OriginID], l.TargetID)
	}
	return adj
}

// FindCycles reports every strongly connected component with more than one
// node, and every self-loop. Cycles are ordered by their smallest node id.
func FindCycles(g *graph.Graph) []Cycle {
	adj := forwardAdjacency(g)
	order := make([]ir.NodeID, 0, len(adj))
	for _, n := range g.Nodes() {
		order = append(order, n.ID)
	}

	var cycles []Cycle
	for _, scc := range tarjanSCC(adj, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], adj) {
			cycles = append(cycles, sccToCycle(scc, adj))
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Path[0] < cycles[j].Path[0] })
	return cycles
}

func hasSelfLoop(id ir.NodeID, adj adjacency) bool {
	for _, w := range adj[id] {
		if w == id {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are visited in the given order so results are deterministic.
func tarjanSCC(adj adjacency, order []ir.NodeID) [][]ir.NodeID {
	var (
		index   = 0
		stack   []ir.NodeID
		indices = make(map[ir.NodeID]int)
		lowlink = make(map[ir.NodeID]int)
		onStack = make(map[ir.NodeID]bool)
		sccs    [][]ir.NodeID
	)

	var strongConnect func(ir.NodeID)
	strongConnect = func(v ir.NodeID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component.
		if lowlink[v] == indices[v] {
			var scc []ir.NodeID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, id := range order {
		if _, visited := indices[id]; !visited {
			strongConnect(id)
		}
	}
	return sccs
}

func sccToCycle(scc []ir.NodeID, adj adjacency) Cycle {
	if len(scc) == 1 {
		id := scc[0]
		return Cycle{
			Path:    []ir.NodeID{id, id},
			Message: fmt.Sprintf("node %d links to itself", id),
		}
	}

	path := cyclePath(scc, adj)
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprint(id)
	}
	return Cycle{
		Path:    path,
		Message: "feedback loop: " + strings.Join(parts, " -> "),
	}
}

// cyclePath walks from the smallest member of the component along links that
// stay inside it until it returns to the start.
func cyclePath(scc []ir.NodeID, adj adjacency) []ir.NodeID {
	members := make(map[ir.NodeID]bool, len(scc))
	start := scc[0]
	for _, id := range scc {
		members[id] = true
		if id < start {
			start = id
		}
	}

	path := []ir.NodeID{start}
	visited := make(map[ir.NodeID]bool)
	current := start
	for {
		visited[current] = true

		var next ir.NodeID
		found := false
		for _, w := range adj[current] {
			if members[w] && (!visited[w] || w == start) {
				next, found = w, true
				break
			}
		}
		if !found {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
