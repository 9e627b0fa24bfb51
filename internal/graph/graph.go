package graph

import (
	"fmt"
	"sort"
)

// node is a single vertex with its adjacency in both directions.
type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// Graph is a directed acyclic dependency graph. It is not safe for
// concurrent mutation; the resolution pipeline is single-threaded.
type Graph struct {
	nodes map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a new node with the given ID to the graph. Adding an existing
// ID is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// HasNode reports whether the given ID is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddEdge creates a directed edge from fromID to toID, meaning toID depends
// on fromID. An error is returned if either node does not exist or the edge
// would be self-referential.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// Dependencies returns the IDs the given node depends on, sorted.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	deps := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		deps = append(deps, depID)
	}
	sort.Strings(deps)
	return deps, nil
}

// CycleError reports a dependency cycle, listing the node IDs along it in
// reference order.
type CycleError struct {
	Nodes []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.Nodes) == 0 {
		return "cycle detected"
	}
	return fmt.Sprintf("cycle detected involving node '%s'", e.Nodes[0])
}

// TopologicalOrder returns all node IDs such that every node appears
// strictly after all of its dependencies. Ties break lexically so the order
// is deterministic. If the graph contains a cycle a *CycleError naming the
// participating nodes is returned.
func (g *Graph) TopologicalOrder() ([]string, error) {
	// Classic DFS with three node sets: permanent (fully visited),
	// temporary (in the current recursion stack), unvisited.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	stack := make([]string, 0, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return &CycleError{Nodes: cycleFromStack(stack, n.id)}
		}

		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, depID := range sortedIDs(n.deps) {
			if err := visit(n.deps[depID]); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
		order = append(order, n.id)
		return nil
	}

	for _, id := range sortedIDs(g.nodes) {
		if !permanent[id] {
			if err := visit(g.nodes[id]); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// cycleFromStack trims the DFS stack down to the segment that forms the
// cycle ending at repeat.
func cycleFromStack(stack []string, repeat string) []string {
	for i, id := range stack {
		if id == repeat {
			cycle := make([]string, len(stack)-i, len(stack)-i+1)
			copy(cycle, stack[i:])
			return append(cycle, repeat)
		}
	}
	return []string{repeat}
}

func sortedIDs(m map[string]*node) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
