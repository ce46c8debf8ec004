package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/relive/internal/ir"
)

// CycleWarning represents a potential loop in event branches.
//
// Cycles are warnings, not errors: a loop whose conditions stop holding
// after a few hops is legal data. The engine's chain quota bounds the rest.
type CycleWarning struct {
	Path    []int  `json:"path"`    // e.g. [10001, 10002, 10001]
	Message string `json:"message"` // Human-readable description
	Level   string `json:"level"`   // "warning"
}

// AnalyzeCycles performs static cycle analysis on event branches.
//
// The algorithm:
//  1. Build event → branch target graph
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a potential cycle warning
//
// Acyclic data returns an empty warning list. Output order is deterministic.
func AnalyzeCycles(t *ir.Tables) []CycleWarning {
	graph := make(branchGraph, len(t.Events))
	for id, e := range t.Events {
		targets := make([]int, 0, len(e.Branches))
		for _, b := range e.Branches {
			if _, ok := t.Events[b.EventID]; ok {
				targets = append(targets, b.EventID)
			}
		}
		graph[id] = targets
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return slices.Compare(a.Path, b.Path)
	})
	return warnings
}

// branchGraph maps event id → branch target ids in branch order.
type branchGraph map[int][]int

func hasSelfLoop(node int, graph branchGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending id order.
func tarjanSCC(graph branchGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range slices.Sorted(maps.Keys(graph)) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []int, graph branchGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []int{id, id},
			Message: fmt.Sprintf("event %d branches to itself", id),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = strconv.Itoa(id)
	}
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("potential branch cycle: %s", strings.Join(parts, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks branch edges inside the SCC from its lowest id
// until it returns to the start.
func reconstructCyclePath(scc []int, graph branchGraph) []int {
	members := make(map[int]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[0]
	current := start
	path := []int{current}
	visited := make(map[int]bool)

	for {
		visited[current] = true

		next, found := 0, false
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next, found = neighbor, true
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
