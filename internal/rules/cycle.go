package rules

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning reports a group of rules whose replacements feed each other.
//
// Rule A feeds rule B when B's needle occurs in A's replacement: once A has
// rewritten a document, a later pass (or B itself, if B follows A in table
// order) will rewrite the inserted text again. A self-loop is a rule whose
// needle occurs in its own replacement; flat formats reject those at load
// time, structured formats only warn.
//
// Cycles are warnings, not errors. Each pass visits every rule exactly once,
// so a cycle never loops within a pass, but a document can keep changing on
// every subsequent pass.
type CycleWarning struct {
	Path    []string `json:"path"`    // ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles reports every strongly connected group of rules in t.
// Warnings are ordered by the table position of their first rule.
// A table without feedback returns an empty list.
func AnalyzeCycles(t *Table) []CycleWarning {
	if t == nil || t.Len() == 0 {
		return []CycleWarning{}
	}

	graph := feedGraph(t.rules)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, sccToWarning(t.rules, scc, graph))
		}
	}
	return warnings
}

// feedGraph maps rule index → indices of rules its replacement feeds, in
// table order.
func feedGraph(rules []Rule) [][]int {
	graph := make([][]int, len(rules))
	for i, from := range rules {
		for j, to := range rules {
			if strings.Contains(from.Replacement, to.Needle()) {
				graph[i] = append(graph[i], j)
			}
		}
	}
	return graph
}

func hasSelfLoop(node int, graph [][]int) bool {
	for _, w := range graph[node] {
		if w == node {
			return true
		}
	}
	return false
}

// tarjanSCC returns the strongly connected components of graph. Members of
// each component and the components themselves are sorted by table order.
func tarjanSCC(graph [][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(graph))
		lowlink = make([]int, len(graph))
		onStack = make([]bool, len(graph))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

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

	for v := range graph {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}

	slices.SortFunc(sccs, func(a, b []int) int { return a[0] - b[0] })
	return sccs
}

func sccToWarning(rules []Rule, scc []int, graph [][]int) CycleWarning {
	if len(scc) == 1 {
		p := rules[scc[0]].Pattern
		return CycleWarning{
			Path:    []string{p, p},
			Message: fmt.Sprintf("replacement of %q contains its own pattern", p),
			Level:   "warning",
		}
	}

	path := cyclePath(scc, graph)
	names := make([]string, len(path))
	for i, n := range path {
		names[i] = rules[n].Pattern
	}
	return CycleWarning{
		Path:    names,
		Message: fmt.Sprintf("replacements feed each other: %s", strings.Join(names, " → ")),
		Level:   "warning",
	}
}

// cyclePath walks edges inside scc from its first member until it returns
// to the start or runs out of unvisited members.
func cyclePath(scc []int, graph [][]int) []int {
	member := make(map[int]bool, len(scc))
	for _, n := range scc {
		member[n] = true
	}

	start := scc[0]
	current := start
	path := []int{current}
	visited := map[int]bool{}
	for {
		visited[current] = true
		next := -1
		for _, w := range graph[current] {
			if member[w] && w != current && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next < 0 {
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
