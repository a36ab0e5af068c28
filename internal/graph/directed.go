// Package graph provides a small directed graph with cycle detection and a
// deterministic topological sort.
package graph

import (
	"errors"
	"slices"
)

// ErrCycle is returned by TopologicalSort when the graph has a cycle.
var ErrCycle = errors.New("graph has a cycle")

// Directed is a directed graph over comparable vertices. Vertices keep the
// order in which they were first added.
type Directed[T comparable] struct {
	vertices []T
	index    map[T]int
	edges    map[T][]T
}

// NewDirected creates an empty graph.
func NewDirected[T comparable]() *Directed[T] {
	return &Directed[T]{
		index: make(map[T]int),
		edges: make(map[T][]T),
	}
}

// AddVertex adds a vertex if it is not already present.
func (g *Directed[T]) AddVertex(v T) {
	if _, ok := g.index[v]; ok {
		return
	}
	g.index[v] = len(g.vertices)
	g.vertices = append(g.vertices, v)
}

// AddEdge adds an edge from one vertex to another, adding the vertices as
// needed. Self edges and duplicate edges are ignored.
func (g *Directed[T]) AddEdge(from, to T) {
	g.AddVertex(from)
	g.AddVertex(to)
	if from == to {
		return
	}
	if slices.Contains(g.edges[from], to) {
		return
	}
	g.edges[from] = append(g.edges[from], to)
}

// Vertices returns the vertices in insertion order.
func (g *Directed[T]) Vertices() []T {
	return slices.Clone(g.vertices)
}

// Successors returns the targets of the edges leaving v.
func (g *Directed[T]) Successors(v T) []T {
	return slices.Clone(g.edges[v])
}

// HasCycle reports whether any path leads back to its start.
func (g *Directed[T]) HasCycle() bool {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[T]int, len(g.vertices))

	var visit func(v T) bool
	visit = func(v T) bool {
		state[v] = visiting
		for _, next := range g.edges[v] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		state[v] = done
		return false
	}

	for _, v := range g.vertices {
		if state[v] == unvisited && visit(v) {
			return true
		}
	}
	return false
}

// Levels groups the vertices so that every edge points from an earlier level
// to a later one. Each level is ordered with cmp.
func (g *Directed[T]) Levels(cmp func(a, b T) int) ([][]T, error) {
	if g.HasCycle() {
		return nil, ErrCycle
	}

	inDegree := make(map[T]int, len(g.vertices))
	for _, v := range g.vertices {
		for _, next := range g.edges[v] {
			inDegree[next]++
		}
	}

	var levels [][]T
	remaining := slices.Clone(g.vertices)
	for len(remaining) > 0 {
		var level, rest []T
		for _, v := range remaining {
			if inDegree[v] == 0 {
				level = append(level, v)
			} else {
				rest = append(rest, v)
			}
		}
		for _, v := range level {
			for _, next := range g.edges[v] {
				inDegree[next]--
			}
		}
		slices.SortStableFunc(level, cmp)
		levels = append(levels, level)
		remaining = rest
	}
	return levels, nil
}

// TopologicalSort returns the vertices so that every edge points forward.
// Vertices at the same depth are ordered with cmp.
func (g *Directed[T]) TopologicalSort(cmp func(a, b T) int) ([]T, error) {
	levels, err := g.Levels(cmp)
	if err != nil {
		return nil, err
	}
	sorted := make([]T, 0, len(g.vertices))
	for _, level := range levels {
		sorted = append(sorted, level...)
	}
	return sorted, nil
}
