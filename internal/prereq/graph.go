// Package prereq validates course prerequisite edits against the existing
// dependency graph. Validation is pure graph work; persistence stays in the
// repositories.
package prereq

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrSelfReference is returned when a course lists itself as a prerequisite.
	ErrSelfReference = errors.New("course cannot be its own prerequisite")

	// ErrCycleDetected is returned when an edit would close a dependency loop.
	ErrCycleDetected = errors.New("prerequisite cycle detected")
)

// CycleError wraps ErrCycleDetected with the offending path, ordered from
// the edited course back to itself.
type CycleError struct {
	Path []uint
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("prerequisite cycle detected: %v", e.Path)
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// Assignment is a proposed replacement of one course's prerequisite set.
type Assignment struct {
	CourseID      uint
	Prerequisites []uint
}

// Graph holds the directed prerequisite edges (course -> its prerequisites).
// It is a value snapshot; callers rebuild it from storage before validating.
type Graph struct {
	edges map[uint][]uint
}

// NewGraph creates an empty prerequisite graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[uint][]uint)}
}

// SetPrerequisites replaces the prerequisite set of a course.
func (g *Graph) SetPrerequisites(courseID uint, prereqIDs []uint) {
	ids := make([]uint, len(prereqIDs))
	copy(ids, prereqIDs)
	g.edges[courseID] = ids
}

// Prerequisites returns the direct prerequisites of a course, sorted.
func (g *Graph) Prerequisites(courseID uint) []uint {
	ids := make([]uint, len(g.edges[courseID]))
	copy(ids, g.edges[courseID])
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks whether replacing courseID's prerequisites with prereqIDs
// keeps the graph acyclic. It returns ErrSelfReference for a direct
// self-loop and a *CycleError when the replacement would close a longer
// loop. The graph itself is not modified.
func (g *Graph) Validate(courseID uint, prereqIDs []uint) error {
	return g.validateWith(map[uint][]uint{courseID: prereqIDs}, courseID, prereqIDs)
}

// Apply records a validated replacement in the graph. Callers validate
// first; Apply performs no checks of its own.
func (g *Graph) Apply(courseID uint, prereqIDs []uint) {
	g.SetPrerequisites(courseID, prereqIDs)
}

// ValidateBatch checks a sequence of replacements cumulatively: each
// assignment is validated against the graph with all earlier assignments
// already applied, so cycles formed entirely inside the batch are caught.
// The graph itself is not modified.
func (g *Graph) ValidateBatch(assignments []Assignment) error {
	overrides := make(map[uint][]uint, len(assignments))
	for _, a := range assignments {
		if err := g.validateWith(withOverride(overrides, a.CourseID, a.Prerequisites), a.CourseID, a.Prerequisites); err != nil {
			return fmt.Errorf("course %d: %w", a.CourseID, err)
		}
		overrides[a.CourseID] = a.Prerequisites
	}
	return nil
}

// validateWith checks the replacement using overrides layered over the
// stored edges, without mutating either.
func (g *Graph) validateWith(overrides map[uint][]uint, courseID uint, prereqIDs []uint) error {
	seen := make(map[uint]bool, len(prereqIDs))
	for _, p := range prereqIDs {
		if p == courseID {
			return ErrSelfReference
		}
		if seen[p] {
			return fmt.Errorf("duplicate prerequisite %d", p)
		}
		seen[p] = true
	}

	// A cycle exists iff courseID is reachable from any new prerequisite
	// by following prerequisite edges.
	for _, p := range prereqIDs {
		if path := g.pathWith(overrides, p, courseID); path != nil {
			full := append([]uint{courseID}, path...)
			return &CycleError{Path: full}
		}
	}
	return nil
}

// pathWith performs an iterative depth-first search from -> to over the
// overridden edge set and returns the discovered path, or nil.
func (g *Graph) pathWith(overrides map[uint][]uint, from, to uint) []uint {
	if from == to {
		return []uint{from}
	}

	parent := map[uint]uint{}
	visited := map[uint]bool{from: true}
	stack := []uint{from}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range g.edgesOf(overrides, node) {
			if visited[next] {
				continue
			}
			parent[next] = node
			if next == to {
				return buildPath(parent, from, to)
			}
			visited[next] = true
			stack = append(stack, next)
		}
	}
	return nil
}

func (g *Graph) edgesOf(overrides map[uint][]uint, node uint) []uint {
	if edges, ok := overrides[node]; ok {
		return edges
	}
	return g.edges[node]
}

func buildPath(parent map[uint]uint, from, to uint) []uint {
	path := []uint{to}
	for node := to; node != from; {
		node = parent[node]
		path = append(path, node)
	}
	// Reverse into from -> to order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func withOverride(overrides map[uint][]uint, courseID uint, prereqIDs []uint) map[uint][]uint {
	merged := make(map[uint][]uint, len(overrides)+1)
	for k, v := range overrides {
		merged[k] = v
	}
	merged[courseID] = prereqIDs
	return merged
}
