package prereq

import (
	"errors"
	"testing"
)

func TestGraph_Validate_SelfReference(t *testing.T) {
	g := NewGraph()

	err := g.Validate(1, []uint{1})
	if !errors.Is(err, ErrSelfReference) {
		t.Fatalf("Expected ErrSelfReference, got %v", err)
	}
}

func TestGraph_Validate_Duplicates(t *testing.T) {
	g := NewGraph()

	err := g.Validate(1, []uint{2, 3, 2})
	if err == nil {
		t.Fatal("Expected error for duplicate prerequisite, got nil")
	}
}

func TestGraph_Validate_CycleDetection(t *testing.T) {
	// A -> B -> C
	g := NewGraph()
	g.SetPrerequisites(1, []uint{2})
	g.SetPrerequisites(2, []uint{3})

	t.Run("closing the chain is rejected", func(t *testing.T) {
		err := g.Validate(3, []uint{1})
		if !errors.Is(err, ErrCycleDetected) {
			t.Fatalf("Expected ErrCycleDetected, got %v", err)
		}

		var cycleErr *CycleError
		if !errors.As(err, &cycleErr) {
			t.Fatalf("Expected CycleError, got %T", err)
		}
		if len(cycleErr.Path) < 2 {
			t.Errorf("Expected cycle path with at least 2 nodes, got %v", cycleErr.Path)
		}
		if cycleErr.Path[0] != 3 {
			t.Errorf("Expected cycle path to start at course 3, got %v", cycleErr.Path)
		}
	})

	t.Run("acyclic extension is accepted", func(t *testing.T) {
		if err := g.Validate(3, []uint{4}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("validate does not mutate the graph", func(t *testing.T) {
		// The rejected edge from the first subtest must not persist.
		prereqs := g.Prerequisites(3)
		if len(prereqs) != 0 {
			t.Errorf("Expected course 3 to have no prerequisites, got %v", prereqs)
		}
	})
}

func TestGraph_Validate_IndirectCycle(t *testing.T) {
	g := NewGraph()
	g.SetPrerequisites(10, []uint{20})
	g.SetPrerequisites(20, []uint{30})
	g.SetPrerequisites(30, []uint{40})

	err := g.Validate(40, []uint{10})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("Expected ErrCycleDetected for indirect cycle, got %v", err)
	}
}

func TestGraph_Validate_ReplacementBreaksCycle(t *testing.T) {
	// Replacing an edge set is validated against the replacement, not the
	// union with the old edges.
	g := NewGraph()
	g.SetPrerequisites(1, []uint{2})

	// 2 -> 1 would cycle, but replacing 1's prerequisites with {3} at the
	// same time removes the offending edge.
	if err := g.Validate(1, []uint{3}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestGraph_ValidateBatch_Cumulative(t *testing.T) {
	g := NewGraph()

	t.Run("cycle across batch items is rejected", func(t *testing.T) {
		err := g.ValidateBatch([]Assignment{
			{CourseID: 1, Prerequisites: []uint{2}},
			{CourseID: 2, Prerequisites: []uint{1}},
		})
		if !errors.Is(err, ErrCycleDetected) {
			t.Fatalf("Expected ErrCycleDetected, got %v", err)
		}
	})

	t.Run("later item sees earlier replacement", func(t *testing.T) {
		g2 := NewGraph()
		g2.SetPrerequisites(1, []uint{2})

		// First item drops the 1 -> 2 edge, so 2 -> 1 is acceptable.
		err := g2.ValidateBatch([]Assignment{
			{CourseID: 1, Prerequisites: nil},
			{CourseID: 2, Prerequisites: []uint{1}},
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("self reference in batch is rejected", func(t *testing.T) {
		err := g.ValidateBatch([]Assignment{
			{CourseID: 7, Prerequisites: []uint{7}},
		})
		if !errors.Is(err, ErrSelfReference) {
			t.Fatalf("Expected ErrSelfReference, got %v", err)
		}
	})
}

func TestGraph_Apply(t *testing.T) {
	g := NewGraph()
	g.Apply(1, []uint{2, 3})
	g.Apply(2, []uint{3})

	prereqs := g.Prerequisites(1)
	if len(prereqs) != 2 {
		t.Fatalf("Expected 2 prerequisites, got %v", prereqs)
	}

	// New edges participate in later validations.
	if err := g.Validate(3, []uint{1}); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("Expected ErrCycleDetected after Apply, got %v", err)
	}
}

func TestGraph_SetPrerequisites_CopiesInput(t *testing.T) {
	g := NewGraph()
	input := []uint{2, 3}
	g.SetPrerequisites(1, input)

	input[0] = 99

	prereqs := g.Prerequisites(1)
	for _, p := range prereqs {
		if p == 99 {
			t.Fatal("Graph must not alias the caller's slice")
		}
	}
}
