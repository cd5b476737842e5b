package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

func newCategoryServiceForTest() (CategoryService, *mockRepository) {
	repo := newMockRepository()
	svc := NewCategoryService(repo, nil, testLogger(), validator.New())
	return svc, repo
}

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("slug derived from name", func(t *testing.T) {
		svc, repo := newCategoryServiceForTest()
		academic := seedUser(repo, "academic@ita.edu", models.RoleAcademic)

		category, err := svc.Create(ctx, academic, &CreateCategoryRequest{Name: "Data Science & AI"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if category.Slug != "data-science-ai" {
			t.Errorf("expected slug data-science-ai, got %q", category.Slug)
		}
	})

	t.Run("registrar denied", func(t *testing.T) {
		svc, repo := newCategoryServiceForTest()
		registrar := seedUser(repo, "registrar@ita.edu", models.RoleRegistrar)

		_, err := svc.Create(ctx, registrar, &CreateCategoryRequest{Name: "Forbidden"})
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("empty category deleted", func(t *testing.T) {
		svc, repo := newCategoryServiceForTest()
		admin := seedUser(repo, "admin@ita.edu", models.RoleAdmin)
		category := seedCategory(repo, "empty")

		if err := svc.Delete(ctx, admin, category.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	})

	t.Run("non-empty category rejected", func(t *testing.T) {
		svc, repo := newCategoryServiceForTest()
		admin := seedUser(repo, "admin@ita.edu", models.RoleAdmin)
		category := seedCategory(repo, "programming")
		repo.categories.courseCount = map[uint]int64{category.ID: 3}

		if err := svc.Delete(ctx, admin, category.ID); !errors.Is(err, ErrCategoryNotEmpty) {
			t.Errorf("expected ErrCategoryNotEmpty, got %v", err)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, repo := newCategoryServiceForTest()
		admin := seedUser(repo, "admin@ita.edu", models.RoleAdmin)

		if err := svc.Delete(ctx, admin, 42); !errors.Is(err, ErrCategoryNotFound) {
			t.Errorf("expected ErrCategoryNotFound, got %v", err)
		}
	})
}

func TestCategoryService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCategoryServiceForTest()
	admin := seedUser(repo, "admin@ita.edu", models.RoleAdmin)
	category := seedCategory(repo, "programming")

	name := "Modern Programming"
	updated, err := svc.Update(ctx, admin, category.ID, &UpdateCategoryRequest{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Modern Programming" || updated.Slug != "modern-programming" {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestCategoryService_PublicList(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCategoryServiceForTest()
	admin := seedUser(repo, "admin@ita.edu", models.RoleAdmin)
	visible := seedCategory(repo, "programming")
	hidden := seedCategory(repo, "archived")

	inactive := false
	if _, err := svc.Update(ctx, admin, hidden.ID, &UpdateCategoryRequest{IsActive: &inactive}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Anonymous callers get active categories only.
	categories, err := svc.PublicList(ctx)
	if err != nil {
		t.Fatalf("PublicList failed: %v", err)
	}
	if len(categories) != 1 || categories[0].ID != visible.ID {
		t.Errorf("expected only the active category, got %+v", categories)
	}
}
