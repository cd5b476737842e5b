package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

func TestExportService_ExportCatalog(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewExportService(repo, nil, testLogger())

	admin := seedUser(repo, "admin@ita.edu", models.RoleAdmin)
	category := seedCategory(repo, "programming")
	a := seedCourse(repo, "CS-101", category.ID)
	b := seedCourse(repo, "CS-201", category.ID)
	repo.courses.prereqs[b.ID] = []uint{a.ID}

	data, err := svc.ExportCatalog(ctx, admin)
	if err != nil {
		t.Fatalf("ExportCatalog failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Catalog")
	if err != nil {
		t.Fatalf("failed to read Catalog sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 course rows, got %d", len(rows))
	}
	if rows[0][0] != "Code" {
		t.Errorf("unexpected header row: %v", rows[0])
	}

	// CS-201 carries CS-101 as a prerequisite cell.
	for _, row := range rows[1:] {
		if row[0] == "CS-201" && row[8] != "CS-101" {
			t.Errorf("expected prerequisite CS-101 in row, got %q", row[8])
		}
	}
}

func TestExportService_StudentDenied(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewExportService(repo, nil, testLogger())
	student := seedUser(repo, "student@ita.edu", models.RoleStudent)

	_, err := svc.ExportCatalog(ctx, student)
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}
