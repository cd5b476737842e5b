package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/auth"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

const catalogSheet = "Catalog"

// ExportCatalog renders the full course catalog, including inactive
// courses, as an XLSX workbook.
func (s *exportService) ExportCatalog(ctx context.Context, actor *models.User) ([]byte, error) {
	s.logger.Info("exporting course catalog", "actor_id", actorID(actor))

	decision := auth.Authorize(principalOf(actor), auth.ActionCourseExport, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "course", "export", decision.Reason)
	}

	courses, _, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{
		SortBy:    "code",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", catalogSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []interface{}{"Code", "Title", "Level", "Category", "Price", "Duration (weeks)", "Max Students", "Active", "Prerequisites"}
	if err := f.SetSheetRow(catalogSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, course := range courses {
		full, err := s.repo.Course().GetByIDWithPrerequisites(ctx, nil, course.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load course %d: %w", course.ID, err)
		}

		categoryName := ""
		if full.Category != nil {
			categoryName = full.Category.Name
		}

		row := []interface{}{
			full.Code,
			full.Title,
			string(full.Level),
			categoryName,
			full.Price,
			full.DurationWeeks,
			full.MaxStudents,
			full.IsActive,
			prereqCodes(full),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(catalogSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("catalog exported", "courses", len(courses), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// prereqCodes joins prerequisite course codes for a single export cell,
// falling back to the numeric ID when a code is missing.
func prereqCodes(course *models.Course) string {
	if len(course.Prerequisites) == 0 {
		return ""
	}
	codes := make([]string, len(course.Prerequisites))
	for i, p := range course.Prerequisites {
		if p.Code != "" {
			codes[i] = p.Code
		} else {
			codes[i] = strconv.FormatUint(uint64(p.ID), 10)
		}
	}
	return strings.Join(codes, ", ")
}
