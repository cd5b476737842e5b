package validator

import (
	"testing"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

func hasRuleError(errs ValidationErrors, field, rule string) bool {
	for _, e := range errs {
		if e.Field == field && e.Rule == rule {
			return true
		}
	}
	return false
}

func validUserCreate() *UserCreateRequest {
	return &UserCreateRequest{
		Email:     "student@ita.edu",
		Password:  "Sup3rSecret",
		FirstName: "Stu",
		LastName:  "Dent",
		Role:      models.RoleStudent,
	}
}

func TestValidateUserCreate(t *testing.T) {
	bv := NewBusinessValidator()

	t.Run("valid request", func(t *testing.T) {
		if errs := bv.ValidateUserCreate(validUserCreate()); len(errs) > 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("mixed-case email rejected", func(t *testing.T) {
		req := validUserCreate()
		req.Email = "Student@ITA.edu"
		errs := bv.ValidateUserCreate(req)
		if !hasRuleError(errs, "email", "business_logic") {
			t.Errorf("expected business_logic error on email, got %v", errs)
		}
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		req := validUserCreate()
		req.Role = models.UserRole("WIZARD")
		errs := bv.ValidateUserCreate(req)
		if !hasRuleError(errs, "role", "user_role") {
			t.Errorf("expected user_role error, got %v", errs)
		}
	})
}

func TestPasswordStrength(t *testing.T) {
	bv := NewBusinessValidator()

	cases := []struct {
		password string
		valid    bool
	}{
		{"Sup3rSecret", true},
		{"abcdefg1", true},
		{"short1", false},      // under 8 chars
		{"onlyletters", false}, // no digit
		{"12345678", false},    // no letter
		{"", false},
	}

	for _, tc := range cases {
		req := validUserCreate()
		req.Password = tc.password
		errs := bv.ValidateUserCreate(req)
		failed := hasRuleError(errs, "password", "password_strength") ||
			hasRuleError(errs, "password", "required")
		if tc.valid && failed {
			t.Errorf("password %q should be accepted: %v", tc.password, errs)
		}
		if !tc.valid && !failed {
			t.Errorf("password %q should be rejected", tc.password)
		}
	}
}

func validCourseCreate() *CourseCreateRequest {
	return &CourseCreateRequest{
		Code:          "CS-101",
		Title:         "Intro to Programming",
		Level:         models.LevelBeginner,
		CategoryID:    1,
		DurationWeeks: 12,
	}
}

func TestCourseCode(t *testing.T) {
	bv := NewBusinessValidator()

	cases := []struct {
		code  string
		valid bool
	}{
		{"CS-101", true},
		{"MATH-2024", true},
		{"AB12", true},
		{"DESGN-99", true},
		{"cs-101", false},   // lowercase
		{"C-101", false},    // too few letters
		{"ABCDEF-101", false}, // too many letters
		{"CS-1", false},     // too few digits
		{"CS-12345", false}, // too many digits
		{"CS101X", false},   // trailing letter
		{"", false},
	}

	for _, tc := range cases {
		req := validCourseCreate()
		req.Code = tc.code
		errs := bv.ValidateCourseCreate(req)
		failed := hasRuleError(errs, "code", "course_code") ||
			hasRuleError(errs, "code", "required")
		if tc.valid && failed {
			t.Errorf("code %q should be accepted: %v", tc.code, errs)
		}
		if !tc.valid && !failed {
			t.Errorf("code %q should be rejected", tc.code)
		}
	}
}

func TestCourseDuration(t *testing.T) {
	bv := NewBusinessValidator()

	cases := []struct {
		weeks int
		valid bool
	}{
		{1, true},
		{52, true},
		{104, true},
		{0, false},
		{105, false},
		{-4, false},
	}

	for _, tc := range cases {
		req := validCourseCreate()
		req.DurationWeeks = tc.weeks
		errs := bv.ValidateCourseCreate(req)
		failed := hasRuleError(errs, "durationweeks", "course_duration") ||
			hasRuleError(errs, "durationweeks", "required")
		if tc.valid && failed {
			t.Errorf("duration %d should be accepted: %v", tc.weeks, errs)
		}
		if !tc.valid && !failed {
			t.Errorf("duration %d should be rejected", tc.weeks)
		}
	}
}

func TestCourseLevel(t *testing.T) {
	bv := NewBusinessValidator()

	req := validCourseCreate()
	req.Level = models.CourseLevel("EXPERT")
	errs := bv.ValidateCourseCreate(req)
	if !hasRuleError(errs, "level", "course_level") {
		t.Errorf("expected course_level error, got %v", errs)
	}
}

func TestValidatePrerequisites(t *testing.T) {
	bv := NewBusinessValidator()

	t.Run("duplicates rejected", func(t *testing.T) {
		errs := bv.ValidatePrerequisites(&PrerequisitesUpdateRequest{
			Prerequisites: []uint{1, 2, 1},
		})
		if !hasRuleError(errs, "prerequisites", "business_logic") {
			t.Errorf("expected duplicate error, got %v", errs)
		}
	})

	t.Run("empty set allowed", func(t *testing.T) {
		if errs := bv.ValidatePrerequisites(&PrerequisitesUpdateRequest{}); len(errs) > 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("oversized list rejected", func(t *testing.T) {
		ids := make([]uint, 21)
		for i := range ids {
			ids[i] = uint(i + 1)
		}
		errs := bv.ValidatePrerequisites(&PrerequisitesUpdateRequest{Prerequisites: ids})
		if !hasRuleError(errs, "prerequisites", "max") {
			t.Errorf("expected max error, got %v", errs)
		}
	})
}

func TestValidatePrerequisitesBatch(t *testing.T) {
	bv := NewBusinessValidator()

	t.Run("distinct courses allowed", func(t *testing.T) {
		errs := bv.ValidatePrerequisitesBatch(&PrerequisitesBatchRequest{
			Items: []PrerequisitesBatchItem{
				{CourseID: 1, Prerequisites: []uint{3}},
				{CourseID: 2, Prerequisites: nil},
			},
		})
		if len(errs) > 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("duplicate course id rejected", func(t *testing.T) {
		errs := bv.ValidatePrerequisitesBatch(&PrerequisitesBatchRequest{
			Items: []PrerequisitesBatchItem{
				{CourseID: 7, Prerequisites: []uint{3}},
				{CourseID: 7, Prerequisites: nil},
			},
		})
		if !hasRuleError(errs, "items", "business_logic") {
			t.Errorf("expected duplicate course error, got %v", errs)
		}
	})

	t.Run("duplicate prerequisites inside an item rejected", func(t *testing.T) {
		errs := bv.ValidatePrerequisitesBatch(&PrerequisitesBatchRequest{
			Items: []PrerequisitesBatchItem{
				{CourseID: 1, Prerequisites: []uint{2, 2}},
			},
		})
		if !hasRuleError(errs, "prerequisites", "business_logic") {
			t.Errorf("expected duplicate prerequisite error, got %v", errs)
		}
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		errs := bv.ValidatePrerequisitesBatch(&PrerequisitesBatchRequest{})
		if !hasRuleError(errs, "items", "required") {
			t.Errorf("expected required error, got %v", errs)
		}
	})
}
