package auth

import (
	"testing"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

func TestHasCapability(t *testing.T) {
	tests := []struct {
		name string
		role models.UserRole
		cap  Capability
		want bool
	}{
		{"admin creates users", models.RoleAdmin, CapCreateUsers, true},
		{"admin views reports", models.RoleAdmin, CapViewFinancialReports, true},
		{"registrar creates users", models.RoleRegistrar, CapCreateUsers, true},
		{"registrar records payments", models.RoleRegistrar, CapRecordPayments, true},
		{"registrar cannot manage courses", models.RoleRegistrar, CapManageCourses, false},
		{"registrar cannot view reports", models.RoleRegistrar, CapViewFinancialReports, false},
		{"academic manages courses", models.RoleAcademic, CapManageCourses, true},
		{"academic verifies completion", models.RoleAcademic, CapVerifyCompletion, true},
		{"academic issues certificates", models.RoleAcademic, CapIssueCertificates, true},
		{"academic cannot create users", models.RoleAcademic, CapCreateUsers, false},
		{"finance records payments", models.RoleFinance, CapRecordPayments, true},
		{"finance views reports", models.RoleFinance, CapViewFinancialReports, true},
		{"finance cannot manage courses", models.RoleFinance, CapManageCourses, false},
		{"student holds nothing", models.RoleStudent, CapCreateUsers, false},
		{"tutor holds nothing", models.RoleTutor, CapManageCourses, false},
		{"unknown role holds nothing", models.UserRole("WIZARD"), CapCreateUsers, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCapability(tt.role, tt.cap); got != tt.want {
				t.Errorf("HasCapability(%s, %s) = %v, want %v", tt.role, tt.cap, got, tt.want)
			}
		})
	}
}

func TestIsStaffRole(t *testing.T) {
	staff := []models.UserRole{models.RoleAdmin, models.RoleRegistrar, models.RoleAcademic, models.RoleFinance}
	for _, role := range staff {
		if !IsStaffRole(role) {
			t.Errorf("Expected %s to be staff", role)
		}
	}

	nonStaff := []models.UserRole{models.RoleStudent, models.RoleTutor, models.UserRole("WIZARD")}
	for _, role := range nonStaff {
		if IsStaffRole(role) {
			t.Errorf("Expected %s not to be staff", role)
		}
	}
}

func TestIsKnownRole(t *testing.T) {
	for _, role := range models.AllRoles {
		if !IsKnownRole(role) {
			t.Errorf("Expected %s to be known", role)
		}
	}

	if IsKnownRole(models.UserRole("WIZARD")) {
		t.Error("Expected WIZARD to be unknown")
	}
	if IsKnownRole(models.UserRole("admin")) {
		t.Error("Role registry must be case sensitive, lowercase admin should be unknown")
	}
}

func TestAssignableRoles(t *testing.T) {
	t.Run("admin assigns any role", func(t *testing.T) {
		roles := AssignableRoles(models.RoleAdmin)
		if len(roles) != len(models.AllRoles) {
			t.Errorf("Expected %d assignable roles, got %d", len(models.AllRoles), len(roles))
		}
	})

	t.Run("registrar assigns student and tutor only", func(t *testing.T) {
		roles := AssignableRoles(models.RoleRegistrar)
		if len(roles) != 2 {
			t.Fatalf("Expected 2 assignable roles, got %v", roles)
		}
		if !CanAssignRole(models.RoleRegistrar, models.RoleStudent) {
			t.Error("Registrar should assign STUDENT")
		}
		if !CanAssignRole(models.RoleRegistrar, models.RoleTutor) {
			t.Error("Registrar should assign TUTOR")
		}
		if CanAssignRole(models.RoleRegistrar, models.RoleAdmin) {
			t.Error("Registrar must not assign ADMIN")
		}
		if CanAssignRole(models.RoleRegistrar, models.RoleAcademic) {
			t.Error("Registrar must not assign ACADEMIC")
		}
	})

	t.Run("other roles assign nothing", func(t *testing.T) {
		for _, role := range []models.UserRole{models.RoleAcademic, models.RoleFinance, models.RoleStudent, models.RoleTutor} {
			if roles := AssignableRoles(role); len(roles) != 0 {
				t.Errorf("Expected %s to assign nothing, got %v", role, roles)
			}
		}
	})
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities(models.RoleFinance)
	if len(caps) != 2 {
		t.Errorf("Expected finance to hold 2 capabilities, got %v", caps)
	}

	if caps := Capabilities(models.UserRole("WIZARD")); caps != nil {
		t.Errorf("Expected nil capabilities for unknown role, got %v", caps)
	}
}
