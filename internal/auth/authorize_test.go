package auth

import (
	"testing"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

func principal(id uint, role models.UserRole) Principal {
	return Principal{ID: id, Role: role, Active: true, Authenticated: true}
}

func TestAuthorize_OrderedRules(t *testing.T) {
	t.Run("public catalog is open to anonymous", func(t *testing.T) {
		d := Authorize(Anonymous, ActionCatalogRead, Resource{Kind: "course", Public: true})
		if !d.Allowed {
			t.Fatalf("Expected allow, got deny(%s)", d.Reason)
		}
	})

	t.Run("anonymous is denied everything else", func(t *testing.T) {
		d := Authorize(Anonymous, ActionCourseRead, Resource{Kind: "course"})
		if d.Allowed || d.Reason != DenyUnauthenticated {
			t.Fatalf("Expected deny(unauthenticated), got %+v", d)
		}
	})

	t.Run("inactive account is denied before role checks", func(t *testing.T) {
		p := Principal{ID: 1, Role: models.RoleAdmin, Active: false, Authenticated: true}
		d := Authorize(p, ActionCourseRead, Resource{Kind: "course"})
		if d.Allowed || d.Reason != DenyInactiveAccount {
			t.Fatalf("Expected deny(inactive_account), got %+v", d)
		}
	})

	t.Run("unknown role is denied", func(t *testing.T) {
		p := principal(1, models.UserRole("WIZARD"))
		d := Authorize(p, ActionCourseRead, Resource{Kind: "course"})
		if d.Allowed || d.Reason != DenyUnknownRole {
			t.Fatalf("Expected deny(unknown_role), got %+v", d)
		}
	})

	t.Run("admin is allowed everything", func(t *testing.T) {
		p := principal(1, models.RoleAdmin)
		actions := []Action{
			ActionUserCreate, ActionUserUpdate, ActionUserDelete,
			ActionCourseCreate, ActionPrereqModify, ActionCourseExport,
			ActionPaymentRecord, ActionFinancialReportView,
		}
		for _, action := range actions {
			if d := Authorize(p, action, Resource{}); !d.Allowed {
				t.Errorf("Expected admin allow for %s, got deny(%s)", action, d.Reason)
			}
		}
	})
}

func TestAuthorize_UserManagement(t *testing.T) {
	registrar := principal(2, models.RoleRegistrar)

	t.Run("registrar creates student", func(t *testing.T) {
		d := Authorize(registrar, ActionUserCreate, Resource{Kind: "user", TargetRole: models.RoleStudent})
		if !d.Allowed {
			t.Fatalf("Expected allow, got deny(%s)", d.Reason)
		}
	})

	t.Run("registrar cannot create admin", func(t *testing.T) {
		d := Authorize(registrar, ActionUserCreate, Resource{Kind: "user", TargetRole: models.RoleAdmin})
		if d.Allowed || d.Reason != DenyInsufficientRole {
			t.Fatalf("Expected deny(insufficient_role), got %+v", d)
		}
	})

	t.Run("academic cannot create users at all", func(t *testing.T) {
		d := Authorize(principal(3, models.RoleAcademic), ActionUserCreate, Resource{Kind: "user", TargetRole: models.RoleStudent})
		if d.Allowed {
			t.Fatal("Expected deny for academic user creation")
		}
	})

	t.Run("registrar reads student accounts", func(t *testing.T) {
		d := Authorize(registrar, ActionUserRead, Resource{Kind: "user", OwnerID: 9, TargetRole: models.RoleStudent})
		if !d.Allowed {
			t.Fatalf("Expected allow, got deny(%s)", d.Reason)
		}
	})

	t.Run("registrar cannot read staff accounts", func(t *testing.T) {
		d := Authorize(registrar, ActionUserRead, Resource{Kind: "user", OwnerID: 9, TargetRole: models.RoleFinance})
		if d.Allowed {
			t.Fatal("Expected deny for registrar reading staff account")
		}
	})

	t.Run("anyone reads their own account", func(t *testing.T) {
		student := principal(7, models.RoleStudent)
		d := Authorize(student, ActionUserRead, Resource{Kind: "user", OwnerID: 7, TargetRole: models.RoleStudent})
		if !d.Allowed {
			t.Fatalf("Expected allow, got deny(%s)", d.Reason)
		}
	})

	t.Run("user mutations are admin only", func(t *testing.T) {
		for _, action := range []Action{ActionUserUpdate, ActionUserDelete, ActionUserResetPassword, ActionUserDeactivate} {
			d := Authorize(registrar, action, Resource{Kind: "user", TargetRole: models.RoleStudent})
			if d.Allowed {
				t.Errorf("Expected deny for registrar %s", action)
			}
		}
	})
}

func TestAuthorize_Profile(t *testing.T) {
	student := principal(7, models.RoleStudent)

	t.Run("owner may update own profile", func(t *testing.T) {
		d := Authorize(student, ActionProfileUpdate, Resource{Kind: "profile", OwnerID: 7})
		if !d.Allowed {
			t.Fatalf("Expected allow, got deny(%s)", d.Reason)
		}
	})

	t.Run("non owner is denied", func(t *testing.T) {
		d := Authorize(student, ActionProfileUpdate, Resource{Kind: "profile", OwnerID: 8})
		if d.Allowed || d.Reason != DenyNotOwner {
			t.Fatalf("Expected deny(not_owner), got %+v", d)
		}
	})
}

func TestAuthorize_Courses(t *testing.T) {
	academic := principal(3, models.RoleAcademic)
	finance := principal(4, models.RoleFinance)
	student := principal(7, models.RoleStudent)

	t.Run("academic manages courses and prerequisites", func(t *testing.T) {
		for _, action := range []Action{ActionCourseCreate, ActionCourseUpdate, ActionCourseDelete, ActionPrereqModify, ActionCategoryManage} {
			if d := Authorize(academic, action, Resource{Kind: "course"}); !d.Allowed {
				t.Errorf("Expected allow for academic %s, got deny(%s)", action, d.Reason)
			}
		}
	})

	t.Run("finance cannot manage courses", func(t *testing.T) {
		d := Authorize(finance, ActionCourseCreate, Resource{Kind: "course"})
		if d.Allowed {
			t.Fatal("Expected deny for finance course creation")
		}
	})

	t.Run("all staff read courses and stats", func(t *testing.T) {
		for _, p := range []Principal{academic, finance, principal(2, models.RoleRegistrar)} {
			for _, action := range []Action{ActionCourseRead, ActionCourseStats, ActionCourseExport} {
				if d := Authorize(p, action, Resource{Kind: "course"}); !d.Allowed {
					t.Errorf("Expected allow for %s %s, got deny(%s)", p.Role, action, d.Reason)
				}
			}
		}
	})

	t.Run("students cannot read the staff course view", func(t *testing.T) {
		d := Authorize(student, ActionCourseRead, Resource{Kind: "course"})
		if d.Allowed {
			t.Fatal("Expected deny for student course read")
		}
	})

	t.Run("authenticated users read the catalog", func(t *testing.T) {
		d := Authorize(student, ActionCatalogRead, Resource{Kind: "course"})
		if !d.Allowed {
			t.Fatalf("Expected allow, got deny(%s)", d.Reason)
		}
	})
}

func TestAuthorize_CapabilityActions(t *testing.T) {
	tests := []struct {
		name   string
		role   models.UserRole
		action Action
		want   bool
	}{
		{"academic verifies completion", models.RoleAcademic, ActionCompletionVerify, true},
		{"academic issues certificates", models.RoleAcademic, ActionCertificateIssue, true},
		{"registrar cannot verify completion", models.RoleRegistrar, ActionCompletionVerify, false},
		{"registrar records payments", models.RoleRegistrar, ActionPaymentRecord, true},
		{"finance records payments", models.RoleFinance, ActionPaymentRecord, true},
		{"finance views reports", models.RoleFinance, ActionFinancialReportView, true},
		{"registrar cannot view reports", models.RoleRegistrar, ActionFinancialReportView, false},
		{"academic cannot record payments", models.RoleAcademic, ActionPaymentRecord, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(principal(1, tt.role), tt.action, Resource{})
			if d.Allowed != tt.want {
				t.Errorf("Authorize(%s, %s) allowed = %v, want %v", tt.role, tt.action, d.Allowed, tt.want)
			}
		})
	}
}
