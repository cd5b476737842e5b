package auth

import (
	"github.com/ITA-F-2025/institute-service/internal/models"
)

// Action names an operation that can be authorized.
type Action string

const (
	ActionUserCreate        Action = "user:create"
	ActionUserRead          Action = "user:read"
	ActionUserUpdate        Action = "user:update"
	ActionUserDelete        Action = "user:delete"
	ActionUserResetPassword Action = "user:reset_password"
	ActionUserDeactivate    Action = "user:deactivate"

	ActionProfileRead    Action = "profile:read"
	ActionProfileUpdate  Action = "profile:update"
	ActionPasswordChange Action = "profile:change_password"

	ActionCourseCreate       Action = "course:create"
	ActionCourseRead         Action = "course:read"
	ActionCourseUpdate       Action = "course:update"
	ActionCourseDelete       Action = "course:delete"
	ActionCourseToggleActive Action = "course:toggle_active"
	ActionPrereqModify       Action = "course:modify_prerequisites"
	ActionCourseStats        Action = "course:statistics"
	ActionCourseExport       Action = "course:export"

	ActionCategoryManage Action = "category:manage"
	ActionCategoryRead   Action = "category:read"

	ActionCatalogRead Action = "catalog:read"

	ActionCompletionVerify    Action = "enrollment:verify_completion"
	ActionCertificateIssue    Action = "enrollment:issue_certificate"
	ActionPaymentRecord       Action = "payment:record"
	ActionFinancialReportView Action = "payment:view_reports"
)

// DenyReason explains why a request was denied.
type DenyReason string

const (
	DenyUnauthenticated  DenyReason = "unauthenticated"
	DenyInactiveAccount  DenyReason = "inactive_account"
	DenyUnknownRole      DenyReason = "unknown_role"
	DenyInsufficientRole DenyReason = "insufficient_role"
	DenyNotOwner         DenyReason = "not_owner"
)

// Principal is the authenticated (or anonymous) actor of a request.
type Principal struct {
	ID            uint
	Role          models.UserRole
	Active        bool
	Authenticated bool
}

// Anonymous is the principal used for unauthenticated requests.
var Anonymous = Principal{}

// Resource describes the target of an action. OwnerID carries the owning
// user for self-service checks; TargetRole carries the role involved in
// user management actions; Public marks resources in the open catalog.
type Resource struct {
	Kind       string
	OwnerID    uint
	TargetRole models.UserRole
	Public     bool
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize evaluates the ordered rule set for a principal, action and
// resource. Rules are checked top to bottom and the first match wins:
//
//  1. public catalog reads are open to everyone
//  2. unauthenticated principals are denied
//  3. inactive accounts are denied
//  4. unknown roles are denied
//  5. admins are allowed everything
//  6. self-service profile actions are allowed for the owner
//  7. capability and role rules per action
//  8. anything left is an insufficient-role denial
func Authorize(p Principal, action Action, res Resource) Decision {
	if action == ActionCatalogRead && res.Public {
		return allow()
	}

	if !p.Authenticated {
		return deny(DenyUnauthenticated)
	}
	if !p.Active {
		return deny(DenyInactiveAccount)
	}
	if !IsKnownRole(p.Role) {
		return deny(DenyUnknownRole)
	}
	if p.Role == models.RoleAdmin {
		return allow()
	}

	switch action {
	case ActionProfileRead, ActionProfileUpdate, ActionPasswordChange:
		if res.OwnerID == p.ID {
			return allow()
		}
		return deny(DenyNotOwner)

	case ActionUserCreate:
		if !HasCapability(p.Role, CapCreateUsers) {
			return deny(DenyInsufficientRole)
		}
		// Registrars may only create student and tutor accounts.
		if !CanAssignRole(p.Role, res.TargetRole) {
			return deny(DenyInsufficientRole)
		}
		return allow()

	case ActionUserRead:
		if p.ID == res.OwnerID {
			return allow()
		}
		if !IsStaffRole(p.Role) {
			return deny(DenyInsufficientRole)
		}
		// Registrars only see student and tutor accounts.
		if p.Role == models.RoleRegistrar && !CanAssignRole(p.Role, res.TargetRole) {
			return deny(DenyInsufficientRole)
		}
		return allow()

	case ActionUserUpdate, ActionUserDelete, ActionUserResetPassword, ActionUserDeactivate:
		// Admin only, already handled above.
		return deny(DenyInsufficientRole)

	case ActionCourseCreate, ActionCourseUpdate, ActionCourseDelete,
		ActionCourseToggleActive, ActionPrereqModify, ActionCategoryManage:
		if HasCapability(p.Role, CapManageCourses) {
			return allow()
		}
		return deny(DenyInsufficientRole)

	case ActionCourseRead, ActionCategoryRead, ActionCourseStats, ActionCourseExport:
		if IsStaffRole(p.Role) {
			return allow()
		}
		return deny(DenyInsufficientRole)

	case ActionCatalogRead:
		// Authenticated users may read the catalog regardless of role.
		return allow()

	case ActionCompletionVerify:
		if HasCapability(p.Role, CapVerifyCompletion) {
			return allow()
		}
		return deny(DenyInsufficientRole)

	case ActionCertificateIssue:
		if HasCapability(p.Role, CapIssueCertificates) {
			return allow()
		}
		return deny(DenyInsufficientRole)

	case ActionPaymentRecord:
		if HasCapability(p.Role, CapRecordPayments) {
			return allow()
		}
		return deny(DenyInsufficientRole)

	case ActionFinancialReportView:
		if HasCapability(p.Role, CapViewFinancialReports) {
			return allow()
		}
		return deny(DenyInsufficientRole)
	}

	return deny(DenyInsufficientRole)
}
