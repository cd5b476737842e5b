package auth

import (
	"fmt"
	"sort"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

// Capability names a coarse-grained permission a role may hold.
type Capability string

const (
	CapCreateUsers          Capability = "create_users"
	CapManageCourses        Capability = "manage_courses"
	CapVerifyCompletion     Capability = "verify_completion"
	CapIssueCertificates    Capability = "issue_certificates"
	CapRecordPayments       Capability = "record_payments"
	CapViewFinancialReports Capability = "view_financial_reports"
)

// ErrUnknownRole is returned when a role string is not in the registry.
var ErrUnknownRole = fmt.Errorf("unknown role")

// roleCapabilities is the static capability table. Authorization decisions
// derive from this table and the ordered rules in Authorize; it is not
// configurable at runtime.
var roleCapabilities = map[models.UserRole]map[Capability]bool{
	models.RoleAdmin: {
		CapCreateUsers:          true,
		CapManageCourses:        true,
		CapVerifyCompletion:     true,
		CapIssueCertificates:    true,
		CapRecordPayments:       true,
		CapViewFinancialReports: true,
	},
	models.RoleRegistrar: {
		CapCreateUsers:    true,
		CapRecordPayments: true,
	},
	models.RoleAcademic: {
		CapManageCourses:     true,
		CapVerifyCompletion:  true,
		CapIssueCertificates: true,
	},
	models.RoleFinance: {
		CapRecordPayments:       true,
		CapViewFinancialReports: true,
	},
	models.RoleStudent: {},
	models.RoleTutor:   {},
}

// staffRoles are roles whose holders count as institutional staff.
var staffRoles = map[models.UserRole]bool{
	models.RoleAdmin:     true,
	models.RoleRegistrar: true,
	models.RoleAcademic:  true,
	models.RoleFinance:   true,
}

// HasCapability reports whether the role holds the capability.
// Unknown roles hold nothing.
func HasCapability(role models.UserRole, cap Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	return caps[cap]
}

// IsStaffRole reports whether the role counts as staff.
func IsStaffRole(role models.UserRole) bool {
	return staffRoles[role]
}

// IsKnownRole reports whether the role exists in the registry.
func IsKnownRole(role models.UserRole) bool {
	_, ok := roleCapabilities[role]
	return ok
}

// Capabilities returns the capabilities held by a role, sorted by name.
// Unknown roles return nil.
func Capabilities(role models.UserRole) []Capability {
	caps, ok := roleCapabilities[role]
	if !ok {
		return nil
	}
	result := make([]Capability, 0, len(caps))
	for c, held := range caps {
		if held {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// AssignableRoles returns the roles an actor with the given role may assign
// when creating or updating users. Admins may assign any role; registrars
// only student and tutor accounts.
func AssignableRoles(actor models.UserRole) []models.UserRole {
	switch actor {
	case models.RoleAdmin:
		return models.AllRoles
	case models.RoleRegistrar:
		return []models.UserRole{models.RoleStudent, models.RoleTutor}
	default:
		return nil
	}
}

// CanAssignRole reports whether the actor may assign target when creating
// or updating a user account.
func CanAssignRole(actor, target models.UserRole) bool {
	for _, r := range AssignableRoles(actor) {
		if r == target {
			return true
		}
	}
	return false
}
