package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleRegistrar UserRole = "REGISTRAR"
	RoleAcademic  UserRole = "ACADEMIC"
	RoleFinance   UserRole = "FINANCE"
	RoleStudent   UserRole = "STUDENT"
	RoleTutor     UserRole = "TUTOR"
)

// AllRoles lists every role the service recognizes, in display order.
var AllRoles = []UserRole{
	RoleAdmin,
	RoleRegistrar,
	RoleAcademic,
	RoleFinance,
	RoleStudent,
	RoleTutor,
}

type User struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string   `json:"-" gorm:"not null;size:255"`
	FirstName string   `json:"first_name" gorm:"size:100"`
	LastName  string   `json:"last_name" gorm:"size:100"`
	Role      UserRole `json:"role" gorm:"not null;size:20;default:STUDENT;index"`
	Phone     *string  `json:"phone" gorm:"size:30"`

	// Derived columns kept in sync with Role on every mutation
	IsStaff   bool   `json:"is_staff" gorm:"not null;default:false"`
	RoleGroup string `json:"role_group" gorm:"size:20"`

	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// FullName returns the display name, falling back to email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// ParseRole validates a role string against the known roles.
func ParseRole(s string) (UserRole, error) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(s)))
	for _, r := range AllRoles {
		if role == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role: %q", s)
}
